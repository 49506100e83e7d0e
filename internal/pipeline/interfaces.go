package pipeline

import (
	"context"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/extract"
)

// TextLoader reads a statement source into lines.
type TextLoader interface {
	Load(ctx context.Context, uri string) ([]string, error)
}

// TransactionExtractor turns statement lines into a deduplicated ledger fragment.
type TransactionExtractor interface {
	Extract(ctx context.Context, statementID string, lines []string) (*extract.Result, error)
}

// Categorizer assigns categories to a ledger.
type Categorizer interface {
	Categorize(ledger []domain.Transaction) []domain.Transaction
}

// Aggregator folds a full ledger into aggregates.
type Aggregator interface {
	Aggregate(statementID string, ledger []domain.Transaction) *domain.Aggregates
}
