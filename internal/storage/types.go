// Package storage defines the persistence ports shared by the ledger
// and aggregate backends.
package storage

import (
	"context"

	"github.com/dvloznov/statement-scoring/internal/domain"
)

// LedgerRepository stores extracted transactions.
type LedgerRepository interface {
	// InsertLedger writes transactions, skipping any whose (statement, date,
	// description, |amount|) key is already stored. It returns how many rows
	// were actually inserted.
	InsertLedger(ctx context.Context, txs []domain.Transaction) (int, error)

	// ListLedger returns every stored transaction for a statement, ordered by date.
	ListLedger(ctx context.Context, statementID string) ([]domain.Transaction, error)
}

// AggregateRepository stores the derived per-statement aggregates.
type AggregateRepository interface {
	// ReplaceAggregates removes any prior aggregates for agg.StatementID and
	// writes agg in their place as one unit.
	ReplaceAggregates(ctx context.Context, agg *domain.Aggregates) error

	// GetAggregates returns the aggregates for a statement, or
	// domain.ErrStatementNotFound when none exist.
	GetAggregates(ctx context.Context, statementID string) (*domain.Aggregates, error)
}

// Store is a full backend.
type Store interface {
	LedgerRepository
	AggregateRepository

	// DeleteStatement removes a statement's ledger and aggregates.
	DeleteStatement(ctx context.Context, statementID string) error

	Close() error
}
