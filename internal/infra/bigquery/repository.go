package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/storage"
)

const (
	transactionsTable = "transactions_raw"
	monthlyTable      = "monthly_summary"
	recurringTable    = "recurring_bills"
	loansTable        = "outstanding_loans"
)

// Repository is the BigQuery implementation of storage.Store. It holds a
// shared client to avoid creating a new connection for each operation.
type Repository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
}

// NewRepository creates a Repository for the given project and dataset.
func NewRepository(ctx context.Context, projectID, datasetID string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, projectID, datasetID), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, projectID, datasetID string) *Repository {
	return &Repository{client: client, projectID: projectID, datasetID: datasetID}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertLedger delegates to InsertLedgerWithClient.
func (r *Repository) InsertLedger(ctx context.Context, txs []domain.Transaction) (int, error) {
	return InsertLedgerWithClient(ctx, r.client, r.tableRef(transactionsTable), txs)
}

// ListLedger delegates to ListLedgerWithClient.
func (r *Repository) ListLedger(ctx context.Context, statementID string) ([]domain.Transaction, error) {
	return ListLedgerWithClient(ctx, r.client, r.tableRef(transactionsTable), statementID)
}

// ReplaceAggregates delegates to ReplaceAggregatesWithClient.
func (r *Repository) ReplaceAggregates(ctx context.Context, agg *domain.Aggregates) error {
	return ReplaceAggregatesWithClient(ctx, r.client, r.tables(), agg)
}

// GetAggregates delegates to GetAggregatesWithClient.
func (r *Repository) GetAggregates(ctx context.Context, statementID string) (*domain.Aggregates, error) {
	return GetAggregatesWithClient(ctx, r.client, r.tables(), statementID)
}

// DeleteStatement delegates to DeleteStatementWithClient.
func (r *Repository) DeleteStatement(ctx context.Context, statementID string) error {
	return DeleteStatementWithClient(ctx, r.client, r.tables(), statementID)
}

// tableRef returns a fully qualified, backtick-quoted table name.
func (r *Repository) tableRef(table string) string {
	return fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, table)
}

func (r *Repository) tables() aggregateTables {
	return aggregateTables{
		transactions: r.tableRef(transactionsTable),
		monthly:      r.tableRef(monthlyTable),
		recurring:    r.tableRef(recurringTable),
		loans:        r.tableRef(loansTable),
	}
}

// aggregateTables carries the qualified names used by multi-table statements.
type aggregateTables struct {
	transactions string
	monthly      string
	recurring    string
	loans        string
}

var _ storage.Store = (*Repository)(nil)
