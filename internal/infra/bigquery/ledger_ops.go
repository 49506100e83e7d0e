package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-scoring/internal/domain"
	"google.golang.org/api/iterator"
)

// InsertLedgerWithClient merges transactions into table, inserting only rows
// whose (statement_id, ledger_key) is not yet present. It returns the number
// of rows inserted.
func InsertLedgerWithClient(ctx context.Context, client *bigquery.Client, table string, txs []domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	seen := make(map[string]struct{}, len(txs))
	rows := make([]TransactionRow, 0, len(txs))
	for _, tx := range txs {
		row := newTransactionRow(tx, now)
		// MERGE inserts every unmatched source row, so the batch itself must be unique.
		id := row.StatementID + "|" + row.LedgerKey
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, row)
	}

	q := client.Query(fmt.Sprintf(`
		MERGE %s T
		USING UNNEST(@rows) S
		ON T.statement_id = S.statement_id AND T.ledger_key = S.ledger_key
		WHEN NOT MATCHED THEN
			INSERT (statement_id, ledger_key, txn_date, description, amount, direction, category, created_ts)
			VALUES (S.statement_id, S.ledger_key, S.txn_date, S.description, S.amount, S.direction, S.category, S.created_ts)
	`, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "rows", Value: rows},
	}

	status, err := runAndWait(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("InsertLedgerWithClient: %w", err)
	}
	return int(affectedRows(status)), nil
}

// ListLedgerWithClient returns a statement's ledger ordered by date.
func ListLedgerWithClient(ctx context.Context, client *bigquery.Client, table, statementID string) ([]domain.Transaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT statement_id, ledger_key, txn_date, description, amount, direction, category, created_ts
		FROM %s
		WHERE statement_id = @statement_id
		ORDER BY txn_date, created_ts
	`, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListLedgerWithClient: query read: %w", err)
	}

	var out []domain.Transaction
	for {
		var r TransactionRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListLedgerWithClient: iter next: %w", err)
		}
		out = append(out, r.transaction())
	}
	return out, nil
}

// runAndWait runs a DML or script query and waits for it to finish.
func runAndWait(ctx context.Context, q *bigquery.Query) (*bigquery.JobStatus, error) {
	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("job error: %w", err)
	}

	return status, nil
}

func affectedRows(status *bigquery.JobStatus) int64 {
	if status == nil || status.Statistics == nil {
		return 0
	}
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
		return qs.NumDMLAffectedRows
	}
	return 0
}
