package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DeleteStatementWithClient deletes a statement's ledger and all derived rows
// in one transaction.
func DeleteStatementWithClient(ctx context.Context, client *bigquery.Client, t aggregateTables, statementID string) error {
	q := client.Query(fmt.Sprintf(`
		BEGIN TRANSACTION;
		DELETE FROM %s WHERE statement_id = @statement_id;
		DELETE FROM %s WHERE statement_id = @statement_id;
		DELETE FROM %s WHERE statement_id = @statement_id;
		DELETE FROM %s WHERE statement_id = @statement_id;
		COMMIT TRANSACTION;
	`, t.transactions, t.monthly, t.recurring, t.loans))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
	}

	if _, err := runAndWait(ctx, q); err != nil {
		return fmt.Errorf("DeleteStatementWithClient: %w", err)
	}
	return nil
}
