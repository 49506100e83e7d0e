package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/statement-scoring/internal/domain"
	"google.golang.org/api/iterator"
)

// ReplaceAggregatesWithClient swaps a statement's aggregate rows inside one
// multi-statement transaction, so readers never see a partial replacement.
func ReplaceAggregatesWithClient(ctx context.Context, client *bigquery.Client, t aggregateTables, agg *domain.Aggregates) error {
	if agg == nil || agg.StatementID == "" {
		return fmt.Errorf("ReplaceAggregatesWithClient: statement ID is required")
	}

	q := client.Query(fmt.Sprintf(`
		BEGIN TRANSACTION;

		DELETE FROM %[1]s WHERE statement_id = @statement_id;
		DELETE FROM %[2]s WHERE statement_id = @statement_id;
		DELETE FROM %[3]s WHERE statement_id = @statement_id;

		INSERT INTO %[1]s (statement_id, year_month, deposits, withdrawals, fees_total, transfer_in, transfer_out)
		SELECT statement_id, year_month, deposits, withdrawals, fees_total, transfer_in, transfer_out
		FROM UNNEST(@monthly);

		INSERT INTO %[2]s (statement_id, category, avg_amount, count_months)
		SELECT statement_id, category, avg_amount, count_months
		FROM UNNEST(@recurring);

		INSERT INTO %[3]s (statement_id, total_loan_payments, loan_tx_count)
		SELECT statement_id, total_loan_payments, loan_tx_count
		FROM UNNEST(@loans);

		COMMIT TRANSACTION;
	`, t.monthly, t.recurring, t.loans))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: agg.StatementID},
		{Name: "monthly", Value: monthlyRows(agg.Monthly)},
		{Name: "recurring", Value: recurringRows(agg.Recurring)},
		{Name: "loans", Value: loanRows(agg.Loan)},
	}

	if _, err := runAndWait(ctx, q); err != nil {
		return fmt.Errorf("ReplaceAggregatesWithClient: %w", err)
	}
	return nil
}

// GetAggregatesWithClient reads every aggregate table for a statement.
func GetAggregatesWithClient(ctx context.Context, client *bigquery.Client, t aggregateTables, statementID string) (*domain.Aggregates, error) {
	params := []bigquery.QueryParameter{{Name: "statement_id", Value: statementID}}

	monthly, err := readRows[MonthlyRow](ctx, client, fmt.Sprintf(`
		SELECT statement_id, year_month, deposits, withdrawals, fees_total, transfer_in, transfer_out
		FROM %s WHERE statement_id = @statement_id ORDER BY year_month
	`, t.monthly), params)
	if err != nil {
		return nil, fmt.Errorf("GetAggregatesWithClient: monthly: %w", err)
	}

	recurring, err := readRows[RecurringRow](ctx, client, fmt.Sprintf(`
		SELECT statement_id, category, avg_amount, count_months
		FROM %s WHERE statement_id = @statement_id
	`, t.recurring), params)
	if err != nil {
		return nil, fmt.Errorf("GetAggregatesWithClient: recurring: %w", err)
	}

	loans, err := readRows[LoanRow](ctx, client, fmt.Sprintf(`
		SELECT statement_id, total_loan_payments, loan_tx_count
		FROM %s WHERE statement_id = @statement_id LIMIT 1
	`, t.loans), params)
	if err != nil {
		return nil, fmt.Errorf("GetAggregatesWithClient: loans: %w", err)
	}

	agg := &domain.Aggregates{StatementID: statementID}
	for _, r := range monthly {
		agg.Monthly = append(agg.Monthly, r.summary())
	}
	recurringByCategory := make(map[domain.Category]domain.RecurringBill, len(recurring))
	for _, r := range recurring {
		recurringByCategory[domain.Category(r.Category)] = r.bill()
	}
	for _, cat := range domain.RecurringCategories {
		if rb, ok := recurringByCategory[cat]; ok {
			agg.Recurring = append(agg.Recurring, rb)
		}
	}
	if len(loans) > 0 {
		agg.Loan = loans[0].loan()
	}

	if agg.IsEmpty() {
		return nil, fmt.Errorf("GetAggregatesWithClient: %s: %w", statementID, domain.ErrStatementNotFound)
	}
	return agg, nil
}

func readRows[T any](ctx context.Context, client *bigquery.Client, sql string, params []bigquery.QueryParameter) ([]T, error) {
	q := client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("query read: %w", err)
	}

	var rows []T
	for {
		var r T
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iter next: %w", err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}
