package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(stmt, date, desc string, amount float64) domain.Transaction {
	d, _ := time.Parse(domain.DateLayout, date)
	return domain.Transaction{StatementID: stmt, Date: d, Description: desc, Amount: amount, Direction: domain.DirectionDebit, Category: domain.CategoryOther}
}

func TestStore_InsertLedgerSkipsExistingKeys(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	n, err := s.InsertLedger(ctx, []domain.Transaction{
		tx("s1", "2024-02-01", "Rent", -1000),
		tx("s1", "2024-01-01", "Coffee", -3.5),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// same key with flipped sign and padded description is a duplicate
	n, err = s.InsertLedger(ctx, []domain.Transaction{
		tx("s1", "2024-02-01", "  Rent ", 1000),
		tx("s2", "2024-02-01", "Rent", -1000),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := s.ListLedger(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Coffee", got[0].Description, "ledger is ordered by date")

	other, _ := s.ListLedger(ctx, "s2")
	assert.Len(t, other, 1)
}

func TestStore_InsertLedgerRequiresStatement(t *testing.T) {
	_, err := NewStore().InsertLedger(context.Background(), []domain.Transaction{tx("", "2024-01-01", "x", 1)})
	assert.Error(t, err)
}

func TestStore_ReplaceAggregates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.GetAggregates(ctx, "s1")
	assert.True(t, errors.Is(err, domain.ErrStatementNotFound))

	first := &domain.Aggregates{
		StatementID: "s1",
		Monthly:     []domain.MonthlySummary{{StatementID: "s1", YearMonth: "2024-01"}, {StatementID: "s1", YearMonth: "2024-02"}},
		Loan:        &domain.OutstandingLoan{StatementID: "s1", TotalLoanPayments: 100, LoanTxCount: 1},
	}
	require.NoError(t, s.ReplaceAggregates(ctx, first))

	second := &domain.Aggregates{
		StatementID: "s1",
		Monthly:     []domain.MonthlySummary{{StatementID: "s1", YearMonth: "2024-03"}},
	}
	require.NoError(t, s.ReplaceAggregates(ctx, second))

	got, err := s.GetAggregates(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, got.Monthly, 1, "replacement never merges with prior rows")
	assert.Nil(t, got.Loan)

	got.Monthly[0].Deposits = 42
	again, _ := s.GetAggregates(ctx, "s1")
	assert.Zero(t, again.Monthly[0].Deposits, "callers get copies")

	assert.Error(t, s.ReplaceAggregates(ctx, &domain.Aggregates{}))
}

func TestStore_DeleteStatement(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, err := s.InsertLedger(ctx, []domain.Transaction{tx("s1", "2024-01-01", "Rent", -1)})
	require.NoError(t, err)
	require.NoError(t, s.ReplaceAggregates(ctx, &domain.Aggregates{StatementID: "s1"}))

	require.NoError(t, s.DeleteStatement(ctx, "s1"))

	ledger, _ := s.ListLedger(ctx, "s1")
	assert.Empty(t, ledger)
	_, err = s.GetAggregates(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrStatementNotFound)

	n, err := s.InsertLedger(ctx, []domain.Transaction{tx("s1", "2024-01-01", "Rent", -1)})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "keys are forgotten with the statement")
}
