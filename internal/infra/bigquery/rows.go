package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-scoring/internal/domain"
)

// TransactionRow is one row of transactions_raw.
type TransactionRow struct {
	StatementID string     `bigquery:"statement_id"` // REQUIRED
	LedgerKey   string     `bigquery:"ledger_key"`   // REQUIRED, unique per statement
	TxnDate     civil.Date `bigquery:"txn_date"`     // REQUIRED
	Description string     `bigquery:"description"`  // REQUIRED
	Amount      *big.Rat   `bigquery:"amount"`       // REQUIRED NUMERIC
	Direction   string     `bigquery:"direction"`    // REQUIRED
	Category    string     `bigquery:"category"`     // REQUIRED

	CreatedTS time.Time `bigquery:"created_ts"`
}

// MonthlyRow is one row of monthly_summary.
type MonthlyRow struct {
	StatementID string  `bigquery:"statement_id"`
	YearMonth   string  `bigquery:"year_month"`
	Deposits    float64 `bigquery:"deposits"`
	Withdrawals float64 `bigquery:"withdrawals"`
	FeesTotal   float64 `bigquery:"fees_total"`
	TransferIn  float64 `bigquery:"transfer_in"`
	TransferOut float64 `bigquery:"transfer_out"`
}

// RecurringRow is one row of recurring_bills.
type RecurringRow struct {
	StatementID string  `bigquery:"statement_id"`
	Category    string  `bigquery:"category"`
	AvgAmount   float64 `bigquery:"avg_amount"`
	CountMonths int64   `bigquery:"count_months"`
}

// LoanRow is one row of outstanding_loans.
type LoanRow struct {
	StatementID       string  `bigquery:"statement_id"`
	TotalLoanPayments float64 `bigquery:"total_loan_payments"`
	LoanTxCount       int64   `bigquery:"loan_tx_count"`
}

func newTransactionRow(tx domain.Transaction, now time.Time) TransactionRow {
	amount := new(big.Rat)
	if r := new(big.Rat).SetFloat64(tx.Amount); r != nil {
		amount = r
	}
	return TransactionRow{
		StatementID: tx.StatementID,
		LedgerKey:   tx.Key().String(),
		TxnDate:     civil.DateOf(tx.Date),
		Description: tx.Description,
		Amount:      amount,
		Direction:   string(tx.Direction),
		Category:    string(tx.Category),
		CreatedTS:   now,
	}
}

func (r TransactionRow) transaction() domain.Transaction {
	var amount float64
	if r.Amount != nil {
		amount, _ = r.Amount.Float64()
	}
	return domain.Transaction{
		StatementID: r.StatementID,
		Date:        r.TxnDate.In(time.UTC),
		Description: r.Description,
		Amount:      amount,
		Direction:   domain.Direction(r.Direction),
		Category:    domain.Category(r.Category),
	}
}

func monthlyRows(in []domain.MonthlySummary) []MonthlyRow {
	out := make([]MonthlyRow, 0, len(in))
	for _, m := range in {
		out = append(out, MonthlyRow{
			StatementID: m.StatementID,
			YearMonth:   m.YearMonth,
			Deposits:    m.Deposits,
			Withdrawals: m.Withdrawals,
			FeesTotal:   m.FeesTotal,
			TransferIn:  m.TransferIn,
			TransferOut: m.TransferOut,
		})
	}
	return out
}

func (r MonthlyRow) summary() domain.MonthlySummary {
	return domain.MonthlySummary{
		StatementID: r.StatementID,
		YearMonth:   r.YearMonth,
		Deposits:    r.Deposits,
		Withdrawals: r.Withdrawals,
		FeesTotal:   r.FeesTotal,
		TransferIn:  r.TransferIn,
		TransferOut: r.TransferOut,
	}
}

func recurringRows(in []domain.RecurringBill) []RecurringRow {
	out := make([]RecurringRow, 0, len(in))
	for _, rb := range in {
		out = append(out, RecurringRow{
			StatementID: rb.StatementID,
			Category:    string(rb.Category),
			AvgAmount:   rb.AvgAmount,
			CountMonths: int64(rb.CountMonths),
		})
	}
	return out
}

func (r RecurringRow) bill() domain.RecurringBill {
	return domain.RecurringBill{
		StatementID: r.StatementID,
		Category:    domain.Category(r.Category),
		AvgAmount:   r.AvgAmount,
		CountMonths: int(r.CountMonths),
	}
}

func loanRows(loan *domain.OutstandingLoan) []LoanRow {
	if loan == nil {
		return []LoanRow{}
	}
	return []LoanRow{{
		StatementID:       loan.StatementID,
		TotalLoanPayments: loan.TotalLoanPayments,
		LoanTxCount:       int64(loan.LoanTxCount),
	}}
}

func (r LoanRow) loan() *domain.OutstandingLoan {
	return &domain.OutstandingLoan{
		StatementID:       r.StatementID,
		TotalLoanPayments: r.TotalLoanPayments,
		LoanTxCount:       int(r.LoanTxCount),
	}
}
