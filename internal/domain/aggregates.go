package domain

// MonthlySummary is one row per (statement, month).
type MonthlySummary struct {
	StatementID string  `json:"statement_id" bson:"statement_id"`
	YearMonth   string  `json:"year_month" bson:"year_month"`
	Deposits    float64 `json:"deposits" bson:"deposits"`
	Withdrawals float64 `json:"withdrawals" bson:"withdrawals"`
	FeesTotal   float64 `json:"fees_total" bson:"fees_total"`
	TransferIn  float64 `json:"transfer_in" bson:"transfer_in"`
	TransferOut float64 `json:"transfer_out" bson:"transfer_out"`
}

// RecurringBill summarizes one recurring category for a statement.
type RecurringBill struct {
	StatementID string   `json:"statement_id" bson:"statement_id"`
	Category    Category `json:"category" bson:"category"`
	AvgAmount   float64  `json:"avg_amount" bson:"avg_amount"`
	CountMonths int      `json:"count_months" bson:"count_months"`
}

// OutstandingLoan totals loan activity for a statement.
type OutstandingLoan struct {
	StatementID       string  `json:"statement_id" bson:"statement_id"`
	TotalLoanPayments float64 `json:"total_loan_payments" bson:"total_loan_payments"`
	LoanTxCount       int     `json:"loan_tx_count" bson:"loan_tx_count"`
}

// Aggregates is the full derived state of one statement. It is always
// written and read as a unit.
type Aggregates struct {
	StatementID string           `json:"statement_id" bson:"_id"`
	Monthly     []MonthlySummary `json:"monthly" bson:"monthly"`
	Recurring   []RecurringBill  `json:"recurring" bson:"recurring"`
	Loan        *OutstandingLoan `json:"loan,omitempty" bson:"loan,omitempty"`
}

// IsEmpty reports whether the aggregates hold no rows at all.
func (a *Aggregates) IsEmpty() bool {
	return a == nil || (len(a.Monthly) == 0 && len(a.Recurring) == 0 && a.Loan == nil)
}
