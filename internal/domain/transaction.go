package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// DateLayout is the only accepted transaction date format (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// MonthLayout is the year-month bucket format used by aggregates.
const MonthLayout = "2006-01"

// Direction tells whether money entered or left the account.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// ParseDirection maps the extractor's "type" field onto a Direction.
// Anything other than "credit" is treated as a debit.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(DirectionCredit)) {
		return DirectionCredit
	}
	return DirectionDebit
}

// IsCredit reports whether the direction is a credit.
func (d Direction) IsCredit() bool {
	return d == DirectionCredit
}

// Category is the weak label attached to each transaction before aggregation.
type Category string

const (
	CategoryRent      Category = "Rent"
	CategoryPayroll   Category = "Payroll"
	CategoryUtilities Category = "Utilities"
	CategoryFees      Category = "Fees"
	CategoryTransfer  Category = "Transfer"
	CategoryLoan      Category = "Loan"
	CategoryOther     Category = "Other"
)

// RecurringCategories are the categories summarized into RecurringBill rows,
// in the order rows are emitted.
var RecurringCategories = []Category{
	CategoryRent,
	CategoryPayroll,
	CategoryUtilities,
	CategoryLoan,
	CategoryFees,
}

// IsRecurring reports whether c is one of RecurringCategories.
func (c Category) IsRecurring() bool {
	for _, rc := range RecurringCategories {
		if c == rc {
			return true
		}
	}
	return false
}

// Transaction is one normalized ledger row for a statement.
// Amount is kept as extracted; its sign is not reliable, so consumers
// use Magnitude together with Direction.
type Transaction struct {
	StatementID string    `json:"statement_id"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Direction   Direction `json:"direction"`
	Category    Category  `json:"category"`
}

// Magnitude returns |Amount|.
func (t Transaction) Magnitude() float64 {
	return math.Abs(t.Amount)
}

// YearMonth returns the month bucket of the transaction date, e.g. "2024-03".
func (t Transaction) YearMonth() string {
	return t.Date.Format(MonthLayout)
}

// Key returns the ledger uniqueness key.
func (t Transaction) Key() LedgerKey {
	return NewLedgerKey(t.Date.Format(DateLayout), t.Description, t.Amount)
}

// LedgerKey identifies a transaction within one statement:
// (date, trimmed description, absolute amount).
type LedgerKey struct {
	Date        string
	Description string
	Amount      float64
}

// NewLedgerKey builds a normalized LedgerKey.
func NewLedgerKey(date, description string, amount float64) LedgerKey {
	return LedgerKey{
		Date:        date,
		Description: strings.TrimSpace(description),
		Amount:      math.Abs(amount),
	}
}

// String renders the key in a stable form usable as a storage identifier.
func (k LedgerKey) String() string {
	return fmt.Sprintf("%s|%s|%.4f", k.Date, k.Description, k.Amount)
}
