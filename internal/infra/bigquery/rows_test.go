package bigquery

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/statement-scoring/internal/domain"
)

func TestTransactionRow_Mapping(t *testing.T) {
	tx := domain.Transaction{
		StatementID: "s1",
		Date:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Description: " Landlord ",
		Amount:      -1250.5,
		Direction:   domain.DirectionDebit,
		Category:    domain.CategoryRent,
	}

	row := newTransactionRow(tx, time.Now())

	if row.TxnDate != (civil.Date{Year: 2024, Month: time.March, Day: 15}) {
		t.Errorf("TxnDate = %v", row.TxnDate)
	}
	if row.LedgerKey != "2024-03-15|Landlord|1250.5000" {
		t.Errorf("LedgerKey = %q", row.LedgerKey)
	}
	if f, _ := row.Amount.Float64(); f != -1250.5 {
		t.Errorf("Amount = %v", f)
	}

	back := row.transaction()
	if !back.Date.Equal(tx.Date) || back.Amount != tx.Amount || back.Category != tx.Category || back.Direction != tx.Direction {
		t.Errorf("transaction() = %+v, want %+v", back, tx)
	}
}

func TestLoanRows_NilLoanIsEmptyArray(t *testing.T) {
	rows := loanRows(nil)
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}

	rows = loanRows(&domain.OutstandingLoan{StatementID: "s1", TotalLoanPayments: 300, LoanTxCount: 2})
	if len(rows) != 1 || rows[0].LoanTxCount != 2 || rows[0].loan().TotalLoanPayments != 300 {
		t.Errorf("unexpected rows %#v", rows)
	}
}

func TestRepository_TableRefs(t *testing.T) {
	r := &Repository{projectID: "proj", datasetID: "scoring"}

	if got := r.tableRef(monthlyTable); got != "`proj.scoring.monthly_summary`" {
		t.Errorf("tableRef = %s", got)
	}
	tables := r.tables()
	for _, name := range []string{tables.transactions, tables.monthly, tables.recurring, tables.loans} {
		if !strings.HasPrefix(name, "`proj.scoring.") {
			t.Errorf("unqualified table %s", name)
		}
	}
}
