package categorize

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dvloznov/statement-scoring/internal/domain"
)

func tx(date, desc string, dir domain.Direction) domain.Transaction {
	d, _ := time.Parse(domain.DateLayout, date)
	return domain.Transaction{StatementID: "s1", Date: d, Description: desc, Amount: 100, Direction: dir}
}

func TestMatch(t *testing.T) {
	c := New(nil)

	tests := []struct {
		desc string
		want domain.Category
	}{
		{"Monthly RENT Oak Apartments", domain.CategoryRent},
		{"ACME PAYROLL MAR", domain.CategoryPayroll},
		{"Tata Power bill", domain.CategoryUtilities},
		{"Monthly account fee", domain.CategoryFees},
		{"Transfer to savings", domain.CategoryTransfer},
		{"Home loan EMI", domain.CategoryLoan},
		{"Interest charged", domain.CategoryLoan},
		{"Coffee shop", domain.CategoryOther},
		{"", domain.CategoryOther},
		// first match wins: "rent" precedes "transfer"
		{"Transfer for rent", domain.CategoryRent},
		// "current" contains "rent", which precedes the Fees patterns
		{"Current account fee", domain.CategoryRent},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := c.Match(tt.desc); got != tt.want {
				t.Errorf("Match(%q) = %s, want %s", tt.desc, got, tt.want)
			}
		})
	}
}

func TestCategorize_RecurringCreditBecomesPayroll(t *testing.T) {
	c := New(nil)
	ledger := []domain.Transaction{
		tx("2024-01-28", "ACME CORP", domain.DirectionCredit),
		tx("2024-02-28", "acme corp ", domain.DirectionCredit),
		tx("2024-03-28", "ACME CORP", domain.DirectionCredit),
		tx("2024-01-05", "Side gig", domain.DirectionCredit),
		tx("2024-02-05", "Side gig", domain.DirectionCredit),
		tx("2024-01-10", "Netflix", domain.DirectionDebit),
		tx("2024-02-10", "Netflix", domain.DirectionDebit),
		tx("2024-03-10", "Netflix", domain.DirectionDebit),
	}

	got := c.Categorize(ledger)

	want := []domain.Category{
		domain.CategoryPayroll, domain.CategoryPayroll, domain.CategoryPayroll,
		domain.CategoryOther, domain.CategoryOther,
		domain.CategoryOther, domain.CategoryOther, domain.CategoryOther,
	}
	for i := range want {
		if got[i].Category != want[i] {
			t.Errorf("tx %d (%q): got %s, want %s", i, got[i].Description, got[i].Category, want[i])
		}
	}
	if ledger[0].Category != "" {
		t.Error("Categorize must not modify its input")
	}
}

func TestCategorize_KeywordBeatsRecurringFallback(t *testing.T) {
	c := New(nil)
	ledger := []domain.Transaction{
		tx("2024-01-01", "Transfer from savings", domain.DirectionCredit),
		tx("2024-02-01", "Transfer from savings", domain.DirectionCredit),
		tx("2024-03-01", "Transfer from savings", domain.DirectionCredit),
	}

	for _, got := range c.Categorize(ledger) {
		if got.Category != domain.CategoryTransfer {
			t.Errorf("got %s, want Transfer", got.Category)
		}
	}
}

func TestParseRules(t *testing.T) {
	data := []byte(`
categories:
  - name: Loan
    keywords: [mortgage, " EMI "]
  - name: Rent
    keywords: [mortgage rent]
`)
	rules, err := ParseRules(data)
	if err != nil {
		t.Fatalf("ParseRules() error = %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	if rules[1].Pattern != "emi" {
		t.Errorf("expected keyword to be trimmed and lower-cased, got %q", rules[1].Pattern)
	}

	c := New(rules)
	if got := c.Match("Mortgage rent payment"); got != domain.CategoryLoan {
		t.Errorf("expected file order precedence, got %s", got)
	}
}

func TestParseRules_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown category", "categories:\n  - name: Groceries\n    keywords: [tesco]\n"},
		{"no keywords", "categories:\n  - name: Rent\n    keywords: []\n"},
		{"invalid yaml", "categories: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseRules([]byte(tt.data)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("categories:\n  - name: Fees\n    keywords: [overdraft]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if len(rules) != 1 || rules[0].Category != domain.CategoryFees {
		t.Errorf("unexpected rules: %+v", rules)
	}
}

func TestLoadRules_ShippedExample(t *testing.T) {
	rules, err := LoadRules(filepath.Join("..", "..", "configs", "rules.example.yaml"))
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	c := New(rules)
	if got := c.Match("MONTHLY RENT PAYMENT"); got != domain.CategoryRent {
		t.Errorf("Match(rent) = %s, want Rent", got)
	}
	if got := c.Match("CAR LOAN EMI"); got != domain.CategoryLoan {
		t.Errorf("Match(loan) = %s, want Loan", got)
	}
}
