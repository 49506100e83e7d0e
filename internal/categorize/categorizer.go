package categorize

import (
	"strings"

	"github.com/dvloznov/statement-scoring/internal/domain"
)

// RecurringCreditMonths is how many distinct months an unmatched credit
// description must appear in before it is labeled Payroll.
const RecurringCreditMonths = 3

// Categorizer labels ledger transactions. It is immutable and safe for
// concurrent use.
type Categorizer struct {
	rules []Rule
}

// New creates a Categorizer over a copy of rules.
// A nil or empty slice selects DefaultRules.
func New(rules []Rule) *Categorizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	cp := make([]Rule, len(rules))
	for i, r := range rules {
		cp[i] = Rule{Pattern: strings.ToLower(r.Pattern), Category: r.Category}
	}
	return &Categorizer{rules: cp}
}

// Match returns the category of the first rule whose pattern occurs in
// description, or Other.
func (c *Categorizer) Match(description string) domain.Category {
	desc := strings.ToLower(description)
	for _, r := range c.rules {
		if strings.Contains(desc, r.Pattern) {
			return r.Category
		}
	}
	return domain.CategoryOther
}

// Categorize returns a copy of ledger with Category set on every
// transaction. Credits left as Other are relabeled Payroll when the same
// description is credited in at least RecurringCreditMonths months.
func (c *Categorizer) Categorize(ledger []domain.Transaction) []domain.Transaction {
	recurring := recurringCredits(ledger)

	out := make([]domain.Transaction, len(ledger))
	for i, tx := range ledger {
		cat := c.Match(tx.Description)
		if cat == domain.CategoryOther && tx.Direction.IsCredit() {
			if _, ok := recurring[normalize(tx.Description)]; ok {
				cat = domain.CategoryPayroll
			}
		}
		tx.Category = cat
		out[i] = tx
	}
	return out
}

func recurringCredits(ledger []domain.Transaction) map[string]struct{} {
	months := make(map[string]map[string]struct{})
	for _, tx := range ledger {
		if !tx.Direction.IsCredit() {
			continue
		}
		desc := normalize(tx.Description)
		if months[desc] == nil {
			months[desc] = make(map[string]struct{})
		}
		months[desc][tx.YearMonth()] = struct{}{}
	}

	out := make(map[string]struct{})
	for desc, ms := range months {
		if len(ms) >= RecurringCreditMonths {
			out[desc] = struct{}{}
		}
	}
	return out
}

func normalize(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}
