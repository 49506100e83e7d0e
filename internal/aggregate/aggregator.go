package aggregate

import (
	"sort"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/shopspring/decimal"
)

// Aggregator folds a statement ledger into monthly, recurring and loan
// aggregates. It is stateless apart from its options.
type Aggregator struct {
	includeOther bool
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithIncludeOther counts Other-category credits as deposits and
// Other-category debits as withdrawals. Off by default.
func WithIncludeOther(include bool) Option {
	return func(a *Aggregator) {
		a.includeOther = include
	}
}

// New creates an Aggregator.
func New(opts ...Option) *Aggregator {
	a := &Aggregator{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type monthSums struct {
	deposits, withdrawals, fees, transferIn, transferOut decimal.Decimal
}

// Aggregate computes the full aggregate set for one statement. Transactions
// belonging to other statements are ignored. An empty ledger produces
// aggregates with no rows at all.
//
// Deposits, withdrawals and fees sum magnitudes; transfer in/out sum the raw
// signed amounts as extracted.
func (a *Aggregator) Aggregate(statementID string, ledger []domain.Transaction) *domain.Aggregates {
	out := &domain.Aggregates{StatementID: statementID}

	months := make(map[string]*monthSums)
	// category -> month -> total
	recurring := make(map[domain.Category]map[string]decimal.Decimal)
	loanTotal := decimal.Zero
	loanCount := 0
	seen := 0

	for _, tx := range ledger {
		if tx.StatementID != statementID {
			continue
		}
		seen++

		ym := tx.YearMonth()
		m, ok := months[ym]
		if !ok {
			m = &monthSums{}
			months[ym] = m
		}

		mag := decimal.NewFromFloat(tx.Magnitude())
		raw := decimal.NewFromFloat(tx.Amount)
		credit := tx.Direction.IsCredit()

		switch tx.Category {
		case domain.CategoryTransfer:
			if credit {
				m.transferIn = m.transferIn.Add(raw)
			} else {
				m.transferOut = m.transferOut.Add(raw)
			}
		case domain.CategoryFees:
			if !credit {
				m.fees = m.fees.Add(mag)
			} else {
				m.deposits = m.deposits.Add(mag)
			}
		case domain.CategoryRent, domain.CategoryPayroll, domain.CategoryUtilities, domain.CategoryLoan:
			m.addFlow(credit, mag)
		case domain.CategoryOther:
			if a.includeOther {
				m.addFlow(credit, mag)
			}
		}

		if tx.Category.IsRecurring() {
			if recurring[tx.Category] == nil {
				recurring[tx.Category] = make(map[string]decimal.Decimal)
			}
			recurring[tx.Category][ym] = recurring[tx.Category][ym].Add(mag)
		}

		if tx.Category == domain.CategoryLoan {
			loanTotal = loanTotal.Add(mag)
			loanCount++
		}
	}

	if seen == 0 {
		return out
	}

	out.Monthly = monthlyRows(statementID, months)
	out.Recurring = recurringRows(statementID, recurring)
	out.Loan = &domain.OutstandingLoan{
		StatementID:       statementID,
		TotalLoanPayments: loanTotal.InexactFloat64(),
		LoanTxCount:       loanCount,
	}
	return out
}

func (m *monthSums) addFlow(credit bool, mag decimal.Decimal) {
	if credit {
		m.deposits = m.deposits.Add(mag)
	} else {
		m.withdrawals = m.withdrawals.Add(mag)
	}
}

func monthlyRows(statementID string, months map[string]*monthSums) []domain.MonthlySummary {
	keys := make([]string, 0, len(months))
	for ym := range months {
		keys = append(keys, ym)
	}
	sort.Strings(keys)

	rows := make([]domain.MonthlySummary, 0, len(keys))
	for _, ym := range keys {
		m := months[ym]
		rows = append(rows, domain.MonthlySummary{
			StatementID: statementID,
			YearMonth:   ym,
			Deposits:    m.deposits.InexactFloat64(),
			Withdrawals: m.withdrawals.InexactFloat64(),
			FeesTotal:   m.fees.InexactFloat64(),
			TransferIn:  m.transferIn.InexactFloat64(),
			TransferOut: m.transferOut.InexactFloat64(),
		})
	}
	return rows
}

// recurringRows averages the non-zero monthly totals of each recurring
// category, rounded to cents. Categories without such a month yield no row.
func recurringRows(statementID string, recurring map[domain.Category]map[string]decimal.Decimal) []domain.RecurringBill {
	var rows []domain.RecurringBill
	for _, cat := range domain.RecurringCategories {
		byMonth := recurring[cat]

		sum := decimal.Zero
		n := 0
		for _, total := range byMonth {
			if total.IsZero() {
				continue
			}
			sum = sum.Add(total)
			n++
		}
		if n == 0 {
			continue
		}

		rows = append(rows, domain.RecurringBill{
			StatementID: statementID,
			Category:    cat,
			AvgAmount:   sum.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64(),
			CountMonths: n,
		})
	}
	return rows
}
