// Package features turns a statement's aggregates into the fixed-order
// feature vector consumed by the risk model.
package features

import (
	"fmt"
	"math"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/montanaflynn/stats"
)

// Smoothing is added to income and deposit denominators so ratios stay
// bounded for statements with little or no income.
const Smoothing = 1.0

// HighLoanBurdenThreshold is the loan_to_income level above which the
// high_loan_burden flag is raised.
const HighLoanBurdenThreshold = 0.5

// DeriveAggregates is Derive over a stored aggregate set.
func DeriveAggregates(agg *domain.Aggregates) (domain.FeatureVector, error) {
	if agg == nil {
		return domain.FeatureVector{}, fmt.Errorf("DeriveAggregates: %w: no aggregates", domain.ErrInsufficientData)
	}
	return Derive(agg.Monthly, agg.Recurring, agg.Loan)
}

// Derive computes the feature vector from one statement's monthly rows,
// recurring bills and loan totals. It fails with domain.ErrInsufficientData
// when there are no monthly rows or the rows are malformed.
func Derive(monthly []domain.MonthlySummary, recurring []domain.RecurringBill, loan *domain.OutstandingLoan) (domain.FeatureVector, error) {
	if err := checkMonthly(monthly); err != nil {
		return domain.FeatureVector{}, fmt.Errorf("Derive: %w", err)
	}

	n := float64(len(monthly))
	deposits := make(stats.Float64Data, len(monthly))
	withdrawals := make(stats.Float64Data, len(monthly))
	fees := make(stats.Float64Data, len(monthly))
	transferIn := make(stats.Float64Data, len(monthly))
	transferOut := make(stats.Float64Data, len(monthly))
	for i, m := range monthly {
		deposits[i] = m.Deposits
		withdrawals[i] = m.Withdrawals
		fees[i] = m.FeesTotal
		transferIn[i] = m.TransferIn
		transferOut[i] = m.TransferOut
	}

	// stats only errors on empty input, which checkMonthly rules out.
	avgDeposits, _ := deposits.Mean()
	depositsStd, _ := deposits.StandardDeviationPopulation()
	avgWithdrawals, _ := withdrawals.Mean()
	withdrawalsStd, _ := withdrawals.StandardDeviationPopulation()
	totalDeposits, _ := deposits.Sum()
	totalWithdrawals, _ := withdrawals.Sum()
	totalFees, _ := fees.Sum()
	totalTransferIn, _ := transferIn.Sum()
	totalTransferOut, _ := transferOut.Sum()

	var totalLoan float64
	if loan != nil {
		totalLoan = loan.TotalLoanPayments
	}
	monthlyLoan := 0.0
	if totalLoan != 0 {
		monthlyLoan = math.Abs(totalLoan) / n
	}

	avgRent := recurringAvg(recurring, domain.CategoryRent)
	avgPayroll := recurringAvg(recurring, domain.CategoryPayroll)

	depositsToWithdrawals := 1.0
	if totalWithdrawals != 0 {
		depositsToWithdrawals = totalDeposits / totalWithdrawals
	}

	monthlyNet := (totalDeposits - totalWithdrawals) / n

	feesRatio := 0.0
	if totalDeposits != 0 {
		feesRatio = totalFees / totalDeposits
	}

	// Transfer signs are unreliable in source data, so the ratio compares
	// magnitudes while total_transfer_in/out stay raw.
	transferRatio := (math.Abs(totalTransferIn) - math.Abs(totalTransferOut)) / (totalDeposits + Smoothing)

	income := 0.0
	if avgDeposits > 0 {
		income = avgDeposits
	}
	rentToIncome := avgRent / (income + Smoothing)
	loanToIncome := monthlyLoan / (income + Smoothing)
	debtService := (monthlyLoan + avgRent) / (income + Smoothing)

	return domain.FeatureVector{
		AvgMonthlyDeposits:    avgDeposits,
		DepositsStability:     depositsStd,
		AvgMonthlyWithdrawals: avgWithdrawals,
		WithdrawalsStability:  withdrawalsStd,
		TotalFees:             totalFees,
		TotalTransferIn:       totalTransferIn,
		TotalTransferOut:      totalTransferOut,
		MonthlyLoanPayment:    monthlyLoan,
		AvgRent:               avgRent,
		AvgPayroll:            avgPayroll,
		DepositsToWithdrawals: depositsToWithdrawals,
		MonthlyNet:            monthlyNet,
		FeesRatio:             feesRatio,
		TransferRatio:         transferRatio,
		RentToIncome:          rentToIncome,
		LoanToIncome:          loanToIncome,
		HighLoanBurden:        flag(loanToIncome > HighLoanBurdenThreshold),
		NegativeNetIncome:     flag(monthlyNet < 0),
		DebtServiceRatio:      debtService,
	}, nil
}

func checkMonthly(monthly []domain.MonthlySummary) error {
	if len(monthly) == 0 {
		return fmt.Errorf("%w: no monthly summary rows", domain.ErrInsufficientData)
	}
	seen := make(map[string]struct{}, len(monthly))
	for _, m := range monthly {
		if _, dup := seen[m.YearMonth]; dup {
			return fmt.Errorf("%w: duplicate month %s", domain.ErrInsufficientData, m.YearMonth)
		}
		seen[m.YearMonth] = struct{}{}
		for _, v := range []float64{m.Deposits, m.Withdrawals, m.FeesTotal, m.TransferIn, m.TransferOut} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: non-finite value in month %s", domain.ErrInsufficientData, m.YearMonth)
			}
		}
	}
	return nil
}

func recurringAvg(rows []domain.RecurringBill, cat domain.Category) float64 {
	for _, rb := range rows {
		if rb.Category == cat {
			return rb.AvgAmount
		}
	}
	return 0
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
