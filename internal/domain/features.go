package domain

// FeatureNames is the positional order the scaler and classifier were
// trained on. Model artifacts carry the same list and are rejected on mismatch.
var FeatureNames = [NumFeatures]string{
	"avg_monthly_deposits",
	"deposits_stability",
	"avg_monthly_withdrawals",
	"withdrawals_stability",
	"total_fees",
	"total_transfer_in",
	"total_transfer_out",
	"monthly_loan_payment",
	"avg_rent",
	"avg_payroll",
	"deposits_to_withdrawals",
	"monthly_net",
	"fees_ratio",
	"transfer_ratio",
	"rent_to_income",
	"loan_to_income",
	"high_loan_burden",
	"negative_net_income",
	"debt_service_ratio",
}

// NumFeatures is the length of a FeatureVector.
const NumFeatures = 19

// FeatureVector holds the derived risk features of one statement.
type FeatureVector struct {
	AvgMonthlyDeposits    float64 `json:"avg_monthly_deposits"`
	DepositsStability     float64 `json:"deposits_stability"`
	AvgMonthlyWithdrawals float64 `json:"avg_monthly_withdrawals"`
	WithdrawalsStability  float64 `json:"withdrawals_stability"`
	TotalFees             float64 `json:"total_fees"`
	TotalTransferIn       float64 `json:"total_transfer_in"`
	TotalTransferOut      float64 `json:"total_transfer_out"`
	MonthlyLoanPayment    float64 `json:"monthly_loan_payment"`
	AvgRent               float64 `json:"avg_rent"`
	AvgPayroll            float64 `json:"avg_payroll"`
	DepositsToWithdrawals float64 `json:"deposits_to_withdrawals"`
	MonthlyNet            float64 `json:"monthly_net"`
	FeesRatio             float64 `json:"fees_ratio"`
	TransferRatio         float64 `json:"transfer_ratio"`
	RentToIncome          float64 `json:"rent_to_income"`
	LoanToIncome          float64 `json:"loan_to_income"`
	HighLoanBurden        float64 `json:"high_loan_burden"`
	NegativeNetIncome     float64 `json:"negative_net_income"`
	DebtServiceRatio      float64 `json:"debt_service_ratio"`
}

// Values returns the features in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.AvgMonthlyDeposits,
		f.DepositsStability,
		f.AvgMonthlyWithdrawals,
		f.WithdrawalsStability,
		f.TotalFees,
		f.TotalTransferIn,
		f.TotalTransferOut,
		f.MonthlyLoanPayment,
		f.AvgRent,
		f.AvgPayroll,
		f.DepositsToWithdrawals,
		f.MonthlyNet,
		f.FeesRatio,
		f.TransferRatio,
		f.RentToIncome,
		f.LoanToIncome,
		f.HighLoanBurden,
		f.NegativeNetIncome,
		f.DebtServiceRatio,
	}
}

// Named returns the features keyed by name.
func (f FeatureVector) Named() map[string]float64 {
	vals := f.Values()
	out := make(map[string]float64, NumFeatures)
	for i, name := range FeatureNames {
		out[name] = vals[i]
	}
	return out
}

// Snapshot returns the ratio and flag features reported with a decision.
func (f FeatureVector) Snapshot() map[string]float64 {
	return map[string]float64{
		"deposits_to_withdrawals": f.DepositsToWithdrawals,
		"monthly_net":             f.MonthlyNet,
		"fees_ratio":              f.FeesRatio,
		"transfer_ratio":          f.TransferRatio,
		"rent_to_income":          f.RentToIncome,
		"loan_to_income":          f.LoanToIncome,
		"debt_service_ratio":      f.DebtServiceRatio,
		"high_loan_burden":        f.HighLoanBurden,
		"negative_net_income":     f.NegativeNetIncome,
	}
}
