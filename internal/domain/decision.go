package domain

// DecisionStatus is the outcome of one scoring call.
type DecisionStatus string

const (
	StatusApprove     DecisionStatus = "approve"
	StatusDecline     DecisionStatus = "decline"
	StatusManualCheck DecisionStatus = "manual_check"
	StatusError       DecisionStatus = "error"
)

// DecisionRecord is the caller-facing scoring result. It is created once
// per scoring call and never mutated afterwards.
type DecisionRecord struct {
	StatementID     string             `json:"statement_id,omitempty"`
	Status          DecisionStatus     `json:"status"`
	DecisionLabel   string             `json:"decision"`
	Suggested       DecisionStatus     `json:"suggested,omitempty"`
	Confidence      *float64           `json:"confidence"`
	FeatureSnapshot map[string]float64 `json:"feature_values,omitempty"`
	Error           string             `json:"error,omitempty"`
	ModelVersion    string             `json:"model_version,omitempty"`
}

// IsError reports whether scoring failed for an existing statement.
func (r DecisionRecord) IsError() bool {
	return r.Status == StatusError
}
