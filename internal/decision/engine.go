// Package decision maps a feature vector to a three-way credit decision
// using an externally fitted scaler and classifier.
package decision

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/logger"
)

const (
	ApproveThreshold = 0.75
	DeclineThreshold = 0.25
	// LeanThreshold splits manual checks into an approve or decline suggestion.
	LeanThreshold = 0.5
	// ImportanceFactor scales the reported confidence. It is 1 until a
	// calibration step exists.
	ImportanceFactor = 1.0
)

// Engine applies the threshold policy on top of a model registry.
type Engine struct {
	registry *Registry
}

// NewEngine creates an Engine reading models from registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Decide scores fv with the current model. It never returns an error:
// any failure becomes a record with StatusError.
func (e *Engine) Decide(ctx context.Context, fv domain.FeatureVector) domain.DecisionRecord {
	m, err := e.registry.Current()
	if err != nil {
		return ErrorRecord(fmt.Errorf("%w: %v", domain.ErrScoringError, err))
	}
	rec := Decide(fv, m.Scaler, m.Classifier)
	rec.ModelVersion = m.Version

	log := logger.FromContext(ctx)
	if rec.IsError() {
		log.Error().Str("model_version", m.Version).Str("error", rec.Error).Msg("Scoring failed")
	} else {
		log.Info().
			Str("model_version", m.Version).
			Str("status", string(rec.Status)).
			Float64("confidence", *rec.Confidence).
			Msg("Decision made")
	}
	return rec
}

// Decide is the stateless policy: scale, classify, then threshold.
// Panics from the scaler or classifier are recovered into an error record.
func Decide(fv domain.FeatureVector, scaler Scaler, classifier Classifier) (rec domain.DecisionRecord) {
	defer func() {
		if r := recover(); r != nil {
			rec = ErrorRecord(fmt.Errorf("%w: panic: %v", domain.ErrScoringError, r))
		}
	}()

	scaled, err := scaler.Transform(fv.Values())
	if err != nil {
		return ErrorRecord(fmt.Errorf("%w: scaling: %v", domain.ErrScoringError, err))
	}
	prob, err := classifier.PredictProbability(scaled)
	if err != nil {
		return ErrorRecord(fmt.Errorf("%w: classification: %v", domain.ErrScoringError, err))
	}

	rec = domain.DecisionRecord{FeatureSnapshot: fv.Snapshot()}
	switch {
	case prob >= ApproveThreshold:
		rec.Status = domain.StatusApprove
		rec.DecisionLabel = "Approved"
	case prob <= DeclineThreshold:
		rec.Status = domain.StatusDecline
		rec.DecisionLabel = "Declined"
	default:
		rec.Status = domain.StatusManualCheck
		rec.Suggested = domain.StatusDecline
		if prob >= LeanThreshold {
			rec.Suggested = domain.StatusApprove
		}
		rec.DecisionLabel = fmt.Sprintf("Manual review (leaning %s)", rec.Suggested)
	}
	conf := Confidence(prob)
	rec.Confidence = &conf
	return rec
}

// Confidence clamps p to [0,1], applies ImportanceFactor and rounds to two
// decimal places. Rounding is applied to the exact binary value with ties to
// even, so 0.125 becomes 0.12 and 0.745 (stored just below) becomes 0.74.
// The status is decided on the unrounded probability: a manual_check just
// under ApproveThreshold may still report 0.75.
func Confidence(p float64) float64 {
	p *= ImportanceFactor
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	f, _ := strconv.ParseFloat(strconv.FormatFloat(p, 'f', 2, 64), 64)
	return f
}

// ErrorRecord builds the in-band failure record.
func ErrorRecord(err error) domain.DecisionRecord {
	return domain.DecisionRecord{
		Status:        domain.StatusError,
		DecisionLabel: "Scoring error",
		Error:         err.Error(),
	}
}
