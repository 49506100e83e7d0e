package scoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/statement-scoring/internal/decision"
	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/features"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/dvloznov/statement-scoring/internal/storage"
)

// Decider turns a feature vector into a decision record.
type Decider interface {
	Decide(ctx context.Context, fv domain.FeatureVector) domain.DecisionRecord
}

// Service answers read-side questions about an ingested statement.
type Service struct {
	aggregates storage.AggregateRepository
	decider    Decider
}

// NewService creates a scoring Service.
func NewService(aggregates storage.AggregateRepository, decider Decider) *Service {
	return &Service{aggregates: aggregates, decider: decider}
}

// Score returns the credit decision for a statement. A statement without
// monthly rows is domain.ErrStatementNotFound; every other failure is
// reported in-band as a record with status error.
func (s *Service) Score(ctx context.Context, statementID string) (domain.DecisionRecord, error) {
	ctx = logger.WithStatement(ctx, statementID)
	log := logger.FromContext(ctx)

	agg, err := s.aggregates.GetAggregates(ctx, statementID)
	if err != nil {
		return domain.DecisionRecord{}, fmt.Errorf("Score: %w", err)
	}
	if len(agg.Monthly) == 0 {
		return domain.DecisionRecord{}, fmt.Errorf("Score: %s has no monthly rows: %w", statementID, domain.ErrStatementNotFound)
	}

	fv, err := features.DeriveAggregates(agg)
	if err != nil {
		log.Warn().Err(err).Msg("Feature derivation failed")
		rec := decision.ErrorRecord(err)
		rec.StatementID = statementID
		return rec, nil
	}

	rec := s.decider.Decide(ctx, fv)
	rec.StatementID = statementID
	return rec, nil
}

// Monthly returns the monthly summary rows of a statement.
func (s *Service) Monthly(ctx context.Context, statementID string) ([]domain.MonthlySummary, error) {
	agg, err := s.aggregates.GetAggregates(ctx, statementID)
	if err != nil {
		return nil, fmt.Errorf("Monthly: %w", err)
	}
	return nonNil(agg.Monthly), nil
}

// Recurring returns the recurring bill rows of a statement.
func (s *Service) Recurring(ctx context.Context, statementID string) ([]domain.RecurringBill, error) {
	agg, err := s.aggregates.GetAggregates(ctx, statementID)
	if err != nil {
		return nil, fmt.Errorf("Recurring: %w", err)
	}
	return nonNil(agg.Recurring), nil
}

// Loans returns a statement's loan totals. A statement that exists but has
// no loan row reports zero values.
func (s *Service) Loans(ctx context.Context, statementID string) (domain.OutstandingLoan, error) {
	agg, err := s.aggregates.GetAggregates(ctx, statementID)
	if err != nil {
		return domain.OutstandingLoan{}, fmt.Errorf("Loans: %w", err)
	}
	if agg.Loan == nil {
		return domain.OutstandingLoan{StatementID: statementID}, nil
	}
	return *agg.Loan, nil
}

// IsNotFound reports whether err is a statement lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, domain.ErrStatementNotFound)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
