package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/extract"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/dvloznov/statement-scoring/internal/storage"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	StatementID  string
	SourceURI    string
	Lines        []string
	Extraction   *extract.Result
	Transactions []domain.Transaction
	Inserted     int
	Aggregates   *domain.Aggregates
}

// LoadTextStep reads the statement source into lines.
type LoadTextStep struct {
	Loader TextLoader
}

func (s *LoadTextStep) Name() string { return "load_text" }

func (s *LoadTextStep) Execute(ctx context.Context, state *PipelineState) error {
	lines, err := s.Loader.Load(ctx, state.SourceURI)
	if err != nil {
		return err
	}
	state.Lines = lines
	return nil
}

// ExtractStep runs the chunk extractor over the loaded lines.
type ExtractStep struct {
	Extractor TransactionExtractor
}

func (s *ExtractStep) Name() string { return "extract" }

func (s *ExtractStep) Execute(ctx context.Context, state *PipelineState) error {
	res, err := s.Extractor.Extract(ctx, state.StatementID, state.Lines)
	state.Extraction = res
	if err != nil {
		return err
	}
	state.Transactions = res.Transactions
	return nil
}

// CategorizeStep labels the extracted transactions. When Ledger is set the
// already stored rows of the statement are categorized alongside, so the
// recurring-credit fallback sees every month of the statement.
type CategorizeStep struct {
	Categorizer Categorizer
	Ledger      storage.LedgerRepository
}

func (s *CategorizeStep) Name() string { return "categorize" }

func (s *CategorizeStep) Execute(ctx context.Context, state *PipelineState) error {
	batch := state.Transactions
	if s.Ledger != nil {
		stored, err := s.Ledger.ListLedger(ctx, state.StatementID)
		if err != nil {
			return err
		}
		batch = append(append(make([]domain.Transaction, 0, len(stored)+len(batch)), stored...), batch...)
	}
	labeled := s.Categorizer.Categorize(batch)
	state.Transactions = labeled[len(labeled)-len(state.Transactions):]
	return nil
}

// PersistLedgerStep stores the categorized transactions.
type PersistLedgerStep struct {
	Ledger storage.LedgerRepository
}

func (s *PersistLedgerStep) Name() string { return "persist_ledger" }

func (s *PersistLedgerStep) Execute(ctx context.Context, state *PipelineState) error {
	n, err := s.Ledger.InsertLedger(ctx, state.Transactions)
	if err != nil {
		return err
	}
	state.Inserted = n
	return nil
}

// AggregateStep recomputes the statement's aggregates from the full stored
// ledger and replaces whatever was stored before. With a Categorizer the
// ledger is relabeled first; stored rows keep the label they were inserted with.
type AggregateStep struct {
	Ledger      storage.LedgerRepository
	Store       storage.AggregateRepository
	Categorizer Categorizer
	Aggregator  Aggregator
}

func (s *AggregateStep) Name() string { return "aggregate" }

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	ledger, err := s.Ledger.ListLedger(ctx, state.StatementID)
	if err != nil {
		return err
	}
	if len(ledger) == 0 {
		return fmt.Errorf("%s has no stored transactions: %w", state.StatementID, domain.ErrNoTransactionsExtracted)
	}

	if s.Categorizer != nil {
		ledger = s.Categorizer.Categorize(ledger)
	}
	agg := s.Aggregator.Aggregate(state.StatementID, ledger)
	if err := s.Store.ReplaceAggregates(ctx, agg); err != nil {
		return err
	}
	state.Aggregates = agg
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	log := logger.FromContext(ctx)
	for i, step := range p.steps {
		log.Debug().Int("step", i+1).Str("name", step.Name()).Msg("Running pipeline step")
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}
