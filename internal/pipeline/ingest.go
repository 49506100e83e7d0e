// Package pipeline wires the statement ingestion steps together:
// load text, extract, categorize, persist the ledger and re-aggregate.
package pipeline

import (
	"context"
	"time"

	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/dvloznov/statement-scoring/internal/storage"
)

// Dependencies bundles what the ingestion steps need.
type Dependencies struct {
	Loader      TextLoader
	Extractor   TransactionExtractor
	Categorizer Categorizer
	Aggregator  Aggregator
	Store       storage.Store
}

// Ingestor runs the ingestion pipeline. Runs for the same statement are
// serialized so aggregate replacement never interleaves.
type Ingestor struct {
	ingest    *Pipeline
	aggregate *Pipeline
	locks     *KeyedMutex
}

// NewIngestor builds the standard five-step ingestion pipeline.
func NewIngestor(deps Dependencies) *Ingestor {
	aggregateStep := &AggregateStep{
		Ledger:      deps.Store,
		Store:       deps.Store,
		Categorizer: deps.Categorizer,
		Aggregator:  deps.Aggregator,
	}
	return &Ingestor{
		ingest: NewPipeline(
			&LoadTextStep{Loader: deps.Loader},
			&ExtractStep{Extractor: deps.Extractor},
			&CategorizeStep{Categorizer: deps.Categorizer, Ledger: deps.Store},
			&PersistLedgerStep{Ledger: deps.Store},
			aggregateStep,
		),
		aggregate: NewPipeline(aggregateStep),
		locks:     NewKeyedMutex(),
	}
}

// Ingest processes one statement source end to end.
func (i *Ingestor) Ingest(ctx context.Context, statementID, sourceURI string) (*PipelineState, error) {
	ctx = logger.WithStatement(ctx, statementID)
	log := logger.FromContext(ctx)

	unlock := i.locks.Lock(statementID)
	defer unlock()

	start := time.Now()
	state := &PipelineState{StatementID: statementID, SourceURI: sourceURI}
	if err := i.ingest.Execute(ctx, state); err != nil {
		log.Error().Err(err).Str("source", sourceURI).Msg("Statement ingestion failed")
		return state, err
	}

	log.Info().
		Str("source", sourceURI).
		Int("lines", len(state.Lines)).
		Int("transactions", len(state.Transactions)).
		Int("inserted", state.Inserted).
		Int("months", len(state.Aggregates.Monthly)).
		Dur("took", time.Since(start)).
		Msg("Statement ingested")
	return state, nil
}

// Reaggregate rebuilds a statement's aggregates from its stored ledger.
func (i *Ingestor) Reaggregate(ctx context.Context, statementID string) (*PipelineState, error) {
	ctx = logger.WithStatement(ctx, statementID)

	unlock := i.locks.Lock(statementID)
	defer unlock()

	state := &PipelineState{StatementID: statementID}
	if err := i.aggregate.Execute(ctx, state); err != nil {
		return state, err
	}
	log := logger.FromContext(ctx)
	log.Info().Int("months", len(state.Aggregates.Monthly)).Msg("Statement re-aggregated")
	return state, nil
}
