// Package app builds the shared runtime graph (storage backend, extractor,
// ingestion pipeline, model registry, scoring service) from a Config.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/statement-scoring/internal/aggregate"
	"github.com/dvloznov/statement-scoring/internal/categorize"
	"github.com/dvloznov/statement-scoring/internal/config"
	"github.com/dvloznov/statement-scoring/internal/decision"
	"github.com/dvloznov/statement-scoring/internal/extract"
	"github.com/dvloznov/statement-scoring/internal/gcsuploader"
	infraBQ "github.com/dvloznov/statement-scoring/internal/infra/bigquery"
	"github.com/dvloznov/statement-scoring/internal/infra/memory"
	"github.com/dvloznov/statement-scoring/internal/infra/mongo"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/dvloznov/statement-scoring/internal/pipeline"
	"github.com/dvloznov/statement-scoring/internal/scoring"
	"github.com/dvloznov/statement-scoring/internal/storage"
	"github.com/dvloznov/statement-scoring/internal/textsource"
)

// App holds the long-lived components shared by the binaries.
type App struct {
	Config   *config.Config
	Store    storage.Store
	GCS      *gcsuploader.Client
	Ingestor *pipeline.Ingestor
	Registry *decision.Registry
	Scoring  *scoring.Service
}

// NewStore opens the configured storage backend.
func NewStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return memory.NewStore(), nil
	case "bigquery":
		repo, err := infraBQ.NewRepository(ctx, cfg.ProjectID, cfg.DatasetID)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case "mongo":
		client, err := mongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return mongo.NewRepository(mongo.NewProvider(client, cfg.MongoDatabase), client), nil
	default:
		return nil, fmt.Errorf("NewStore: unsupported backend %q", cfg.Backend)
	}
}

// NewScoring builds the read side only: storage, model registry and
// scoring service. It needs no model-provider credentials.
func NewScoring(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := NewStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("app: opening %s store: %w", cfg.Storage.Backend, err)
	}

	registry, err := decision.NewRegistry(cfg.Model.ArtifactPath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("app: loading model: %w", err)
	}

	return &App{
		Config:   cfg,
		Store:    store,
		Registry: registry,
		Scoring:  scoring.NewService(store, decision.NewEngine(registry)),
	}, nil
}

// New builds the full graph including the ingestion pipeline.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.FromContext(ctx)

	a, err := NewScoring(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var fetcher textsource.Fetcher
	if cfg.GCS.Bucket != "" {
		a.GCS, err = gcsuploader.NewClient(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
		fetcher = a.GCS
	}

	var transcriber textsource.PDFTranscriber
	if cfg.Extraction.Provider == "gemini" {
		t, err := textsource.NewGeminiTranscriber(ctx, cfg.Extraction.Model)
		if err != nil {
			log.Warn().Err(err).Msg("PDF transcription disabled")
		} else {
			transcriber = t
		}
	}

	client, err := extract.NewModelClient(ctx, extract.ProviderConfig{
		Provider: cfg.Extraction.Provider,
		Model:    cfg.Extraction.Model,
		APIKey:   cfg.Extraction.OpenAIAPIKey,
		BaseURL:  cfg.Extraction.OpenAIBaseURL,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: %w", err)
	}
	extractor, err := extract.NewExtractor(client, extract.Options{
		Window:            cfg.Extraction.Window,
		Overlap:           cfg.Extraction.Overlap,
		Concurrency:       cfg.Extraction.Concurrency,
		WindowTimeout:     cfg.Extraction.WindowTimeout,
		RequestsPerSecond: cfg.Extraction.RequestsPerSecond,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app: %w", err)
	}

	rules := categorize.DefaultRules
	if cfg.Categorize.RulesPath != "" {
		rules, err = categorize.LoadRules(cfg.Categorize.RulesPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("app: %w", err)
		}
	}

	a.Ingestor = pipeline.NewIngestor(pipeline.Dependencies{
		Loader:      textsource.NewLoader(fetcher, transcriber),
		Extractor:   extractor,
		Categorizer: categorize.New(rules),
		Aggregator:  aggregate.New(aggregate.WithIncludeOther(cfg.Aggregation.IncludeOther)),
		Store:       a.Store,
	})
	return a, nil
}

// Close releases the storage backend and object store client.
func (a *App) Close() error {
	if a.GCS != nil {
		a.GCS.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
