package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/statement-scoring/internal/api/handlers"
	"github.com/dvloznov/statement-scoring/internal/api/middleware"
	"github.com/dvloznov/statement-scoring/internal/app"
	"github.com/dvloznov/statement-scoring/internal/config"
	"github.com/dvloznov/statement-scoring/internal/healthcheck"
	"github.com/dvloznov/statement-scoring/internal/jobs/inmemory"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/dvloznov/statement-scoring/internal/watch"
)

func main() {
	configPath := flag.String("config", os.Getenv("STATEMENT_SCORING_CONFIG"), "Path to YAML config (or set STATEMENT_SCORING_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load config")
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	ctx := logger.WithContext(context.Background(), log)

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	m, _ := a.Registry.Current()
	log.Info().
		Str("storage", cfg.Storage.Backend).
		Str("provider", cfg.Extraction.Provider).
		Str("model_version", m.Version).
		Msg("Application initialized")

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkers(cfg.Server.Workers))

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, a.Ingestor.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	if cfg.Inbox.Dir != "" {
		poller := watch.NewPoller(cfg.Inbox.Dir, cfg.Inbox.PollInterval, jobQueue)
		go poller.Run(workerCtx)
	}

	var uploader handlers.ObjectUploader
	if a.GCS != nil {
		uploader = a.GCS
	} else {
		log.Warn().Str("upload_dir", cfg.Server.UploadDir).Msg("No GCS bucket configured, storing uploads locally")
	}

	router := &handlers.Router{
		Statements: handlers.NewStatementsHandler(uploader, jobQueue, a.Store, cfg.GCS.Bucket, cfg.Server.UploadDir, log),
		Scores:     handlers.NewScoresHandler(a.Scoring, log),
		Jobs:       handlers.NewJobsHandler(jobStore, log),
		Model:      handlers.NewModelHandler(a.Registry, log),
	}
	mux := http.NewServeMux()
	router.Register(mux)

	handler := middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	health := healthcheck.New(":" + cfg.Server.GRPCPort)
	go func() {
		log.Info().Str("port", cfg.Server.GRPCPort).Msg("Starting gRPC health server")
		if err := health.Start(); err != nil {
			log.Error().Err(err).Msg("gRPC health server stopped")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	health.SetServing(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	health.SetServing(false)
	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	health.Stop()

	log.Info().Msg("Server exited")
}
