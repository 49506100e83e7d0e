package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/statement-scoring/internal/app"
	"github.com/dvloznov/statement-scoring/internal/config"
	"github.com/dvloznov/statement-scoring/internal/jobs/inmemory"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/dvloznov/statement-scoring/internal/watch"
)

// The worker watches an inbox directory and ingests every statement
// dropped into it. It has no HTTP surface.
func main() {
	configPath := flag.String("config", os.Getenv("STATEMENT_SCORING_CONFIG"), "Path to YAML config")
	inbox := flag.String("inbox", "", "Inbox directory to watch (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New()
		boot.Fatal().Err(err).Msg("Failed to load config")
	}
	if *inbox != "" {
		cfg.Inbox.Dir = *inbox
	}

	log := logger.NewWithLevel(cfg.Log.Level)
	if cfg.Inbox.Dir == "" {
		log.Fatal().Msg("An inbox directory is required: set -inbox or STATEMENT_SCORING_INBOX")
	}

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer a.Close()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkers(cfg.Server.Workers))
	if err := jobQueue.Start(ctx, a.Ingestor.HandleJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	poller := watch.NewPoller(cfg.Inbox.Dir, cfg.Inbox.PollInterval, jobQueue)
	go poller.Run(ctx)

	log.Info().Str("inbox", cfg.Inbox.Dir).Msg("Worker service started, waiting for statements...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	log.Info().Msg("Worker service exited")
}
