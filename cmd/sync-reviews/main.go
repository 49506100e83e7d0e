package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/dvloznov/statement-scoring/internal/app"
	"github.com/dvloznov/statement-scoring/internal/config"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/dvloznov/statement-scoring/internal/notionsync"
)

// sync-reviews mirrors manual_check decisions into a Notion database so
// reviewers can work through them. Statement IDs are positional arguments.
func main() {
	configPath := flag.String("config", os.Getenv("STATEMENT_SCORING_CONFIG"), "Path to YAML config")
	notionToken := flag.String("notion-token", "", "Notion API token (overrides NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (overrides config)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if *notionToken != "" {
		cfg.Notion.Token = *notionToken
	}
	if *notionDBID != "" {
		cfg.Notion.DatabaseID = *notionDBID
	}

	if cfg.Notion.Token == "" {
		log.Fatal().Msg("Error: --notion-token or NOTION_TOKEN is required")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}
	statementIDs := flag.Args()
	if len(statementIDs) == 0 {
		log.Fatal().Msg("Usage: sync-reviews [flags] STATEMENT_ID...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Int("statements", len(statementIDs)).
		Bool("dry_run", *dryRun).
		Msg("Starting review sync")

	a, err := app.NewScoring(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scoring")
	}
	defer a.Close()

	syncer := notionsync.NewSyncer(notionsync.NewClient(cfg.Notion.Token), cfg.Notion.DatabaseID, *dryRun)
	stats, err := syncer.Sync(ctx, a.Scoring, statementIDs)
	if err != nil {
		log.Fatal().Err(err).Msg("Review sync failed")
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("Review sync completed")
}
