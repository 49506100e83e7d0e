// Package notionsync mirrors manual-review decisions into a Notion database
// so that analysts can work through them.
package notionsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/jomei/notionapi"
)

// Stats counts what a sync run did.
type Stats struct {
	Created  int
	Updated  int
	Archived int
	Skipped  int
	Failed   int
}

// Syncer keeps a Notion review board in line with current decisions.
type Syncer struct {
	notion     NotionService
	databaseID string
	dryRun     bool
	now        func() time.Time
}

// NewSyncer creates a Syncer writing to databaseID.
func NewSyncer(notion NotionService, databaseID string, dryRun bool) *Syncer {
	return &Syncer{notion: notion, databaseID: databaseID, dryRun: dryRun, now: time.Now}
}

// Sync scores each statement and reconciles the board:
// manual_check decisions are created or updated, and statements whose
// decision is no longer manual_check have their page archived.
// Statements that cannot be scored are counted as failed and left alone.
func (s *Syncer) Sync(ctx context.Context, source DecisionSource, statementIDs []string) (Stats, error) {
	log := logger.FromContext(ctx)
	var stats Stats

	pages, err := queryAllPages(ctx, s.notion, s.databaseID)
	if err != nil {
		return stats, fmt.Errorf("Sync: %w", err)
	}
	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		if id := statementIDOf(page); id != "" {
			existing[id] = string(page.ID)
		}
	}
	log.Info().Int("pages", len(pages)).Int("statements", len(statementIDs)).Bool("dry_run", s.dryRun).Msg("Starting review sync")

	for _, id := range statementIDs {
		rec, err := source.Score(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrStatementNotFound) {
				log.Warn().Str("statement_id", id).Msg("Statement not found, skipping")
				stats.Skipped++
				continue
			}
			log.Warn().Err(err).Str("statement_id", id).Msg("Scoring failed")
			stats.Failed++
			continue
		}
		rec.StatementID = id

		pageID, onBoard := existing[id]
		switch {
		case rec.Status == domain.StatusManualCheck && onBoard:
			err = s.update(ctx, pageID, rec)
			if err == nil {
				stats.Updated++
			}
		case rec.Status == domain.StatusManualCheck:
			err = s.create(ctx, rec)
			if err == nil {
				stats.Created++
			}
		case onBoard:
			err = s.archive(ctx, pageID, id)
			if err == nil {
				stats.Archived++
			}
		default:
			stats.Skipped++
		}
		if err != nil {
			log.Warn().Err(err).Str("statement_id", id).Msg("Failed to sync review page")
			stats.Failed++
		}
	}

	log.Info().
		Int("created", stats.Created).
		Int("updated", stats.Updated).
		Int("archived", stats.Archived).
		Int("skipped", stats.Skipped).
		Int("failed", stats.Failed).
		Msg("Review sync completed")
	return stats, nil
}

func (s *Syncer) create(ctx context.Context, rec domain.DecisionRecord) error {
	log := logger.FromContext(ctx)
	if s.dryRun {
		log.Info().Str("statement_id", rec.StatementID).Msg("[DRY RUN] Would create review page")
		return nil
	}
	page, err := s.notion.CreatePage(ctx, s.databaseID, DecisionToProperties(rec, s.now()))
	if err != nil {
		return err
	}
	log.Info().Str("statement_id", rec.StatementID).Str("page_id", string(page.ID)).Msg("Created review page")
	return nil
}

func (s *Syncer) update(ctx context.Context, pageID string, rec domain.DecisionRecord) error {
	if s.dryRun {
		log := logger.FromContext(ctx)
		log.Info().Str("statement_id", rec.StatementID).Str("page_id", pageID).Msg("[DRY RUN] Would update review page")
		return nil
	}
	_, err := s.notion.UpdatePage(ctx, pageID, DecisionToProperties(rec, s.now()))
	return err
}

func (s *Syncer) archive(ctx context.Context, pageID, statementID string) error {
	log := logger.FromContext(ctx)
	if s.dryRun {
		log.Info().Str("statement_id", statementID).Str("page_id", pageID).Msg("[DRY RUN] Would archive resolved review page")
		return nil
	}
	if err := s.notion.ArchivePage(ctx, pageID); err != nil {
		return err
	}
	log.Info().Str("statement_id", statementID).Str("page_id", pageID).Msg("Archived resolved review page")
	return nil
}

// queryAllPages pages through the whole database.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}
