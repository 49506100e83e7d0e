// Package watch turns files dropped into an inbox directory into ingest jobs.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/dvloznov/statement-scoring/internal/jobs"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"github.com/dvloznov/statement-scoring/internal/textsource"
)

// Poller scans a directory and publishes one ingest job per new statement
// file. A file is only picked up once its size is unchanged between two
// consecutive scans, so partially copied files are not ingested.
type Poller struct {
	dir       string
	interval  time.Duration
	publisher jobs.Publisher

	sizes map[string]int64 // last observed size of files not yet published
	seen  map[string]bool
}

// NewPoller creates a Poller over dir.
func NewPoller(dir string, interval time.Duration, publisher jobs.Publisher) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{
		dir:       dir,
		interval:  interval,
		publisher: publisher,
		sizes:     make(map[string]int64),
		seen:      make(map[string]bool),
	}
}

// Run scans until ctx is cancelled. Scan errors are logged, not fatal.
func (p *Poller) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Info().Str("dir", p.dir).Dur("interval", p.interval).Msg("Watching inbox for statements")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.Scan(ctx); err != nil {
			log.Warn().Err(err).Str("dir", p.dir).Msg("Inbox scan failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Scan runs one pass over the directory and returns how many jobs it
// published.
func (p *Poller) Scan(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return 0, fmt.Errorf("Scan: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	published := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || p.seen[name] || !textsource.IsSupported(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		last, observed := p.sizes[name]
		p.sizes[name] = info.Size()
		if !observed || last != info.Size() {
			continue
		}

		path := filepath.Join(p.dir, name)
		job := &jobs.StatementJob{
			Type:        jobs.JobTypeIngestStatement,
			StatementID: StatementID(name),
			SourceURI:   path,
		}
		if err := p.publisher.PublishStatementJob(ctx, job); err != nil {
			return published, fmt.Errorf("Scan: publishing %s: %w", name, err)
		}
		p.seen[name] = true
		delete(p.sizes, name)
		published++

		log.Info().
			Str("file", path).
			Str("statement_id", job.StatementID).
			Str("job_id", job.JobID).
			Msg("Detected new statement")
	}
	return published, nil
}

// StatementID is the file name without directory or extension.
func StatementID(name string) string {
	base := filepath.Base(name)
	return base[:len(base)-len(filepath.Ext(base))]
}
