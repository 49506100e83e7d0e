package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/logger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Options configures an Extractor. Zero values select defaults.
type Options struct {
	Window      int
	Overlap     int
	Concurrency int
	// WindowTimeout bounds each model call; a timed-out window is dropped.
	WindowTimeout time.Duration
	// RequestsPerSecond throttles model calls; 0 disables throttling.
	RequestsPerSecond float64
}

// Result is the ledger fragment of one statement plus extraction counters.
type Result struct {
	Transactions  []domain.Transaction
	Windows       int
	FailedWindows int
	Candidates    int
	Invalid       int
	Duplicates    int
}

// Extractor turns statement lines into a validated, deduplicated ledger
// fragment. It holds no per-statement state and can be shared.
type Extractor struct {
	client      ModelClient
	window      int
	overlap     int
	concurrency int
	timeout     time.Duration
	limiter     *rate.Limiter
}

// NewExtractor creates an Extractor around a model client.
func NewExtractor(client ModelClient, opts Options) (*Extractor, error) {
	if client == nil {
		return nil, fmt.Errorf("NewExtractor: model client is required")
	}
	if opts.Window == 0 {
		opts.Window = DefaultWindow
		if opts.Overlap == 0 {
			opts.Overlap = DefaultOverlap
		}
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.Window {
		return nil, fmt.Errorf("NewExtractor: overlap %d must be in [0, %d)", opts.Overlap, opts.Window)
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	e := &Extractor{
		client:      client,
		window:      opts.Window,
		overlap:     opts.Overlap,
		concurrency: opts.Concurrency,
		timeout:     opts.WindowTimeout,
	}
	if opts.RequestsPerSecond > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return e, nil
}

// Extract runs every window through the model concurrently, waits for all
// of them, then validates and deduplicates the merged candidates in window
// order. Failed windows are logged and skipped. An empty result is reported
// as domain.ErrNoTransactionsExtracted.
func (e *Extractor) Extract(ctx context.Context, statementID string, lines []string) (*Result, error) {
	log := logger.FromContext(ctx)

	windows, err := Windows(lines, e.window, e.overlap)
	if err != nil {
		return nil, fmt.Errorf("Extract: %w", err)
	}

	perWindow := make([][]Candidate, len(windows))
	failed := make([]bool, len(windows))

	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, w := range windows {
		g.Go(func() error {
			cands, err := e.extractWindow(ctx, w)
			if err != nil {
				failed[i] = true
				log.Warn().
					Err(err).
					Int("window", w.Index).
					Int("start_line", w.Start).
					Msg("Dropping window")
				return nil
			}
			perWindow[i] = cands
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Extract: %w", err)
	}

	res := &Result{Windows: len(windows)}
	var valid []domain.Transaction
	for i, cands := range perWindow {
		if failed[i] {
			res.FailedWindows++
			continue
		}
		for _, c := range cands {
			res.Candidates++
			tx, err := c.toTransaction(statementID)
			if err != nil {
				res.Invalid++
				log.Warn().Err(err).Int("window", i).Msg("Dropping candidate")
				continue
			}
			valid = append(valid, tx)
		}
	}

	res.Transactions = Dedup(valid)
	res.Duplicates = len(valid) - len(res.Transactions)

	log.Info().
		Int("windows", res.Windows).
		Int("failed_windows", res.FailedWindows).
		Int("candidates", res.Candidates).
		Int("invalid", res.Invalid).
		Int("duplicates", res.Duplicates).
		Int("transactions", len(res.Transactions)).
		Msg("Extraction finished")

	if len(res.Transactions) == 0 {
		return res, fmt.Errorf("Extract: %s: %w", statementID, domain.ErrNoTransactionsExtracted)
	}
	return res, nil
}

func (e *Extractor) extractWindow(ctx context.Context, w Window) ([]Candidate, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, &WindowError{Window: w.Index, StartLine: w.Start, Err: err}
		}
	}

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	raw, err := e.client.Complete(callCtx, buildWindowPrompt(w.Lines))
	if err != nil {
		return nil, &WindowError{Window: w.Index, StartLine: w.Start, Err: fmt.Errorf("model call: %w", err)}
	}

	cands, err := parseCandidates(cleanModelJSON(raw))
	if err != nil {
		return nil, &WindowError{Window: w.Index, StartLine: w.Start, Err: err}
	}
	return cands, nil
}
