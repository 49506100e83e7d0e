package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/jobs"
	"github.com/dvloznov/statement-scoring/internal/textsource"
)

// HandleJob implements jobs.JobHandler. Failures that a retry cannot fix
// are marked permanent.
func (i *Ingestor) HandleJob(ctx context.Context, job *jobs.StatementJob) error {
	var (
		state *PipelineState
		err   error
	)
	switch job.GetType() {
	case jobs.JobTypeIngestStatement:
		state, err = i.Ingest(ctx, job.StatementID, job.SourceURI)
	case jobs.JobTypeReaggregate:
		state, err = i.Reaggregate(ctx, job.StatementID)
	default:
		return jobs.Permanent(fmt.Errorf("HandleJob: unknown job type %q", job.Type))
	}

	if state != nil {
		job.Inserted = state.Inserted
	}
	if err != nil {
		if errors.Is(err, domain.ErrNoTransactionsExtracted) || errors.Is(err, textsource.ErrUnsupportedFormat) {
			return jobs.Permanent(err)
		}
		return err
	}
	return nil
}
