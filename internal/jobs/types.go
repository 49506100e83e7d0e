package jobs

import (
	"context"
	"errors"
	"time"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeIngestStatement loads, extracts and aggregates one statement.
	JobTypeIngestStatement JobType = "ingest_statement"
	// JobTypeReaggregate rebuilds aggregates from an already stored ledger.
	JobTypeReaggregate JobType = "reaggregate"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	// JobStatusRetrying indicates the job failed and is scheduled again.
	JobStatusRetrying JobStatus = "retrying"
)

// ErrJobNotFound is returned by a JobStore for unknown job IDs.
var ErrJobNotFound = errors.New("job not found")

// StatementJob is a unit of asynchronous statement processing.
type StatementJob struct {
	JobID       string  `json:"job_id"`
	Type        JobType `json:"type"`
	StatementID string  `json:"statement_id"`

	// SourceURI is a gs://, file:// or local path. Empty for reaggregate jobs.
	SourceURI string `json:"source_uri,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	// Inserted is the number of new ledger rows written by the last run.
	Inserted int `json:"inserted"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *StatementJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface. Jobs without a type are ingests.
func (j *StatementJob) GetType() JobType {
	if j.Type == "" {
		return JobTypeIngestStatement
	}
	return j.Type
}

// GetStatus implements the Job interface.
func (j *StatementJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	PublishStatementJob(ctx context.Context, job *StatementJob) error
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs. The handler is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler processes a job. A returned error wrapped with Permanent is
// never retried.
type JobHandler func(ctx context.Context, job *StatementJob) error

// JobStore stores and retrieves job state.
type JobStore interface {
	SaveJob(ctx context.Context, job *StatementJob) error
	GetJob(ctx context.Context, jobID string) (*StatementJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*StatementJob, error)
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	StatementID string
	Status      JobStatus
	Limit       int
	Offset      int
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}
