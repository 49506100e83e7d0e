package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dvloznov/statement-scoring/internal/api/middleware"
	"github.com/dvloznov/statement-scoring/internal/decision"
	"github.com/dvloznov/statement-scoring/internal/domain"
	"github.com/dvloznov/statement-scoring/internal/jobs"
	"github.com/rs/zerolog"
)

// ScoringService is the read side used by the score and summary endpoints.
type ScoringService interface {
	Score(ctx context.Context, statementID string) (domain.DecisionRecord, error)
	Monthly(ctx context.Context, statementID string) ([]domain.MonthlySummary, error)
	Recurring(ctx context.Context, statementID string) ([]domain.RecurringBill, error)
	Loans(ctx context.Context, statementID string) (domain.OutstandingLoan, error)
}

// ObjectUploader stores uploaded statement files. It returns the URI the
// ingest job should read from.
type ObjectUploader interface {
	Upload(ctx context.Context, bucket, object, contentType string, r io.Reader) (string, error)
}

// StatementDeleter removes a statement's stored ledger and aggregates.
type StatementDeleter interface {
	DeleteStatement(ctx context.Context, statementID string) error
}

// ModelReloader swaps in a freshly loaded model artifact.
type ModelReloader interface {
	Reload() (*decision.Model, error)
}

// Router bundles the handlers and registers their routes.
type Router struct {
	Statements *StatementsHandler
	Scores     *ScoresHandler
	Jobs       *JobsHandler
	Model      *ModelHandler
}

// Register adds every route to mux. Nil handlers are skipped.
func (rt *Router) Register(mux *http.ServeMux) {
	if h := rt.Statements; h != nil {
		mux.HandleFunc("POST /api/statements/upload", h.Upload)
		mux.HandleFunc("POST /api/statements/{id}/ingest", h.Ingest)
		mux.HandleFunc("POST /api/statements/{id}/aggregate", h.Reaggregate)
		mux.HandleFunc("DELETE /api/statements/{id}", h.Delete)
	}
	if h := rt.Scores; h != nil {
		mux.HandleFunc("GET /api/score/{id}", h.Score)
		mux.HandleFunc("GET /api/monthly/{id}", h.Monthly)
		mux.HandleFunc("GET /api/recurring/{id}", h.Recurring)
		mux.HandleFunc("GET /api/loans/{id}", h.Loans)
	}
	if h := rt.Jobs; h != nil {
		mux.HandleFunc("GET /api/jobs", h.ListJobs)
		mux.HandleFunc("GET /api/jobs/{id}", h.GetJob)
	}
	if h := rt.Model; h != nil {
		mux.HandleFunc("POST /api/model/reload", h.Reload)
	}
	mux.HandleFunc("GET /health", Health)
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrStatementNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Statement not found")
	case errors.Is(err, domain.ErrNoTransactionsExtracted), errors.Is(err, domain.ErrInsufficientData):
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
	default:
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}

var statementIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,128}$`)

// validStatementID reports whether id is safe to use as a path segment and
// object name component.
func validStatementID(id string) bool {
	return statementIDPattern.MatchString(id) && !strings.Contains(id, "..")
}

// statementIDParam returns the {id} path value, writing a 400 when it is invalid.
func statementIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if !validStatementID(id) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid statement_id")
		return "", false
	}
	return id, true
}
