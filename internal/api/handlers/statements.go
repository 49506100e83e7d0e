package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/statement-scoring/internal/api/middleware"
	"github.com/dvloznov/statement-scoring/internal/gcsuploader"
	"github.com/dvloznov/statement-scoring/internal/jobs"
	"github.com/dvloznov/statement-scoring/internal/textsource"
	"github.com/dvloznov/statement-scoring/internal/watch"
	"github.com/rs/zerolog"
)

const maxUploadBytes = 32 << 20

// StatementsHandler handles statement upload and ingestion endpoints.
type StatementsHandler struct {
	uploader  ObjectUploader
	publisher jobs.Publisher
	deleter   StatementDeleter
	bucket    string
	uploadDir string
	log       zerolog.Logger
}

// NewStatementsHandler creates a new statements handler. Uploads go to
// bucket through uploader when both are set, otherwise to uploadDir.
func NewStatementsHandler(uploader ObjectUploader, publisher jobs.Publisher, deleter StatementDeleter, bucket, uploadDir string, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		uploader:  uploader,
		publisher: publisher,
		deleter:   deleter,
		bucket:    bucket,
		uploadDir: uploadDir,
		log:       log,
	}
}

// Upload handles POST /api/statements/upload
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if !textsource.IsSupported(filename) {
		middleware.WriteError(w, http.StatusBadRequest, "Only PDF and TXT files are allowed")
		return
	}

	statementID := r.FormValue("statement_id")
	if statementID == "" {
		statementID = watch.StatementID(filename)
	}
	if !validStatementID(statementID) {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid statement_id: use letters, digits, '.', '_' or '-'")
		return
	}

	sourceURI, err := h.store(r, statementID, filename, file)
	if err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("Failed to store upload")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	job := &jobs.StatementJob{
		Type:        jobs.JobTypeIngestStatement,
		StatementID: statementID,
		SourceURI:   sourceURI,
	}
	if err := h.publisher.PublishStatementJob(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue ingest job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingest job")
		return
	}

	h.log.Info().
		Str("statement_id", statementID).
		Str("source_uri", sourceURI).
		Str("job_id", job.JobID).
		Msg("Statement uploaded")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":       "uploaded",
		"filename":     filename,
		"statement_id": statementID,
		"source_uri":   sourceURI,
		"job_id":       job.JobID,
	})
}

func (h *StatementsHandler) store(r *http.Request, statementID, filename string, src io.Reader) (string, error) {
	if h.uploader != nil && h.bucket != "" {
		object := gcsuploader.StatementObject(statementID, filename)
		return h.uploader.Upload(r.Context(), h.bucket, object, gcsuploader.ContentTypeFor(filename), src)
	}

	dir := filepath.Join(h.uploadDir, statementID)
	if !within(h.uploadDir, dir) {
		return "", fmt.Errorf("upload path %s escapes %s", dir, h.uploadDir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating upload dir: %w", err)
	}
	dest := filepath.Join(dir, filename)
	if !within(h.uploadDir, dest) {
		return "", fmt.Errorf("upload path %s escapes %s", dest, h.uploadDir)
	}
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return "", fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", dest, err)
	}
	return dest, nil
}

// within reports whether path stays inside root after cleaning.
func within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Ingest handles POST /api/statements/{id}/ingest
func (h *StatementsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	statementID, ok := statementIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		SourceURI string `json:"source_uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SourceURI == "" {
		middleware.WriteError(w, http.StatusBadRequest, "source_uri is required")
		return
	}
	if !textsource.IsSupported(req.SourceURI) {
		middleware.WriteError(w, http.StatusBadRequest, "Only PDF and TXT files are allowed")
		return
	}

	h.enqueue(w, r, &jobs.StatementJob{
		Type:        jobs.JobTypeIngestStatement,
		StatementID: statementID,
		SourceURI:   req.SourceURI,
	})
}

// Reaggregate handles POST /api/statements/{id}/aggregate
func (h *StatementsHandler) Reaggregate(w http.ResponseWriter, r *http.Request) {
	statementID, ok := statementIDParam(w, r)
	if !ok {
		return
	}
	h.enqueue(w, r, &jobs.StatementJob{
		Type:        jobs.JobTypeReaggregate,
		StatementID: statementID,
	})
}

func (h *StatementsHandler) enqueue(w http.ResponseWriter, r *http.Request, job *jobs.StatementJob) {
	if err := h.publisher.PublishStatementJob(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("statement_id", job.StatementID).Msg("Failed to enqueue job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("job_type", string(job.Type)).
		Str("statement_id", job.StatementID).
		Msg("Job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":       job.JobID,
		"statement_id": job.StatementID,
		"status":       string(job.Status),
	})
}

// Delete handles DELETE /api/statements/{id}
func (h *StatementsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.deleter == nil {
		middleware.WriteError(w, http.StatusNotImplemented, "Deletion is not supported")
		return
	}
	statementID, ok := statementIDParam(w, r)
	if !ok {
		return
	}
	if err := h.deleter.DeleteStatement(r.Context(), statementID); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete statement")
		return
	}
	h.log.Info().Str("statement_id", statementID).Msg("Statement deleted")
	w.WriteHeader(http.StatusNoContent)
}
