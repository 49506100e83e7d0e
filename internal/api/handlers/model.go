package handlers

import (
	"net/http"

	"github.com/dvloznov/statement-scoring/internal/api/middleware"
	"github.com/rs/zerolog"
)

// ModelHandler exposes model registry operations.
type ModelHandler struct {
	reloader ModelReloader
	log      zerolog.Logger
}

// NewModelHandler creates a new model handler.
func NewModelHandler(reloader ModelReloader, log zerolog.Logger) *ModelHandler {
	return &ModelHandler{reloader: reloader, log: log}
}

// Reload handles POST /api/model/reload. A failed reload leaves the
// previous model serving.
func (h *ModelHandler) Reload(w http.ResponseWriter, r *http.Request) {
	m, err := h.reloader.Reload()
	if err != nil {
		h.log.Error().Err(err).Msg("Model reload failed")
		middleware.WriteError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	h.log.Info().Str("model_version", m.Version).Msg("Model reloaded")
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status":        "reloaded",
		"model_version": m.Version,
	})
}
