package handlers

import (
	"errors"
	"net/http"

	"github.com/benvon/sparkreply/internal/database"
	"github.com/benvon/sparkreply/internal/generation"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HistoryHandler lists and deletes past generations. repo is nil when persistence is
// not configured, and every route then answers 503.
type HistoryHandler struct {
	repo   database.GenerationRepositoryInterface
	logger *zap.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(repo database.GenerationRepositoryInterface, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{repo: repo, logger: logger}
}

// RegisterRoutes registers history routes
// The router should already have the /api/v1/history prefix
func (h *HistoryHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListHistory).Methods(http.MethodGet)
	r.HandleFunc("/{type}/{id}", h.DeleteHistory).Methods(http.MethodDelete)
}

// ListHistory returns the caller's generations, newest first
func (h *HistoryHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil || !h.available(w) {
		return
	}

	limit := pageLimit(r)
	var (
		items []*models.Generation
		err   error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		spec, ok := specFor(w, t)
		if !ok {
			return
		}
		items, err = h.repo.List(r.Context(), spec.Table, identity.UserID, spec.Type, limit)
	} else {
		items, err = h.repo.ListAll(r.Context(), identity.UserID, limit)
	}
	if err != nil {
		respondServiceError(w, h.logger, err, "load history")
		return
	}
	if items == nil {
		items = []*models.Generation{}
	}

	respondJSON(w, http.StatusOK, items)
}

// DeleteHistory removes one of the caller's generations
func (h *HistoryHandler) DeleteHistory(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil || !h.available(w) {
		return
	}

	vars := mux.Vars(r)
	spec, ok := specFor(w, vars["type"])
	if !ok {
		return
	}
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid generation ID")
		return
	}

	if err := h.repo.Delete(r.Context(), spec.Table, id, identity.UserID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "not_found", "Generation not found")
			return
		}
		respondServiceError(w, h.logger, err, "delete generation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *HistoryHandler) available(w http.ResponseWriter) bool {
	if h.repo == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "history_disabled", "History is not available because persistence is not configured")
		return false
	}
	return true
}

func specFor(w http.ResponseWriter, raw string) (*generation.ContentSpec, bool) {
	ct, err := models.ParseContentType(raw)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return nil, false
	}
	spec, err := generation.Spec(ct)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return nil, false
	}
	return spec, true
}
