package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/benvon/sparkreply/internal/database"
	"github.com/benvon/sparkreply/internal/generation"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/benvon/sparkreply/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// SaveContentRequest represents a save content request
type SaveContentRequest struct {
	Type     string          `json:"type" validate:"required"`
	Title    string          `json:"title" validate:"required,max=200"`
	Content  string          `json:"content" validate:"required,max=5000"`
	Metadata models.Metadata `json:"metadata,omitempty"`
}

// SavedContentHandler manages the caller's saved items
type SavedContentHandler struct {
	repo   database.SavedContentRepositoryInterface
	logger *zap.Logger
}

// NewSavedContentHandler creates a new saved content handler
func NewSavedContentHandler(repo database.SavedContentRepositoryInterface, logger *zap.Logger) *SavedContentHandler {
	return &SavedContentHandler{repo: repo, logger: logger}
}

// RegisterRoutes registers saved content routes
// The router should already have the /api/v1/saved prefix
func (h *SavedContentHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListSaved).Methods(http.MethodGet)
	r.HandleFunc("", h.CreateSaved).Methods(http.MethodPost)
	r.HandleFunc("/{id}", h.UpdateSaved).Methods(http.MethodPatch)
	r.HandleFunc("/{id}", h.DeleteSaved).Methods(http.MethodDelete)
}

// ListSaved lists saved items, optionally filtered by type
func (h *SavedContentHandler) ListSaved(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil || !h.available(w) {
		return
	}

	var ct models.ContentType
	if t := r.URL.Query().Get("type"); t != "" {
		parsed, err := models.ParseContentType(t)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		ct = parsed
	}

	items, err := h.repo.List(r.Context(), identity.UserID, ct, pageLimit(r))
	if err != nil {
		respondServiceError(w, h.logger, err, "load saved content")
		return
	}
	if items == nil {
		items = []*models.SavedContent{}
	}
	respondJSON(w, http.StatusOK, items)
}

// CreateSaved stores a new item and answers 201
func (h *SavedContentHandler) CreateSaved(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil || !h.available(w) {
		return
	}

	var req SaveContentRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}
	req.Title = validation.SanitizeText(req.Title)
	req.Content = validation.SanitizeText(req.Content)
	if err := validation.ValidateStruct(req); err != nil {
		respondValidation(w, h.logger, err)
		return
	}
	ct, err := models.ParseContentType(req.Type)
	if err != nil {
		respondServiceError(w, h.logger, generation.InvalidField("type", err.Error()), "save content")
		return
	}

	now := time.Now().UTC()
	item := &models.SavedContent{
		ID:        uuid.New(),
		UserID:    identity.UserID,
		Type:      ct,
		Title:     req.Title,
		Content:   req.Content,
		Metadata:  req.Metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.Create(r.Context(), item); err != nil {
		respondServiceError(w, h.logger, err, "save content")
		return
	}

	respondJSON(w, http.StatusCreated, item)
}

// UpdateSaved patches title, content or metadata
func (h *SavedContentHandler) UpdateSaved(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil || !h.available(w) {
		return
	}

	id, ok := savedID(w, r)
	if !ok {
		return
	}
	var patch models.SavedContentPatch
	if err := decodeBody(r, &patch); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}
	if patch.Title != nil {
		title := validation.SanitizeText(*patch.Title)
		patch.Title = &title
	}
	if err := validation.ValidateStruct(patch); err != nil {
		respondValidation(w, h.logger, err)
		return
	}

	item, err := h.repo.Update(r.Context(), id, identity.UserID, &patch)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "not_found", "Saved content not found")
			return
		}
		respondServiceError(w, h.logger, err, "update saved content")
		return
	}
	respondJSON(w, http.StatusOK, item)
}

// DeleteSaved removes one of the caller's saved items
func (h *SavedContentHandler) DeleteSaved(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil || !h.available(w) {
		return
	}

	id, ok := savedID(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(r.Context(), id, identity.UserID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondJSONError(w, http.StatusNotFound, "not_found", "Saved content not found")
			return
		}
		respondServiceError(w, h.logger, err, "delete saved content")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *SavedContentHandler) available(w http.ResponseWriter) bool {
	if h.repo == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "history_disabled", "Saved content is not available because persistence is not configured")
		return false
	}
	return true
}

func savedID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Invalid saved content ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondValidation renders a validation.Errors value as a 400
func respondValidation(w http.ResponseWriter, logger *zap.Logger, err error) {
	var fields validation.Errors
	if errors.As(err, &fields) {
		respondServiceError(w, logger, &generation.ValidationError{Fields: fields}, "validate request")
		return
	}
	respondServiceError(w, logger, err, "validate request")
}
