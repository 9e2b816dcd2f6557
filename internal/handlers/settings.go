package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/sparkreply/internal/database"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/benvon/sparkreply/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// UpdateSettingsRequest replaces the caller's settings
type UpdateSettingsRequest struct {
	DefaultTone         string   `json:"default_tone" validate:"max=50"`
	WritingStyleHandles []string `json:"writing_style_handles" validate:"max=2,dive,handle"`
	AutoSave            bool     `json:"auto_save"`
	TweetLengthLimit    int      `json:"tweet_length_limit" validate:"omitempty,min=1,max=280"`
	XHandle             string   `json:"x_handle" validate:"omitempty,handle"`
}

// SettingsHandler reads and writes per-user defaults
type SettingsHandler struct {
	repo   database.UserSettingsRepositoryInterface
	logger *zap.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(repo database.UserSettingsRepositoryInterface, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{repo: repo, logger: logger}
}

// RegisterRoutes registers settings routes
// The router should already have the /api/v1/settings prefix
func (h *SettingsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetSettings).Methods(http.MethodGet)
	r.HandleFunc("", h.UpdateSettings).Methods(http.MethodPut)
}

// GetSettings returns stored settings or the defaults
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}
	if h.repo == nil {
		respondJSON(w, http.StatusOK, models.DefaultUserSettings(identity.UserID))
		return
	}

	settings, err := h.repo.Get(r.Context(), identity.UserID)
	if err != nil {
		respondServiceError(w, h.logger, err, "load settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings validates and stores the caller's settings
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}
	if h.repo == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "history_disabled", "Settings cannot be saved because persistence is not configured")
		return
	}

	var req UpdateSettingsRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid_request", "Request body must be valid JSON")
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondValidation(w, h.logger, err)
		return
	}

	handles := make([]string, 0, len(req.WritingStyleHandles))
	for _, handle := range req.WritingStyleHandles {
		handles = append(handles, validation.CleanHandle(handle))
	}
	limit := req.TweetLengthLimit
	if limit == 0 {
		limit = models.DefaultTweetLengthLimit
	}
	settings := &models.UserSettings{
		UserID:              identity.UserID,
		DefaultTone:         validation.SanitizeText(req.DefaultTone),
		WritingStyleHandles: handles,
		AutoSave:            req.AutoSave,
		TweetLengthLimit:    limit,
		XHandle:             validation.CleanHandle(req.XHandle),
		UpdatedAt:           time.Now().UTC(),
	}
	if err := h.repo.Upsert(r.Context(), settings); err != nil {
		respondServiceError(w, h.logger, err, "save settings")
		return
	}
	respondJSON(w, http.StatusOK, settings)
}
