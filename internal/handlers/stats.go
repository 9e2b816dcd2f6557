package handlers

import (
	"net/http"
	"time"

	"github.com/benvon/sparkreply/internal/database"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// StatsHandler serves the dashboard summary
type StatsHandler struct {
	repo   database.StatsRepositoryInterface
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(repo database.StatsRepositoryInterface, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{repo: repo, logger: logger, now: time.Now}
}

// RegisterRoutes registers the stats route
// The router should already have the /api/v1/stats prefix
func (h *StatsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetStats).Methods(http.MethodGet)
}

// GetStats returns the caller's dashboard statistics
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}
	if h.repo == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "history_disabled", "Stats are not available because persistence is not configured")
		return
	}

	stats, err := h.repo.Dashboard(r.Context(), identity.UserID, h.now().UTC())
	if err != nil {
		respondServiceError(w, h.logger, err, "load stats")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
