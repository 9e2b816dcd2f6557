package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	logpkg "github.com/benvon/sparkreply/internal/logger"
)

const healthCheckTimeout = 5 * time.Second

// Health statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// DependencyCheck probes one dependency. A failing critical check makes the service unhealthy,
// a failing non-critical check only degrades it.
type DependencyCheck struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// HealthChecker handles health check requests
type HealthChecker struct {
	checks []DependencyCheck
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(checks ...DependencyCheck) *HealthChecker {
	return &HealthChecker{checks: checks}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthCheck handles the /healthz endpoint. ?mode=extended runs every dependency check.
func (h *HealthChecker) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	statusCode := http.StatusOK
	if r.URL.Query().Get("mode") == "extended" {
		response.Status, response.Checks = h.run(r.Context())
		if response.Status == StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func (h *HealthChecker) run(ctx context.Context) (string, map[string]string) {
	status := StatusHealthy
	checks := make(map[string]string, len(h.checks))

	for _, c := range h.checks {
		checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		err := c.Check(checkCtx)
		cancel()

		if err == nil {
			checks[c.Name] = StatusHealthy
			continue
		}
		checks[c.Name] = StatusUnhealthy + ": " + logpkg.SanitizeError(err)
		if c.Critical {
			status = StatusUnhealthy
		} else if status == StatusHealthy {
			status = StatusDegraded
		}
	}
	return status, checks
}
