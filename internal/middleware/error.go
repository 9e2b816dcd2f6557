package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	logpkg "github.com/benvon/sparkreply/internal/logger"
	"go.uber.org/zap"
)

// ErrorResponse is the failure envelope written by middleware before a handler runs
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path,omitempty"`
}

// ErrorHandler recovers handler panics into an internal_error envelope
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				path := logpkg.SanitizePath(r.URL.Path)
				logger.Error("panic_recovered",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", path),
					zap.Stack("stack"),
				)
				if err := encodeError(w, http.StatusInternalServerError, ErrorResponse{
					Error:   "internal_error",
					Message: "An unexpected error occurred",
					Path:    path,
				}); err != nil {
					logger.Error("failed_to_encode_error_response", zap.Error(err), zap.String("path", path))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, status int, errorType, message string) {
	_ = encodeError(w, status, ErrorResponse{Error: errorType, Message: message})
}

func encodeError(w http.ResponseWriter, status int, body ErrorResponse) error {
	body.Success = false
	body.Timestamp = time.Now().UTC().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
