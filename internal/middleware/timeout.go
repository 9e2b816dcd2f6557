package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout covers a profile lookup plus a slow completion
const DefaultRequestTimeout = 60 * time.Second

// A request that runs out of time is reported the same way as a failed generation
const timeoutBody = `{"success":false,"error":"generation_failed","message":"Request timed out"}`

// Timeout bounds handler execution. The handler's context is cancelled when the
// deadline passes and the client gets a JSON 503.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return func(next http.Handler) http.Handler {
		th := http.TimeoutHandler(next, timeout, timeoutBody)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			th.ServeHTTP(&timeoutWriter{ResponseWriter: w}, r)
		})
	}
}

// timeoutWriter labels the TimeoutHandler's bare 503 body as JSON
type timeoutWriter struct {
	http.ResponseWriter
}

func (w *timeoutWriter) WriteHeader(code int) {
	if code == http.StatusServiceUnavailable && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.ResponseWriter.WriteHeader(code)
}
