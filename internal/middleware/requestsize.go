package middleware

import (
	"net/http"
)

// DefaultMaxRequestSize fits the largest generation input (a 10k character thread) with room to spare
const DefaultMaxRequestSize int64 = 256 << 10

// MaxRequestSize caps request bodies at maxBytes. Declared oversize bodies are rejected
// up front; chunked bodies fail at decode time once the reader passes the cap.
func MaxRequestSize(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestSize
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "invalid_request", "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
