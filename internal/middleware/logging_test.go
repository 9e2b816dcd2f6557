package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		method        string
		path          string
		handlerStatus int
	}{
		{name: "GET request", method: "GET", path: "/healthz", handlerStatus: http.StatusOK},
		{name: "POST request", method: "POST", path: "/api/v1/generate/dm", handlerStatus: http.StatusOK},
		{name: "404 request", method: "GET", path: "/notfound", handlerStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.handlerStatus)
			})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			Logging(zap.New(core))(handler).ServeHTTP(w, req)

			if w.Code != tt.handlerStatus {
				t.Errorf("Expected status %d, got %d", tt.handlerStatus, w.Code)
			}
			entries := logs.FilterMessage("http_request").All()
			if len(entries) != 1 {
				t.Fatalf("Expected 1 http_request log, got %d", len(entries))
			}
			if got := entries[0].ContextMap()["status_code"]; got != int64(tt.handlerStatus) {
				t.Errorf("logged status_code = %v, want %d", got, tt.handlerStatus)
			}
		})
	}
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
		w.WriteHeader(http.StatusTeapot)
	})

	wrapped := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	handler.ServeHTTP(wrapped, httptest.NewRequest("GET", "/", nil))

	if wrapped.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want 200", wrapped.statusCode)
	}
}

func TestAudit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		event  string
	}{
		{status: http.StatusUnauthorized, event: "security_event"},
		{status: http.StatusTooManyRequests, event: "rate_limit_violation"},
		{status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.WarnLevel)
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			Audit(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/v1/stats", nil))

			if tt.event == "" {
				if logs.Len() != 0 {
					t.Errorf("expected no audit logs, got %d", logs.Len())
				}
				return
			}
			if logs.FilterMessage(tt.event).Len() != 1 {
				t.Errorf("expected one %s log", tt.event)
			}
		})
	}
}
