package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benvon/sparkreply/internal/metrics"
	"github.com/benvon/sparkreply/internal/request"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		contentType string
		want        int
	}{
		{name: "get without header", method: "GET", want: http.StatusOK},
		{name: "post json", method: "POST", contentType: "application/json", want: http.StatusOK},
		{name: "post json charset", method: "POST", contentType: "application/json; charset=utf-8", want: http.StatusOK},
		{name: "post missing", method: "POST", want: http.StatusBadRequest},
		{name: "put form", method: "PUT", contentType: "application/x-www-form-urlencoded", want: http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			ContentType(okHandler()).ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 64)))
	w := httptest.NewRecorder()
	MaxRequestSize(16)(okHandler()).ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS sent over plain HTTP: %q", got)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://app.example.com"})(okHandler())

	tests := []struct {
		origin string
		want   string
	}{
		{origin: "https://app.example.com", want: "https://app.example.com"},
		{origin: "https://evil.example.com", want: ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/generate/dm", nil)
		req.Header.Set("Origin", tt.origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestRateLimit_MemoryStore(t *testing.T) {
	t.Parallel()

	limit, err := RateLimit("2-M", nil)
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}
	handler := limit(okHandler())

	identity := testIdentity()
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/api/v1/generate/dm", nil)
		req = req.WithContext(request.WithIdentity(req.Context(), identity))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// another caller has its own bucket
	req := httptest.NewRequest("POST", "/api/v1/generate/dm", nil)
	req = req.WithContext(request.WithIdentity(req.Context(), testIdentity()))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("second caller status = %d, want 200", w.Code)
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()

	if _, err := RateLimit("lots", nil); err == nil {
		t.Error("RateLimit() expected error for a malformed rate")
	}
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	t.Parallel()

	m := metrics.NewCollector()
	router := mux.NewRouter()
	router.Use(Metrics(m))
	router.Handle("/api/v1/history/{type}/{id}", okHandler()).Methods(http.MethodDelete)

	for _, id := range []string{"a", "b"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/v1/history/dm/"+id, nil))
	}

	count, err := testutil.GatherAndCount(m.Registry(), "sparkreply_http_requests_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 1 {
		t.Errorf("http_requests_total series = %d, want 1 (one route template)", count)
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	blocking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	withType := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	tests := []struct {
		name        string
		handler     http.Handler
		wantStatus  int
		wantType    string
		wantTimeout bool
	}{
		{name: "fast handler", handler: okHandler(), wantStatus: http.StatusOK},
		{name: "handler runs out of time", handler: blocking, wantStatus: http.StatusServiceUnavailable, wantType: "application/json", wantTimeout: true},
		{name: "handler sets its own type", handler: withType, wantStatus: http.StatusServiceUnavailable, wantType: "text/plain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			Timeout(20*time.Millisecond)(tt.handler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q, want %q", got, tt.wantType)
			}
			if tt.wantTimeout && !strings.Contains(w.Body.String(), `"error":"generation_failed"`) {
				t.Errorf("unexpected timeout body %s", w.Body.String())
			}
		})
	}
}
