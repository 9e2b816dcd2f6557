package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_Counters(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.RecordGeneration("dm", "success")
	c.RecordGeneration("dm", "success")
	c.RecordExtraction("dm", "fallback")
	c.RecordProfileLookup("lookup_profile", "unavailable")
	c.RecordPersistence("generation", "failed")
	c.RecordQueueJob("persist_generation", "ok")

	if got := testutil.ToFloat64(c.generationsTotal.WithLabelValues("dm", "success")); got != 2 {
		t.Errorf("generations_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.extractionTiers.WithLabelValues("dm", "fallback")); got != 1 {
		t.Errorf("extraction_tier_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.profileLookups.WithLabelValues("lookup_profile", "unavailable")); got != 1 {
		t.Errorf("profile_lookups_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.persistenceWrites.WithLabelValues("generation", "failed")); got != 1 {
		t.Errorf("persistence_writes_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.queueJobs.WithLabelValues("persist_generation", "ok")); got != 1 {
		t.Errorf("queue_jobs_total = %v, want 1", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.ObserveHTTPRequest(http.MethodPost, "/api/v1/generate/dm", http.StatusOK, 120*time.Millisecond)
	c.ObserveCompletion("dm", "ok", time.Second)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`sparkreply_http_requests_total{method="POST",route="/api/v1/generate/dm",status="200"} 1`,
		"sparkreply_completion_duration_seconds_count",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	t.Parallel()

	var c *Collector
	c.RecordGeneration("dm", "success")
	c.ObserveHTTPRequest(http.MethodGet, "/", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
