package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sparkreply"

// Collector holds the service's Prometheus metrics. A nil *Collector is valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	generationsTotal    *prometheus.CounterVec
	extractionTiers     *prometheus.CounterVec
	completionDuration  *prometheus.HistogramVec
	profileLookups      *prometheus.CounterVec
	persistenceWrites   *prometheus.CounterVec
	queueJobs           *prometheus.CounterVec
	dlqPurged           prometheus.Counter
}

// NewCollector creates a collector on its own registry, with Go and process collectors attached
func NewCollector() *Collector {
	c := &Collector{registry: prometheus.NewRegistry()}

	c.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	c.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	c.generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation requests by content type and outcome",
		},
		[]string{"content_type", "outcome"},
	)
	c.extractionTiers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_tier_total",
			Help:      "Extraction strategy that produced each result",
		},
		[]string{"content_type", "tier"},
	)
	c.completionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Chat completion latency",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45},
		},
		[]string{"content_type", "result"},
	)
	c.profileLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "profile_lookups_total",
			Help:      "Profile provider calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
	c.persistenceWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_writes_total",
			Help:      "History and saved-content writes by outcome",
		},
		[]string{"kind", "outcome"},
	)
	c.queueJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_jobs_total",
			Help:      "Persistence jobs processed by the worker",
		},
		[]string{"job_type", "outcome"},
	)

	c.dlqPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dlq_purged_total",
			Help:      "Dead-lettered persistence jobs dropped after the retention window",
		},
	)

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.generationsTotal,
		c.extractionTiers,
		c.completionDuration,
		c.profileLookups,
		c.persistenceWrites,
		c.queueJobs,
		c.dlqPurged,
	)
	return c
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveHTTPRequest records one finished request
func (c *Collector) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordGeneration counts a generation outcome (success, invalid, failed)
func (c *Collector) RecordGeneration(contentType, outcome string) {
	if c == nil {
		return
	}
	c.generationsTotal.WithLabelValues(contentType, outcome).Inc()
}

// RecordExtraction counts the tier that produced a result
func (c *Collector) RecordExtraction(contentType, tier string) {
	if c == nil {
		return
	}
	c.extractionTiers.WithLabelValues(contentType, tier).Inc()
}

// ObserveCompletion records completion latency; result is "ok" or a failure reason
func (c *Collector) ObserveCompletion(contentType, result string, d time.Duration) {
	if c == nil {
		return
	}
	c.completionDuration.WithLabelValues(contentType, result).Observe(d.Seconds())
}

// RecordProfileLookup counts a profile provider call
func (c *Collector) RecordProfileLookup(operation, outcome string) {
	if c == nil {
		return
	}
	c.profileLookups.WithLabelValues(operation, outcome).Inc()
}

// RecordPersistence counts a history or saved-content write
func (c *Collector) RecordPersistence(kind, outcome string) {
	if c == nil {
		return
	}
	c.persistenceWrites.WithLabelValues(kind, outcome).Inc()
}

// RecordQueueJob counts a job handled by the worker
func (c *Collector) RecordQueueJob(jobType, outcome string) {
	if c == nil {
		return
	}
	c.queueJobs.WithLabelValues(jobType, outcome).Inc()
}

// RecordDLQPurge counts dead-lettered jobs dropped by the sweeper
func (c *Collector) RecordDLQPurge(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.dlqPurged.Add(float64(n))
}

// DLQPurged exposes the purge counter for tests
func (c *Collector) DLQPurged() prometheus.Counter {
	return c.dlqPurged
}
