// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - DuckDB query performance
// - API endpoint latency and throughput
// - Visit previews, classification and apply outcomes
// - Ping store circuit breaker
// - Async preview jobs and the event bus

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Visit inference Metrics
	VisitPreviewDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visit_preview_duration_seconds",
			Help:    "Duration of backfill preview computations in seconds",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"result"}, // "complete", "truncated"
	)

	VisitPlacesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_places_scanned_total",
			Help: "Total number of places whose pings were fully scanned",
		},
	)

	VisitPingsScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_pings_scanned_total",
			Help: "Total number of pings returned by place range queries",
		},
	)

	VisitScanWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "visit_scan_warnings_total",
			Help: "Total number of place scans that failed and were skipped",
		},
	)

	VisitCandidatesClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_candidates_classified_total",
			Help: "Total number of (place, date) candidates by classification",
		},
		[]string{"status"}, // "confirmed", "suggested", "rejected"
	)

	VisitApplyOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "visit_apply_outcomes_total",
			Help: "Total number of apply items by outcome",
		},
		[]string{"outcome"}, // "created", "confirmed", "deleted", "skipped"
	)

	VisitApplyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "visit_apply_duration_seconds",
			Help:    "Duration of apply transactions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"}, // "committed", "rolled_back", "cancelled"
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Job Metrics
	JobQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "preview_job_queue_depth",
			Help: "Number of preview jobs waiting for a worker",
		},
	)

	JobsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preview_jobs_finished_total",
			Help: "Total number of preview jobs by final status",
		},
		[]string{"status"}, // "completed", "failed", "cancelled"
	)

	JobsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "preview_jobs_rejected_total",
			Help: "Total number of preview jobs rejected because the queue was full",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheExpired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_expired_total",
			Help: "Total number of expired cache entries removed by the janitor",
		},
		[]string{"cache"},
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the in-process bus",
		},
		[]string{"topic"},
	)

	EventsHandled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_handled_total",
			Help: "Total number of events handled by subscribers",
		},
		[]string{"topic", "result"}, // result: "ok", "error"
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordPreview records one finished preview computation.
func RecordPreview(duration time.Duration, placesAnalyzed int, pingsScanned int64, warnings int, truncated bool) {
	result := "complete"
	if truncated {
		result = "truncated"
	}
	VisitPreviewDuration.WithLabelValues(result).Observe(duration.Seconds())
	VisitPlacesScanned.Add(float64(placesAnalyzed))
	VisitPingsScanned.Add(float64(pingsScanned))
	VisitScanWarnings.Add(float64(warnings))
}

// RecordClassification counts one classified candidate.
func RecordClassification(status string) {
	VisitCandidatesClassified.WithLabelValues(status).Inc()
}

// RecordApply records the outcome counts and duration of one apply call.
// result is "committed", "rolled_back" or "cancelled"; counts are only
// recorded for committed applies.
func RecordApply(result string, duration time.Duration, created, confirmed, deleted, skipped int) {
	VisitApplyDuration.WithLabelValues(result).Observe(duration.Seconds())
	if result != "committed" {
		return
	}
	VisitApplyOutcomes.WithLabelValues("created").Add(float64(created))
	VisitApplyOutcomes.WithLabelValues("confirmed").Add(float64(confirmed))
	VisitApplyOutcomes.WithLabelValues("deleted").Add(float64(deleted))
	VisitApplyOutcomes.WithLabelValues("skipped").Add(float64(skipped))
}

// RecordCircuitBreakerRequest records a call through a circuit breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// RecordCircuitBreakerTransition records a state change and updates the state gauge.
func RecordCircuitBreakerTransition(name, from, to string, state float64) {
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
	CircuitBreakerState.WithLabelValues(name).Set(state)
}

// RecordJobFinished counts a preview job reaching a final status.
func RecordJobFinished(status string) {
	JobsFinished.WithLabelValues(status).Inc()
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordCacheExpired records entries swept from a cache.
func RecordCacheExpired(cache string, n int) {
	if n > 0 {
		CacheExpired.WithLabelValues(cache).Add(float64(n))
	}
}

// RecordEventHandled records a subscriber handling an event.
func RecordEventHandled(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsHandled.WithLabelValues(topic, result).Inc()
}
