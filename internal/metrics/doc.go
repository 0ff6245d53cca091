// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and exposed
at /metrics in Prometheus text format:

	curl http://localhost:3857/metrics

# Available Metrics

Database:
  - duckdb_query_duration_seconds{operation,table}
  - duckdb_query_errors_total{operation,table}

API:
  - api_requests_total{method,endpoint,status_code}
  - api_request_duration_seconds{method,endpoint}
  - api_active_requests

Visit inference:
  - visit_preview_duration_seconds{result}
  - visit_places_scanned_total, visit_pings_scanned_total, visit_scan_warnings_total
  - visit_candidates_classified_total{status}
  - visit_apply_outcomes_total{outcome}, visit_apply_duration_seconds{result}

Resilience and background work:
  - circuit_breaker_state{name}, circuit_breaker_requests_total{name,result}
  - preview_job_queue_depth, preview_jobs_finished_total{status}, preview_jobs_rejected_total
  - cache_hits_total{cache}, cache_misses_total{cache}
  - events_published_total{topic}, events_handled_total{topic,result}

# Usage

	start := time.Now()
	rows, err := db.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("SELECT", "location_pings", time.Since(start), err)
*/
package metrics
