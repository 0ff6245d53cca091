// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
Package config provides centralized configuration management for Footprint.

Configuration is layered with Koanf v2. Later layers override earlier ones:
  - Built-in defaults (defaultConfig)
  - An optional YAML file: $CONFIG_PATH, ./config.yaml, /etc/footprint/config.yaml
  - Environment variables (only the names listed in envMappings)

# Environment Variables

Database:
  - DUCKDB_PATH: Database file path (default: /data/footprint.duckdb)
  - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 2GB)
  - DUCKDB_THREADS: Worker threads (default: 0 = NumCPU)

HTTP Server:
  - HTTP_HOST, HTTP_PORT (default: 0.0.0.0:3857)
  - HTTP_TIMEOUT: Read timeout (default: 30s)
  - HTTP_PREVIEW_TIMEOUT: Write timeout, sized for synchronous previews (default: 5m)

Visit inference:
  - VISITS_STRICT_RADIUS_METERS: Tier-1 radius (default: 50)
  - VISITS_TIER_MULTIPLIER: Outer radius multiplier, 2-100 (default: 50)
  - VISITS_MIN_CONFIRMED_HITS (default: 3), VISITS_MIN_SUGGESTED_HITS (default: 5)
  - VISITS_CHUNK_SIZE (default: 500), VISITS_MAX_QUERY_PARAMS (default: 65535)
  - VISITS_WORKERS: Concurrent chunk scanners (default: 4)
  - VISITS_QUERIES_PER_SECOND: Ping query throttle (default: 0 = unlimited)

Jobs:
  - JOBS_ENABLED, JOBS_PATH, JOBS_WORKERS, JOBS_QUEUE_SIZE, JOBS_RESULT_TTL

Apply history:
  - AUDIT_ENABLED (default: true)
  - AUDIT_RETENTION (default: 2160h), AUDIT_CLEANUP_INTERVAL (default: 24h)

Security and logging:
  - CORS_ORIGINS: Comma-separated origins (default: *)
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT
  - PREVIEW_RATE_LIMIT_REQUESTS
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatalf("Failed to load config: %v", err)
	}
*/
package config
