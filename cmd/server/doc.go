// Footprint - Location Timeline and Visit Inference
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footprint

/*
Package main is the footprint server: the visit backfill HTTP API over a
local DuckDB location history.

# Startup

 1. Configuration: .env (godotenv), then defaults, config.yaml and
    environment variables (Koanf v2)
 2. Logging: zerolog, JSON or console
 3. Database: DuckDB with trips, places, visits and location pings
 4. Event bus: in-process Watermill channel for visits.applied
 5. Visit engine, behind a circuit breaker on the ping store
 6. Preview job runner with its BadgerDB result store (JOBS_ENABLED)
 7. Apply history in the backfill_audit table (AUDIT_ENABLED)
 8. Supervisor tree and HTTP server

# Supervisor tree

	footprint
	├── data-layer
	│   ├── preview-job-runner
	│   └── audit-retention
	├── messaging-layer
	│   ├── info-cache-invalidator
	│   ├── cache-janitor-backfill_info
	│   └── backfill-audit
	└── api-layer
	    └── http-server

# Configuration

	DUCKDB_PATH=/data/footprint.duckdb
	HTTP_PORT=3857
	HTTP_PREVIEW_TIMEOUT=5m      # write timeout; previews can scan for minutes
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	VISITS_STRICT_RADIUS_METERS=50
	VISITS_TIER_MULTIPLIER=50    # 2-100
	VISITS_WORKERS=4
	VISITS_QUERIES_PER_SECOND=0  # 0 = unlimited

	JOBS_ENABLED=true
	JOBS_PATH=                   # BadgerDB directory, empty = in-memory

	CORS_ORIGINS=*
	RATE_LIMIT_REQUESTS=100
	PREVIEW_RATE_LIMIT_REQUESTS=10

CONFIG_PATH points at a YAML file with the same keys; DOTENV_PATH at a
.env file other than ./.env.

# Signals

SIGINT and SIGTERM stop job submissions, cancel the tree and give the HTTP
server HTTP_SHUTDOWN_TIMEOUT to drain. An apply still running when its
request context ends rolls back.
*/
package main
