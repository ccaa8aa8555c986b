// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package main is the entry point for the domogled server.

domogled ingests Slovenia's public rental and sale transaction registers,
deduplicates them into canonical building-part rows, enriches those rows
with energy-performance certificates, materializes regional statistics,
and serves a zoom-adaptive clustered map view plus per-property and
per-region queries.

# Application Architecture

The server runs two independent process groups under a suture
supervisor tree:

	root ("domogled")
	├── scheduler-layer
	│   └── the weekly ingestion -> EI ingestion -> dedup -> stats job
	└── api-layer
	    └── the HTTP server (chi router, spec.md §6's routes)

A crash in the weekly scheduler does not take down the API, and a panic
handling one HTTP request does not take down the scheduler; each layer
restarts independently with backoff.

Component initialization order:

 1. Configuration: koanf, layered defaults -> config file -> environment
 2. Logging: zerolog, JSON or console depending on configuration
 3. Database: DuckDB with the spatial extension, schemas bootstrapped
 4. Pipeline runners: ingest, eiingest, dedup, stats, cluster, property
 5. Scheduler: the weekly cron job, wired to the same runners and job guard
 6. HTTP router: chi, wired to the same runners
 7. Supervisor tree: both layers added, then served until a shutdown signal

# Configuration

See internal/config for the full set of options. The two environment
variables named directly in spec.md §6 are DATABASE_URL and CORS_ORIGINS;
everything else may be set via DOMOGLED_-prefixed environment variables,
a YAML config file, or left at its default.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM: the
supervisor tree is given its configured shutdown timeout to let the
scheduler finish its current step and the HTTP server drain in-flight
requests before the process exits.

# Exit Codes

0 on clean shutdown; non-zero on startup failure (missing/invalid
configuration, database initialization failure, scheduler construction
failure).
*/
package main
