// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads domogled's configuration from layered sources:
// built-in defaults, an optional YAML file, then environment variables,
// using koanf the way a production Go service in this stack does.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
	Ingestion IngestionConfig `koanf:"ingestion"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	// Path is the filesystem path to the DuckDB database file. Populated
	// from DATABASE_URL; a bare filesystem path is accepted directly, and
	// a "duckdb://" scheme prefix is stripped if present.
	Path string `koanf:"path"`

	// Threads is passed to DuckDB's PRAGMA threads. Zero means
	// runtime.NumCPU().
	Threads int `koanf:"threads"`

	// MaxOpenConns/MaxIdleConns/ConnMaxLifetime/ConnMaxIdleTime configure
	// the database/sql pool in front of the single DuckDB file, matching
	// spec.md §5's guideline values.
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`

	// StatementTimeout is loaded and defaulted here, but no SQL execution
	// reads it: statements run without a per-statement timeout.
	StatementTimeout time.Duration `koanf:"statement_timeout"`

	// ServerLat/ServerLon default to 0 and are not read by any component,
	// whether configured or not.
	ServerLat float64 `koanf:"server_lat"`
	ServerLon float64 `koanf:"server_lon"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// AdminJobConcurrency bounds how many admin-triggered background jobs
	// (ingest/dedup/EI-ingest/stats-refresh) internal/jobqueue runs at
	// once.
	AdminJobConcurrency int `koanf:"admin_job_concurrency"`
}

// SecurityConfig configures CORS.
type SecurityConfig struct {
	// CORSOrigins is the allow-list, from the CORS_ORIGINS comma list.
	CORSOrigins []string `koanf:"cors_origins"`
	// CORSCredentialsAllowed mirrors spec.md §6: credentials are allowed.
	CORSCredentialsAllowed bool `koanf:"cors_credentials_allowed"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IngestionConfig configures the C2/C3 pipelines.
type IngestionConfig struct {
	// HTTPTimeout bounds a single download request.
	HTTPTimeout time.Duration `koanf:"http_timeout"`

	// StageChunkSize is validated but not read by the Stage step: staging
	// inserts use the fixed database.BulkInsertChunkSize (1000 rows).
	StageChunkSize int `koanf:"stage_chunk_size"`

	// WorkerCount bounds the pool that runs the Stage step's CSV loads
	// concurrently.
	WorkerCount int `koanf:"worker_count"`

	// RateLimitPerSecond bounds outbound requests to register endpoints.
	RateLimitPerSecond float64 `koanf:"rate_limit_per_second"`

	// CircuitBreakerFailureThreshold is consecutive failures before the
	// breaker opens for a dataset's downloader.
	CircuitBreakerFailureThreshold uint32 `koanf:"circuit_breaker_failure_threshold"`

	// NPMetadataURL/KPPMetadataURL are the register metadata endpoints
	// (spec.md §4.1 step 1); the downloader appends the filter query
	// parameters, with filterYear set to the requested year.
	NPMetadataURL  string `koanf:"np_metadata_url"`
	KPPMetadataURL string `koanf:"kpp_metadata_url"`

	// EIBaseURL is the base the default EI CSV URL is built against
	// (spec.md §4.2): "{EIBaseURL}ei_javni_register_{monthAbbrev}{yy}.csv".
	EIBaseURL string `koanf:"ei_base_url"`

	// DefaultStartYearNP/DefaultStartYearKPP/DefaultEndYear hold the same
	// values as the ingest-trigger defaults, but the admin handlers use
	// their own constants (internal/api/handlers_admin.go) and do not read
	// these fields.
	DefaultStartYearNP  int `koanf:"default_start_year_np"`
	DefaultStartYearKPP int `koanf:"default_start_year_kpp"`
	DefaultEndYear      int `koanf:"default_end_year"`
}

// SchedulerConfig configures the weekly C8 job.
type SchedulerConfig struct {
	// Timezone is the local zone the weekly job fires in (spec.md §4.8:
	// "Europe/Ljubljana").
	Timezone string `koanf:"timezone"`

	// Cron is the 5-field cron expression for the weekly fire time
	// (spec.md §4.8: "Friday 20:00" → "0 20 * * 5").
	Cron string `koanf:"cron"`

	// CheckInterval is how often the scheduler wakes to compare "now"
	// against the next computed fire time.
	CheckInterval time.Duration `koanf:"check_interval"`

	// Enabled allows disabling the weekly job (e.g. in tests).
	Enabled bool `koanf:"enabled"`

	// CursorPath is the BadgerDB directory used to remember the last
	// completed run, independent of the DuckDB data file.
	CursorPath string `koanf:"cursor_path"`
}

// DefaultConfig returns sensible built-in defaults. Defaults are applied
// first; a config file and then environment variables may override them.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:             "data/domogled.duckdb",
			Threads:          0,
			MaxOpenConns:     30,
			MaxIdleConns:     8,
			ConnMaxLifetime:  time.Hour,
			ConnMaxIdleTime:  5 * time.Minute,
			StatementTimeout: 300 * time.Second,
		},
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8080,
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        60 * time.Second,
			IdleTimeout:         120 * time.Second,
			AdminJobConcurrency: 4,
		},
		Security: SecurityConfig{
			CORSOrigins:            []string{"http://localhost:5173"},
			CORSCredentialsAllowed: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Ingestion: IngestionConfig{
			HTTPTimeout:                    5 * time.Minute,
			StageChunkSize:                 1000,
			WorkerCount:                    4,
			RateLimitPerSecond:             4,
			CircuitBreakerFailureThreshold: 5,
			NPMetadataURL:                  "https://prostor3.gov.si/ows-grape/xmlsearch/np",
			KPPMetadataURL:                 "https://prostor3.gov.si/ows-grape/xmlsearch/kpp",
			EIBaseURL:                      "https://registri.gov.si/ei/",
			DefaultStartYearNP:             2013,
			DefaultStartYearKPP:            2007,
			DefaultEndYear:                 2025,
		},
		Scheduler: SchedulerConfig{
			Timezone:      "Europe/Ljubljana",
			Cron:          "0 20 * * 5",
			CheckInterval: time.Minute,
			Enabled:       true,
			CursorPath:    "data/scheduler-cursor",
		},
	}
}
