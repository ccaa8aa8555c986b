// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/toorkk/domogled/internal/config"
	"github.com/toorkk/domogled/internal/logging"
)

// DB wraps the DuckDB connection that backs every SPEC_FULL component:
// staging/core/stats schemas live in one file, geometry handled by the
// spatial extension.
type DB struct {
	conn             *sql.DB
	cfg              *config.DatabaseConfig
	spatialAvailable bool

	serverLat float64
	serverLon float64
}

// New opens the DuckDB file at cfg.Path, installs the spatial extension
// and bootstraps the staging/core/stats schemas.
func New(ctx context.Context, cfg *config.DatabaseConfig, serverLat, serverLon float64) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("database: create data directory %s: %w", dir, err)
			}
		}
	}

	connStr := fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads,
	)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("database: open %s: %w", cfg.Path, err)
	}

	db := &DB{
		conn:      conn,
		cfg:       cfg,
		serverLat: serverLat,
		serverLon: serverLon,
	}
	db.configureConnectionPool()

	if err := db.initialize(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("database: initialize: %w", err)
	}

	return db, nil
}

func (db *DB) configureConnectionPool() {
	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = runtime.NumCPU()
	}
	maxIdle := db.cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 2
	}
	lifetime := db.cfg.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	idleTime := db.cfg.ConnMaxIdleTime
	if idleTime <= 0 {
		idleTime = 5 * time.Minute
	}

	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(maxIdle)
	db.conn.SetConnMaxLifetime(lifetime)
	db.conn.SetConnMaxIdleTime(idleTime)
}

func (db *DB) initialize(ctx context.Context) error {
	if err := db.installSpatialExtension(ctx); err != nil {
		logging.Warn().Err(err).Msg("spatial extension unavailable, geometry features degraded")
	}
	if err := db.createSchemas(ctx); err != nil {
		return err
	}
	if err := db.createTables(ctx); err != nil {
		return err
	}
	if err := db.createIndexes(ctx); err != nil {
		return err
	}
	return nil
}

// IsSpatialAvailable reports whether the spatial extension loaded; C6/C7b
// degrade to non-indexed scans when false (tests run this way).
func (db *DB) IsSpatialAvailable() bool {
	return db.spatialAvailable
}

// Conn returns the underlying *sql.DB for packages that issue their own
// prepared statements (ingest, dedup, stats, cluster, property).
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("checkpoint before close failed")
	}
	return db.conn.Close()
}

func closeQuietly(conn *sql.DB) {
	_ = conn.Close()
}
