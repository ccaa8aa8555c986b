// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"time"
)

// Validate checks required fields and rejects malformed values. It is
// called by Load but exported so callers that build a Config by hand
// (tests, the scheduler's default wiring) can validate it the same way.
func Validate(cfg *Config) error {
	if cfg.Database.Path == "" {
		return fmt.Errorf("database.path (DATABASE_URL) must be set")
	}
	if len(cfg.Security.CORSOrigins) == 0 {
		return fmt.Errorf("security.cors_origins (CORS_ORIGINS) must not be empty")
	}
	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return fmt.Errorf("scheduler.timezone %q: %w", cfg.Scheduler.Timezone, err)
	}
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}
	if cfg.Ingestion.StageChunkSize <= 0 {
		return fmt.Errorf("ingestion.stage_chunk_size must be positive")
	}
	if cfg.Ingestion.WorkerCount <= 0 {
		return fmt.Errorf("ingestion.worker_count must be positive")
	}
	if cfg.Server.AdminJobConcurrency <= 0 {
		return fmt.Errorf("server.admin_job_concurrency must be positive")
	}
	return nil
}
