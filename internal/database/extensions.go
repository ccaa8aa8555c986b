// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/toorkk/domogled/internal/logging"
)

// extensionTimeout bounds each INSTALL/LOAD attempt. DuckDB's CGO calls
// don't reliably respect context cancellation, so a goroutine-based hard
// timeout backstops ctx here the way the upstream driver recommends.
const extensionTimeout = 30 * time.Second

// installSpatialExtension installs (or loads, if already present) the
// spatial extension that every C1/C6/C7b geometry operation depends on.
// Failure is non-fatal: db.spatialAvailable stays false and callers that
// check it can degrade gracefully (used by tests run offline).
func (db *DB) installSpatialExtension(ctx context.Context) error {
	if err := db.execWithHardTimeout(ctx, "INSTALL spatial"); err != nil {
		logging.Debug().Err(err).Msg("INSTALL spatial failed, trying LOAD")
	}
	if err := db.execWithHardTimeout(ctx, "LOAD spatial"); err != nil {
		return fmt.Errorf("load spatial extension: %w", err)
	}
	db.spatialAvailable = true
	return nil
}

func (db *DB) execWithHardTimeout(ctx context.Context, query string) error {
	ctx, cancel := context.WithTimeout(ctx, extensionTimeout)
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		_, err := db.conn.ExecContext(ctx, query)
		resultCh <- err
	}()

	select {
	case err := <-resultCh:
		return err
	case <-time.After(extensionTimeout):
		return fmt.Errorf("%q timed out after %s", query, extensionTimeout)
	}
}
