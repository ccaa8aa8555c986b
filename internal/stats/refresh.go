// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/metrics"
	"github.com/toorkk/domogled/internal/sqlassets"
)

// Runner rebuilds and serves the statistics cache. One Runner is shared
// by the scheduler (RefreshAll) and the API (the Get* read methods).
type Runner struct {
	db *database.DB
}

// NewRunner builds a Runner backed by db.
func NewRunner(db *database.DB) *Runner {
	return &Runner{db: db}
}

// viewNames lists the four materialized views in the replacement order
// spec.md §4.4 step 1 specifies.
var viewNames = []sqlassets.Name{
	sqlassets.SaleStatisticsView,
	sqlassets.RentStatisticsView,
	sqlassets.SaleStatisticsView12m,
	sqlassets.RentStatisticsView12m,
}

// RefreshAll rebuilds the four materialized views, then the flat
// statistike_cache table, in the sequence spec.md §4.4 specifies. Each
// step commits independently so a failure partway through leaves the
// prior step's result in place rather than rolling back the whole
// refresh.
func (r *Runner) RefreshAll(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.StatsRefreshTotal.WithLabelValues(outcome).Inc()
		metrics.StatsRefreshDuration.Observe(time.Since(start).Seconds())
	}()

	log := logging.Ctx(ctx)
	log.Info().Msg("starting statistics refresh")

	if err = r.replaceViews(ctx); err != nil {
		return fmt.Errorf("stats: replace views: %w", err)
	}

	if err = r.truncateCache(ctx); err != nil {
		return fmt.Errorf("stats: truncate cache: %w", err)
	}

	var yearlyRows, last12mRows int64
	yearlyRows, last12mRows, err = r.populateCache(ctx)
	if err != nil {
		return fmt.Errorf("stats: populate cache: %w", err)
	}
	metrics.StatsCacheRows.WithLabelValues("yearly").Set(float64(yearlyRows))
	metrics.StatsCacheRows.WithLabelValues("last_12_months").Set(float64(last12mRows))

	log.Info().Int64("yearly_rows", yearlyRows).Int64("last12m_rows", last12mRows).
		Msg("statistics refresh complete")
	return nil
}

func (r *Runner) replaceViews(ctx context.Context) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, name := range viewNames {
			rendered, err := sqlassets.Render(name, struct{}{})
			if err != nil {
				return fmt.Errorf("render %s: %w", name, err)
			}
			if err := database.ExecTemplate(ctx, tx, rendered); err != nil {
				return fmt.Errorf("replace %s: %w", name, err)
			}
		}
		return nil
	})
}

func (r *Runner) truncateCache(ctx context.Context) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE stats.statistike_cache"); err != nil {
			return database.WrapStoreError("truncate stats.statistike_cache", err)
		}
		return nil
	})
}

func (r *Runner) populateCache(ctx context.Context) (yearlyRows, last12mRows int64, err error) {
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		yearlySQL, renderErr := sqlassets.Render(sqlassets.StatisticsCacheYearly, struct{}{})
		if renderErr != nil {
			return fmt.Errorf("render yearly cache template: %w", renderErr)
		}
		res, execErr := tx.ExecContext(ctx, yearlySQL)
		if execErr != nil {
			return database.WrapStoreError("populate yearly cache", execErr)
		}
		yearlyRows, _ = res.RowsAffected()

		last12mSQL, renderErr := sqlassets.Render(sqlassets.StatisticsCacheLast12m, struct{}{})
		if renderErr != nil {
			return fmt.Errorf("render last-12-month cache template: %w", renderErr)
		}
		res, execErr = tx.ExecContext(ctx, last12mSQL)
		if execErr != nil {
			return database.WrapStoreError("populate last-12-month cache", execErr)
		}
		last12mRows, _ = res.RowsAffected()
		return nil
	})
	return yearlyRows, last12mRows, err
}
