// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package dedup

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/jobguard"
	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/metrics"
	"github.com/toorkk/domogled/internal/models"
	"github.com/toorkk/domogled/internal/sqlassets"
)

// Runner rebuilds deduplicated building-part tables. One Runner is
// shared by the scheduler and the API's on-demand trigger; guard keeps a
// dataset's rebuild from overlapping that dataset's ingestion run.
type Runner struct {
	db    *database.DB
	guard *jobguard.Guard
}

// NewRunner builds a Runner backed by db.
func NewRunner(db *database.DB, guard *jobguard.Guard) *Runner {
	return &Runner{db: db, guard: guard}
}

// BuildDeduplicated rebuilds dataset's deduplicated table from its core
// deal/building-part tables, without attaching energy certificates (that
// only happens via BuildAllDeduplicated, once both datasets agree).
func (r *Runner) BuildDeduplicated(ctx context.Context, dataset models.Dataset) error {
	if r.guard != nil {
		if err := r.guard.AcquireDedup(dataset); err != nil {
			return fmt.Errorf("dedup: %w", err)
		}
		defer r.guard.ReleaseDedup(dataset)
	}
	return r.buildOne(ctx, dataset.Descriptor())
}

// BuildAllDeduplicated rebuilds both datasets' deduplicated tables, then
// attaches energy certificates to both once both have finished (spec.md
// §4.3's ordering guarantee: the certificate join must see every
// deduplicated row regardless of which dataset finishes first).
func (r *Runner) BuildAllDeduplicated(ctx context.Context, datasets []models.Dataset) error {
	if r.guard != nil {
		if err := r.guard.AcquireAllDedup(datasets); err != nil {
			return fmt.Errorf("dedup: %w", err)
		}
		defer r.guard.ReleaseAllDedup(datasets)
	}
	return r.BuildAllDeduplicatedLocked(ctx, datasets)
}

// BuildAllDeduplicatedLocked runs the same rebuild as BuildAllDeduplicated
// without touching the jobguard, for callers that reserve every dataset's
// slot synchronously themselves before acknowledging a request (the admin
// API's trigger handler); BuildAllDeduplicated uses it internally once
// its own guard acquisition succeeds.
func (r *Runner) BuildAllDeduplicatedLocked(ctx context.Context, datasets []models.Dataset) error {
	for _, dataset := range datasets {
		if err := r.buildOne(ctx, dataset.Descriptor()); err != nil {
			return err
		}
	}

	for _, dataset := range datasets {
		if err := r.attachEnergyCertificates(ctx, dataset.Descriptor()); err != nil {
			return fmt.Errorf("dedup: attach energy certificates for %s: %w", dataset, err)
		}
	}

	return nil
}

func (r *Runner) buildOne(ctx context.Context, desc models.DatasetDescriptor) (err error) {
	log := logging.Ctx(ctx).With().Str("dataset", string(desc.Dataset)).Logger()
	log.Info().Msg("starting deduplication run")

	var inputCount, outputCount int64
	defer func() {
		metrics.ObserveDedupRun(string(desc.Dataset), inputCount, outputCount, err)
	}()

	inputCount, err = r.db.CountRows(ctx, desc.BuildingPartTable)
	if err != nil {
		return fmt.Errorf("dedup: count %s: %w", desc.BuildingPartTable, err)
	}

	params := sqlassets.Params{
		DealTable:         desc.DealTable,
		BuildingPartTable: desc.BuildingPartTable,
		DeduplicatedTable: desc.DeduplicatedTable,
		PriceColumn:       desc.PriceColumn,
		SpatialAvailable:  r.db.IsSpatialAvailable(),
	}
	dedupSQL, err := sqlassets.Render(sqlassets.Name(desc.DeduplicationTemplate), params)
	if err != nil {
		return fmt.Errorf("dedup: render %s: %w", desc.DeduplicationTemplate, err)
	}

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE "+desc.DeduplicatedTable); err != nil {
			return database.WrapStoreError("truncate "+desc.DeduplicatedTable, err)
		}
		return database.ExecTemplate(ctx, tx, dedupSQL)
	})
	if err != nil {
		return fmt.Errorf("dedup: rebuild %s: %w", desc.DeduplicatedTable, err)
	}

	outputCount, err = r.db.CountRows(ctx, desc.DeduplicatedTable)
	if err != nil {
		return fmt.Errorf("dedup: count %s: %w", desc.DeduplicatedTable, err)
	}

	logVerification(log, inputCount, outputCount)
	return nil
}

// logVerification logs the spec.md §4.3 verification numbers. A positive
// ratio (fewer deduplicated rows than source rows) is expected; output
// exceeding input is logged as a warning but never fails the run.
func logVerification(log zerolog.Logger, inputCount, outputCount int64) {
	var ratio float64
	if inputCount > 0 {
		ratio = float64(inputCount-outputCount) / float64(inputCount)
	}

	event := log.Info()
	if outputCount > inputCount {
		event = log.Warn()
	}
	event.Int64("input_rows", inputCount).Int64("output_rows", outputCount).
		Float64("dedup_ratio", ratio).Msg("deduplication run complete")
}

func (r *Runner) attachEnergyCertificates(ctx context.Context, desc models.DatasetDescriptor) error {
	params := sqlassets.Params{DeduplicatedTable: desc.DeduplicatedTable}
	attachSQL, err := sqlassets.Render(sqlassets.EnergyCertificateDedup, params)
	if err != nil {
		return fmt.Errorf("render %s: %w", sqlassets.EnergyCertificateDedup, err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return database.ExecTemplate(ctx, tx, attachSQL)
	})
}
