// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/metrics"
	"github.com/toorkk/domogled/internal/models"
)

// stageCSV truncates table, reads path as UTF-8 CSV with lowercased
// header columns, and bulk-inserts every row (spec.md §4.1 step 3). The
// staging table must already have a VARCHAR column for every header
// present; extra CSV columns not present in table are rejected by
// DuckDB at insert time, surfacing a schema drift loudly instead of
// silently dropping data.
func (r *Runner) stageCSV(ctx context.Context, dataset, table, path string) (int64, error) {
	if err := r.db.TruncateStaging(ctx, table); err != nil {
		return 0, err
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("ingest: read header %s: %w", path, err)
	}
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(col))
	}

	var rows [][]any
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		row := make([]any, len(columns))
		for i := range columns {
			if i < len(record) {
				row[i] = record[i]
			}
		}
		rows = append(rows, row)
	}

	inserted, err := database.BulkInsert(ctx, r.db.Conn(), table, columns, rows)
	if err != nil {
		return 0, err
	}

	count, err := r.db.CountRows(ctx, table)
	if err != nil {
		return 0, err
	}
	logging.Ctx(ctx).Info().Str("table", table).Int("inserted", inserted).Int64("row_count", count).
		Msg("staged CSV")
	metrics.IngestionStagedRows.WithLabelValues(dataset, table).Set(float64(count))
	return count, nil
}

// stageBoth loads the posel and del_stavbe CSVs for one dataset
// concurrently via the bounded worker pool.
func (r *Runner) stageBoth(ctx context.Context, desc models.DatasetDescriptor, files extractedFiles) error {
	jobs := []func() error{
		func() error {
			_, err := r.stageCSV(ctx, string(desc.Dataset), desc.StagingDealTable, files.posel)
			return err
		},
		func() error {
			_, err := r.stageCSV(ctx, string(desc.Dataset), desc.StagingBuildingPartTable, files.delStavbe)
			return err
		},
	}
	return r.pool.Run(jobs)
}
