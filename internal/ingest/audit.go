// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"

	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/metrics"
	"github.com/toorkk/domogled/internal/models"
)

// referentialAudit counts staged BuildingPart rows whose id_posla has no
// matching staged Deal row and logs up to 5 offending ids. Never fatal
// (spec.md §4.1 step 4) - the transform step's INNER JOIN silently drops
// these rows, but surfacing the count here makes a bad export visible
// before it is quietly discarded.
func (r *Runner) referentialAudit(ctx context.Context, desc models.DatasetDescriptor) error {
	countQuery := `
		SELECT count(*)
		FROM ` + desc.StagingBuildingPartTable + ` b
		WHERE NOT EXISTS (
			SELECT 1 FROM ` + desc.StagingDealTable + ` d
			WHERE CAST(d.posel_id AS VARCHAR) = b.id_posla
		)`

	var orphanCount int64
	if err := r.db.Conn().QueryRowContext(ctx, countQuery).Scan(&orphanCount); err != nil {
		return database.WrapStoreError("referential audit count", err)
	}
	metrics.IngestionOrphanRows.WithLabelValues(string(desc.Dataset)).Set(float64(orphanCount))

	if orphanCount == 0 {
		return nil
	}

	sampleQuery := `
		SELECT b.id_posla
		FROM ` + desc.StagingBuildingPartTable + ` b
		WHERE NOT EXISTS (
			SELECT 1 FROM ` + desc.StagingDealTable + ` d
			WHERE CAST(d.posel_id AS VARCHAR) = b.id_posla
		)
		LIMIT 5`

	rows, err := r.db.Conn().QueryContext(ctx, sampleQuery)
	if err != nil {
		return database.WrapStoreError("referential audit sample", err)
	}
	defer rows.Close()

	var sample []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return database.WrapStoreError("referential audit scan", err)
		}
		sample = append(sample, id)
	}

	logging.Ctx(ctx).Warn().
		Str("dataset", string(desc.Dataset)).
		Int64("orphan_building_parts", orphanCount).
		Strs("sample_ids", sample).
		Msg("building parts reference missing deals")
	return nil
}
