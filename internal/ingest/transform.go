// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/models"
	"github.com/toorkk/domogled/internal/sqlassets"
)

// transform replaces year's partition of desc's core tables with the
// staged rows, in one transaction: delete, then deal transform, then
// building-part transform (deals first so the FK is satisfied). Any
// error rolls the whole transaction back, leaving the store unchanged
// for that year (spec.md §4.1 step 5).
func (r *Runner) transform(ctx context.Context, desc models.DatasetDescriptor, year int) error {
	params := sqlassetsParams(desc, year, r.db.IsSpatialAvailable())

	dealSQL, err := sqlassets.Render(sqlassets.Name(desc.DealTransformTemplate), params)
	if err != nil {
		return fmt.Errorf("ingest: render %s: %w", desc.DealTransformTemplate, err)
	}
	buildingPartSQL, err := sqlassets.Render(sqlassets.Name(desc.BuildingPartTransformTemplate), params)
	if err != nil {
		return fmt.Errorf("ingest: render %s: %w", desc.BuildingPartTransformTemplate, err)
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := database.DeleteYearPartition(ctx, tx, desc.BuildingPartTable, year); err != nil {
			return err
		}
		if err := database.DeleteYearPartition(ctx, tx, desc.DealTable, year); err != nil {
			return err
		}
		if err := database.ExecTemplate(ctx, tx, dealSQL); err != nil {
			return err
		}
		if err := database.ExecTemplate(ctx, tx, buildingPartSQL); err != nil {
			return err
		}
		return nil
	})
}
