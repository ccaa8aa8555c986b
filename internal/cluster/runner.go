// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package cluster

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/toorkk/domogled/internal/apperrors"
	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/metrics"
	"github.com/toorkk/domogled/internal/models"
)

// buildingZoomThreshold is the zoom level at or above which GetMapTile
// switches from distance clustering to building clustering (spec.md
// §4.5).
const buildingZoomThreshold = 14.5

// Runner answers map tile and cluster-expansion queries against one
// dataset's deduplicated table.
type Runner struct {
	db *database.DB
}

// NewRunner builds a Runner backed by db.
func NewRunner(db *database.DB) *Runner {
	return &Runner{db: db}
}

// clusterRow is one deduplicated building part fetched for clustering,
// using sql.Null* fields for nullable columns since database/sql can't
// scan directly into the *T pointer fields models.IndividualProperties
// exposes.
type clusterRow struct {
	id                 int64
	sifraKO            string
	stevilkaStavbe     int
	stevilkaDelaStavbe string
	vrstaNepremicnine  string
	obcina             string
	naselje            sql.NullString
	ulica              sql.NullString
	hisnaStevilka      sql.NullString
	povrsinaUradna     sql.NullFloat64
	povrsinaUporabna   sql.NullFloat64
	opremljenost       sql.NullString
	steviloSob         sql.NullInt64
	letoIzgradnje      sql.NullInt64
	zadnjeLeto         int
	price              sql.NullFloat64
	zadnjiDDVVkljucen  sql.NullBool
	zadnjiDDVStopnja   sql.NullFloat64
	energijskiRazred   sql.NullString
	steviloPoslov      int
	lon                float64
	lat                float64
}

func (r clusterRow) toProperties(dataset models.Dataset) models.IndividualProperties {
	p := models.IndividualProperties{
		ID:                 r.id,
		Type:               "individual",
		Dataset:            dataset,
		SifraKO:            r.sifraKO,
		StevilkaStavbe:     r.stevilkaStavbe,
		StevilkaDelaStavbe: r.stevilkaDelaStavbe,
		VrstaNepremicnine:  r.vrstaNepremicnine,
		Obcina:             r.obcina,
		SteviloPoslov:      r.steviloPoslov,
		ImaVecPoslov:       r.steviloPoslov > 1,
		ZadnjeLeto:         r.zadnjeLeto,
	}
	if r.naselje.Valid {
		p.Naselje = &r.naselje.String
	}
	if r.ulica.Valid {
		p.Ulica = &r.ulica.String
	}
	if r.hisnaStevilka.Valid {
		p.HisnaStevilka = &r.hisnaStevilka.String
	}
	if r.povrsinaUradna.Valid {
		p.PovrsinaUradna = &r.povrsinaUradna.Float64
	}
	if r.povrsinaUporabna.Valid {
		p.PovrsinaUporabna = &r.povrsinaUporabna.Float64
	}
	if r.opremljenost.Valid {
		p.Opremljenost = &r.opremljenost.String
	}
	if r.steviloSob.Valid {
		v := int(r.steviloSob.Int64)
		p.SteviloSob = &v
	}
	if r.letoIzgradnje.Valid {
		v := int(r.letoIzgradnje.Int64)
		p.LetoIzgradnje = &v
	}
	if r.zadnjiDDVVkljucen.Valid {
		p.ZadnjiDDVVkljucen = &r.zadnjiDDVVkljucen.Bool
	}
	if r.zadnjiDDVStopnja.Valid {
		p.ZadnjiDDVStopnja = &r.zadnjiDDVStopnja.Float64
	}
	if r.energijskiRazred.Valid {
		p.EnergijskiRazred = &r.energijskiRazred.String
	}
	if r.price.Valid {
		if dataset == models.NP {
			p.ZadnjaNajemnina = &r.price.Float64
		} else {
			p.ZadnjaCena = &r.price.Float64
		}
	}
	return p
}

// queryRows runs the deduplicated-table scan for dataset with whereSQL
// appended to the base filters, returning one clusterRow per match.
func (r *Runner) queryRows(ctx context.Context, dataset models.Dataset, whereSQL string, args []any) ([]clusterRow, error) {
	desc := dataset.Descriptor()
	priceColumn := desc.PriceColumn

	query := fmt.Sprintf(`
		SELECT id, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, vrsta_nepremicnine,
		       obcina, naselje, ulica, hisna_stevilka,
		       povrsina_uradna, povrsina_uporabna, opremljenost, stevilo_sob, leto_izgradnje,
		       zadnje_leto, %s, zadnji_ddv_vkljucen, zadnji_ddv_stopnja, energijski_razred,
		       len(povezani_posel_ids), lon, lat
		FROM %s
		WHERE %s`, priceColumn, desc.DeduplicatedTable, whereSQL)

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.WrapStoreError("query "+desc.DeduplicatedTable, err)
	}
	defer rows.Close()

	var out []clusterRow
	for rows.Next() {
		var row clusterRow
		if err := rows.Scan(&row.id, &row.sifraKO, &row.stevilkaStavbe, &row.stevilkaDelaStavbe, &row.vrstaNepremicnine,
			&row.obcina, &row.naselje, &row.ulica, &row.hisnaStevilka,
			&row.povrsinaUradna, &row.povrsinaUporabna, &row.opremljenost, &row.steviloSob, &row.letoIzgradnje,
			&row.zadnjeLeto, &row.price, &row.zadnjiDDVVkljucen, &row.zadnjiDDVStopnja, &row.energijskiRazred,
			&row.steviloPoslov, &row.lon, &row.lat); err != nil {
			return nil, database.WrapStoreError("scan "+desc.DeduplicatedTable+" row", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapStoreError("iterate "+desc.DeduplicatedTable, err)
	}
	return out, nil
}

// filterClauses returns the year/price/area WHERE fragments and their
// args, shared by every cluster query.
func (r *Runner) filterClauses(dataset models.Dataset, filters models.ClusterFilters) ([]string, []any) {
	desc := dataset.Descriptor()
	clauses := []string{"zadnje_leto >= ?"}
	args := []any{filters.YearMin}

	if filters.MinPrice != nil {
		clauses = append(clauses, desc.PriceColumn+" >= ?")
		args = append(args, *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		clauses = append(clauses, desc.PriceColumn+" <= ?")
		args = append(args, *filters.MaxPrice)
	}
	if filters.MinArea != nil {
		clauses = append(clauses, "povrsina_uradna >= ?")
		args = append(args, *filters.MinArea)
	}
	if filters.MaxArea != nil {
		clauses = append(clauses, "povrsina_uradna <= ?")
		args = append(args, *filters.MaxArea)
	}
	return clauses, args
}

// bboxClause returns the bbox predicate for bbox: an indexed ST_Within
// test over the geom column when the spatial extension loaded, a plain
// lon/lat range scan otherwise.
func (r *Runner) bboxClause(bbox models.BBox) (string, []any) {
	if r.db.IsSpatialAvailable() {
		return "ST_Within(geom, ST_MakeEnvelope(?, ?, ?, ?))",
			[]any{bbox.West, bbox.South, bbox.East, bbox.North}
	}
	return "lon BETWEEN ? AND ? AND lat BETWEEN ? AND ?",
		[]any{bbox.West, bbox.East, bbox.South, bbox.North}
}

// GetMapTile returns the clustered GeoJSON feature collection for bbox
// at zoom. zoom >= buildingZoomThreshold groups by building (obcina,
// sifra_ko, stevilka_stavbe); below it, groups by a distance grid cell
// sized to the zoom level (spec.md §4.5).
func (r *Runner) GetMapTile(ctx context.Context, bbox models.BBox, zoom float64, dataset models.Dataset, filters models.ClusterFilters) (models.FeatureCollection, error) {
	clauses, args := r.filterClauses(dataset, filters)
	bboxSQL, bboxArgs := r.bboxClause(bbox)
	clauses = append(clauses, bboxSQL)
	args = append(args, bboxArgs...)

	rows, err := r.queryRows(ctx, dataset, strings.Join(clauses, " AND "), args)
	if err != nil {
		return models.FeatureCollection{}, err
	}

	var fc models.FeatureCollection
	regime := "distance"
	if zoom >= buildingZoomThreshold {
		regime = "building"
		fc = buildingCluster(rows, dataset)
	} else {
		fc = distanceCluster(rows, dataset, zoom)
	}
	metrics.TileRequestsTotal.WithLabelValues(string(dataset), regime).Inc()
	metrics.TileFeatureCount.WithLabelValues(string(dataset)).Observe(float64(len(fc.Features)))
	return fc, nil
}

// buildingCluster groups rows by (obcina, sifra_ko, stevilka_stavbe),
// emitting an individual feature for a singleton group and a cluster
// feature (mean point, "b_" id) for a multi-member group.
func buildingCluster(rows []clusterRow, dataset models.Dataset) models.FeatureCollection {
	groups := make(map[models.BuildingKey][]clusterRow)
	var order []models.BuildingKey
	for _, row := range rows {
		key := models.BuildingKey{Obcina: row.obcina, SifraKO: row.sifraKO, StevilkaStavbe: row.stevilkaStavbe}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	fc := models.NewFeatureCollection()
	for _, key := range order {
		members := groups[key]
		if len(members) == 1 {
			row := members[0]
			fc.Features = append(fc.Features, models.NewPointFeature(row.lon, row.lat, row.toProperties(dataset)))
			continue
		}

		lng, lat := meanPoint(members)
		ids := make([]models.Int64ID, len(members))
		for i, m := range members {
			ids[i] = m.id
		}
		props := models.ClusterProperties{
			Type:            "cluster",
			ClusterType:     "building",
			PointCount:      len(members),
			ClusterID:       fmt.Sprintf("b_%s_%s_%d", key.Obcina, key.SifraKO, key.StevilkaStavbe),
			Obcina:          key.Obcina,
			Dataset:         dataset,
			SifraKO:         key.SifraKO,
			StevilkaStavbe:  key.StevilkaStavbe,
			DeduplicatedIDs: ids,
		}
		fc.Features = append(fc.Features, models.NewPointFeature(lng, lat, props))
	}
	return fc
}

// distanceGroupKey is the grid cell a row falls into at a given
// resolution: (obcina, floor(lon/resolution), floor(lat/resolution)).
type distanceGroupKey struct {
	obcina string
	cx, cy int
}

// distanceCluster groups rows by municipality and grid cell, the cell
// size shrinking as zoom increases (spec.md §4.5).
func distanceCluster(rows []clusterRow, dataset models.Dataset, zoom float64) models.FeatureCollection {
	resolution := clusterResolution(zoom)

	groups := make(map[distanceGroupKey][]clusterRow)
	var order []distanceGroupKey
	for _, row := range rows {
		key := distanceGroupKey{
			obcina: row.obcina,
			cx:     int(math.Floor(row.lon / resolution)),
			cy:     int(math.Floor(row.lat / resolution)),
		}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	fc := models.NewFeatureCollection()
	for _, key := range order {
		members := groups[key]
		if len(members) == 1 {
			row := members[0]
			fc.Features = append(fc.Features, models.NewPointFeature(row.lon, row.lat, row.toProperties(dataset)))
			continue
		}

		lng, lat := meanPoint(members)
		ids := make([]models.Int64ID, len(members))
		for i, m := range members {
			ids[i] = m.id
		}
		props := models.ClusterProperties{
			Type:            "cluster",
			ClusterType:     "distance",
			PointCount:      len(members),
			ClusterID:       fmt.Sprintf("d_%s_%d_%d", key.obcina, key.cx, key.cy),
			Obcina:          key.obcina,
			Dataset:         dataset,
			DeduplicatedIDs: ids,
		}
		fc.Features = append(fc.Features, models.NewPointFeature(lng, lat, props))
	}
	return fc
}

// clusterResolution implements spec.md §4.5's grid size formula: 0.01
// degrees at zoom 12, doubling for every zoom level zoomed out.
func clusterResolution(zoom float64) float64 {
	return 0.01 * math.Pow(2, 12-zoom)
}

func meanPoint(rows []clusterRow) (lng, lat float64) {
	for _, r := range rows {
		lng += r.lon
		lat += r.lat
	}
	n := float64(len(rows))
	return lng / n, lat / n
}

// GetBuildingCluster expands one building cluster into its individual
// member features, annotated with a ClusterInfo summary.
func (r *Runner) GetBuildingCluster(ctx context.Context, obcina, sifraKO string, stevilkaStavbe int, dataset models.Dataset, filters models.ClusterFilters) (models.FeatureCollection, error) {
	clauses, args := r.filterClauses(dataset, filters)
	clauses = append(clauses, "obcina = ?", "sifra_ko = ?", "stevilka_stavbe = ?")
	args = append(args, obcina, sifraKO, stevilkaStavbe)

	rows, err := r.queryRows(ctx, dataset, strings.Join(clauses, " AND "), args)
	if err != nil {
		return models.FeatureCollection{}, err
	}

	fc := models.NewFeatureCollection()
	for _, row := range rows {
		fc.Features = append(fc.Features, models.NewPointFeature(row.lon, row.lat, row.toProperties(dataset)))
	}
	fc.ClusterInfo = &models.ClusterInfo{
		ClusterID:         fmt.Sprintf("b_%s_%s_%d", obcina, sifraKO, stevilkaStavbe),
		TotalProperties:   len(fc.Features),
		SkippedProperties: 0,
		Obcina:            obcina,
		SifraKO:           sifraKO,
		StevilkaStavbe:    stevilkaStavbe,
	}
	return fc, nil
}

// ParseBuildingClusterID splits a "b_{obcina}_{sifra_ko}_{stevilka_stavbe}"
// cluster id into its parts, for handlers resolving a cluster expansion
// URL. Returns apperrors.BadRequest for a distance ("d_") cluster id,
// which spec.md explicitly disallows expanding, or a malformed id.
//
// obcina names may themselves contain underscores, so only the trailing
// two underscore-separated segments (sifra_ko, stevilka_stavbe) are
// peeled off; everything remaining is the obcina.
func ParseBuildingClusterID(clusterID string) (obcina, sifraKO string, stevilkaStavbe int, err error) {
	if strings.HasPrefix(clusterID, "d_") {
		return "", "", 0, fmt.Errorf("cluster: distance clusters are not expandable: %w", apperrors.BadRequest)
	}
	rest := strings.TrimPrefix(clusterID, "b_")
	if rest == clusterID {
		return "", "", 0, fmt.Errorf("cluster: %q is not a building cluster id: %w", clusterID, apperrors.BadRequest)
	}

	parts := strings.Split(rest, "_")
	if len(parts) < 3 {
		return "", "", 0, fmt.Errorf("cluster: malformed cluster id %q: %w", clusterID, apperrors.BadRequest)
	}

	stevilkaStavbe, convErr := strconv.Atoi(parts[len(parts)-1])
	if convErr != nil {
		return "", "", 0, fmt.Errorf("cluster: malformed cluster id %q: %w", clusterID, apperrors.BadRequest)
	}
	sifraKO = parts[len(parts)-2]
	obcina = strings.Join(parts[:len(parts)-2], "_")
	return obcina, sifraKO, stevilkaStavbe, nil
}
