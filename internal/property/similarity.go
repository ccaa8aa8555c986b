// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package property

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"

	"github.com/toorkk/domogled/internal/apperrors"
	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/metrics"
	"github.com/toorkk/domogled/internal/models"
)

// earthRadiusKm is used for the haversine distance between reference and
// candidate coordinates (spec.md §4.7 step 2/4).
const earthRadiusKm = 6371.0

// candidateRadiusMarginKm pads the SQL-side bounding box around
// radius_km before the exact haversine filter runs in Go, so a point
// just inside the circle isn't dropped by the box's corner rounding.
const candidateRadiusMarginKm = 1.0

// similarityRow is one candidate deduplicated row, matching clusterRow's
// sql.Null* scan shape.
type similarityRow struct {
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

func (r similarityRow) area() *float64 {
	if r.povrsinaUradna.Valid {
		return &r.povrsinaUradna.Float64
	}
	if r.povrsinaUporabna.Valid {
		return &r.povrsinaUporabna.Float64
	}
	return nil
}

func (r similarityRow) toProperties(dataset models.Dataset) models.IndividualProperties {
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

// haversineKm returns the great-circle distance in kilometres between
// two WGS-84 points.
func haversineKm(lon1, lat1, lon2, lat2 float64) float64 {
	toRad := math.Pi / 180
	dLat := (lat2 - lat1) * toRad
	dLon := (lon2 - lon1) * toRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*toRad)*math.Cos(lat2*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// boundingBoxDegrees returns a lat/lon box radiusKm (plus a safety
// margin) around (lon, lat), used as a cheap SQL-side prefilter before
// the exact haversine distance is computed in Go. Graceful degradation
// doesn't apply here (unlike internal/cluster's bboxClause): this is a
// plain lon/lat range scan regardless of spatial extension
// availability, since the exact circle test always happens in Go.
func boundingBoxDegrees(lon, lat, radiusKm float64) (minLon, maxLon, minLat, maxLat float64) {
	padded := radiusKm + candidateRadiusMarginKm
	latDelta := padded / 111.0
	lonDelta := padded / (111.0 * math.Max(math.Cos(lat*math.Pi/180), 0.01))
	return lon - lonDelta, lon + lonDelta, lat - latDelta, lat + latDelta
}

// loadSimilarityCandidates fetches every row of the same vrsta_nepremicnine
// as refID (excluding refID itself) whose coordinates fall within the
// padded bounding box.
func (r *Runner) loadSimilarityCandidates(ctx context.Context, dataset models.Dataset, refID int64, vrstaNepremicnine string, minLon, maxLon, minLat, maxLat float64) ([]similarityRow, error) {
	desc := dataset.Descriptor()
	query := fmt.Sprintf(`
		SELECT id, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, vrsta_nepremicnine,
		       obcina, naselje, ulica, hisna_stevilka,
		       povrsina_uradna, povrsina_uporabna, opremljenost, stevilo_sob, leto_izgradnje,
		       zadnje_leto, %s, zadnji_ddv_vkljucen, zadnji_ddv_stopnja, energijski_razred,
		       len(povezani_posel_ids), lon, lat
		FROM %s
		WHERE id != ? AND vrsta_nepremicnine = ?
		  AND lon BETWEEN ? AND ? AND lat BETWEEN ? AND ?`,
		desc.PriceColumn, desc.DeduplicatedTable)

	rows, err := r.db.Conn().QueryContext(ctx, query, refID, vrstaNepremicnine, minLon, maxLon, minLat, maxLat)
	if err != nil {
		return nil, database.WrapStoreError("query "+desc.DeduplicatedTable, err)
	}
	defer rows.Close()

	var out []similarityRow
	for rows.Next() {
		var row similarityRow
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

// scoreCandidate implements spec.md §4.7 step 3's weighted scoring.
// Every criterion whose reference AND candidate value are both present
// contributes score/weight; the final score is rescaled to 100 over the
// weight actually in play. Location always contributes since both ends
// always carry coordinates.
func scoreCandidate(refPrice, refArea *float64, refYear *int, refEnergyIdx int, refEnergyOK bool, distanceKm float64, cand similarityRow) float64 {
	var totalScore, totalWeight float64

	totalScore += locationScore(distanceKm)
	totalWeight += 20

	if refArea != nil {
		if candArea := cand.area(); candArea != nil {
			totalScore += ratioScore(30, *refArea, *candArea)
			totalWeight += 30
		}
	}
	if refPrice != nil && cand.price.Valid {
		totalScore += ratioScore(25, *refPrice, cand.price.Float64)
		totalWeight += 25
	}
	if refYear != nil && cand.letoIzgradnje.Valid {
		delta := math.Abs(float64(*refYear - int(cand.letoIzgradnje.Int64)))
		totalScore += clamp(15 * (1 - delta/30))
		totalWeight += 15
	}
	if refEnergyOK && cand.energijskiRazred.Valid {
		if candIdx, ok := models.EnergyClassIndex(cand.energijskiRazred.String); ok {
			delta := math.Abs(float64(refEnergyIdx - candIdx))
			totalScore += clamp(10 * (1 - delta/6))
			totalWeight += 10
		}
	}

	if totalWeight == 0 {
		return 0
	}
	return 100 * totalScore / totalWeight
}

// ratioScore implements the "30*(1-|Δ|/ref)" / "25*(1-|Δ|/ref)" shape
// shared by the area and price criteria.
func ratioScore(weight, ref, cand float64) float64 {
	if ref == 0 {
		return 0
	}
	delta := math.Abs(cand - ref)
	return clamp(weight * (1 - delta/ref))
}

// locationScore implements the piecewise distance scoring of spec.md
// §4.7's table.
func locationScore(distanceKm float64) float64 {
	switch {
	case distanceKm <= 1:
		return 20
	case distanceKm <= 3:
		return 15
	case distanceKm <= 5:
		return 10
	default:
		return clamp(20 * (1 - (distanceKm-5)/10))
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// formatNaslov renders "street number, settlement, municipality",
// dropping the settlement when it equals the municipality and omitting
// any piece that is absent (spec.md §4.7 step 4).
func formatNaslov(ulica, hisnaStevilka, naselje *string, obcina string) string {
	var parts []string

	var street string
	if ulica != nil {
		street = *ulica
	}
	if hisnaStevilka != nil {
		if street != "" {
			street += " " + *hisnaStevilka
		} else {
			street = *hisnaStevilka
		}
	}
	if street != "" {
		parts = append(parts, street)
	}

	if naselje != nil && *naselje != "" && *naselje != obcina {
		parts = append(parts, *naselje)
	}
	parts = append(parts, obcina)

	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}

// GetSimilar returns up to limit properties of the same type as refID,
// within radiusKm, ranked by similarity score descending (spec.md §4.7).
func (r *Runner) GetSimilar(ctx context.Context, refID int64, dataset models.Dataset, limit int, radiusKm float64) (results []models.SimilarProperty, err error) {
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.SimilarityRequestsTotal.WithLabelValues(string(dataset), outcome).Inc()
	}()

	ref, err := r.loadDedupRow(ctx, dataset, refID)
	if err != nil {
		return nil, err
	}

	var refPrice *float64
	priceRow, err := r.priceOf(ctx, dataset, ref.id)
	if err != nil {
		return nil, err
	}
	refPrice = priceRow

	refArea := ref.area()
	var refYear *int
	if ref.letoIzgradnje.Valid {
		v := int(ref.letoIzgradnje.Int64)
		refYear = &v
	}
	refEnergyIdx, refEnergyOK := 0, false
	if ref.energijskiRazred.Valid {
		refEnergyIdx, refEnergyOK = models.EnergyClassIndex(ref.energijskiRazred.String)
	}

	minLon, maxLon, minLat, maxLat := boundingBoxDegrees(ref.lon, ref.lat, radiusKm)
	candidates, err := r.loadSimilarityCandidates(ctx, dataset, refID, ref.vrstaNepremicnine, minLon, maxLon, minLat, maxLat)
	if err != nil {
		return nil, err
	}

	for _, cand := range candidates {
		distanceKm := haversineKm(ref.lon, ref.lat, cand.lon, cand.lat)
		if distanceKm > radiusKm {
			continue
		}
		if refArea != nil {
			if candArea := cand.area(); candArea == nil || math.Abs(*candArea-*refArea) > 0.15*(*refArea) {
				continue
			}
		}
		if refYear != nil {
			if !cand.letoIzgradnje.Valid || math.Abs(float64(*refYear-int(cand.letoIzgradnje.Int64))) > 10 {
				continue
			}
		}
		if refPrice != nil {
			if !cand.price.Valid || math.Abs(cand.price.Float64-*refPrice) > 0.15*(*refPrice) {
				continue
			}
		}

		score := scoreCandidate(refPrice, refArea, refYear, refEnergyIdx, refEnergyOK, distanceKm, cand)
		results = append(results, models.SimilarProperty{
			Properties: cand.toProperties(dataset),
			Score:      score,
			DistanceKm: math.Round(distanceKm*100) / 100,
			Naslov:     formatNaslov(cand.ulicaPtr(), cand.hisnaStevilkaPtr(), cand.naseljePtr(), cand.obcina),
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (r similarityRow) ulicaPtr() *string {
	if r.ulica.Valid {
		return &r.ulica.String
	}
	return nil
}

func (r similarityRow) hisnaStevilkaPtr() *string {
	if r.hisnaStevilka.Valid {
		return &r.hisnaStevilka.String
	}
	return nil
}

func (r similarityRow) naseljePtr() *string {
	if r.naselje.Valid {
		return &r.naselje.String
	}
	return nil
}

// priceOf returns the price column for dedupID, a separate roundtrip
// since dedupRow (loaded by loadDedupRow for GetDetails) doesn't carry
// it.
func (r *Runner) priceOf(ctx context.Context, dataset models.Dataset, dedupID int64) (*float64, error) {
	desc := dataset.Descriptor()
	var price sql.NullFloat64
	err := r.db.Conn().QueryRowContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE id = ?`, desc.PriceColumn, desc.DeduplicatedTable), dedupID).Scan(&price)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("property: deduplicated id %d: %w", dedupID, apperrors.NotFound)
	}
	if err != nil {
		return nil, database.WrapStoreError("load "+desc.DeduplicatedTable+" price", err)
	}
	if !price.Valid {
		return nil, nil
	}
	return &price.Float64, nil
}
