// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/toorkk/domogled/internal/apperrors"
	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/models"
)

// cacheRowScan holds the nullable columns of one statistike_cache row
// before they're converted to the *T fields models.StatisticsCacheRow
// exposes; database/sql can't scan directly into a **T destination.
type cacheRowScan struct {
	year               sql.NullInt64
	averagePrice       sql.NullFloat64
	medianPrice        sql.NullFloat64
	averagePricePerSqm sql.NullFloat64
	medianPricePerSqm  sql.NullFloat64
	averageArea        sql.NullFloat64
}

func (s *cacheRowScan) apply(row *models.StatisticsCacheRow) {
	if s.year.Valid {
		v := int(s.year.Int64)
		row.Year = &v
	}
	row.AveragePrice = nullFloat(s.averagePrice)
	row.MedianPrice = nullFloat(s.medianPrice)
	row.AveragePricePerSqm = nullFloat(s.averagePricePerSqm)
	row.MedianPricePerSqm = nullFloat(s.medianPricePerSqm)
	row.AverageArea = nullFloat(s.averageArea)
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// GetFull returns every cached row for (regionKind, region) grouped into
// the fixed sale/rent × apartment/house skeleton, yearly rows ordered
// descending by year (spec.md §4.4).
func (r *Runner) GetFull(ctx context.Context, region string, regionKind models.RegionKind) (*models.FullStatistics, error) {
	if _, ok := models.ParseRegionKind(string(regionKind)); !ok {
		return nil, fmt.Errorf("stats: region kind %q: %w", regionKind, apperrors.BadRequest)
	}

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT deal_kind, property_kind, period_kind, leto,
		       transaction_count, average_price, median_price,
		       average_price_per_sqm, median_price_per_sqm, average_area
		FROM stats.statistike_cache
		WHERE region_kind = ? AND region_name = ?
		ORDER BY leto DESC NULLS LAST`, string(regionKind), region)
	if err != nil {
		return nil, database.WrapStoreError("query statistike_cache", err)
	}
	defer rows.Close()

	full := &models.FullStatistics{}
	found := false

	for rows.Next() {
		var dealKind, propertyKind, periodKind string
		var scan cacheRowScan
		row := models.StatisticsCacheRow{RegionKind: regionKind, RegionName: region}
		if err := rows.Scan(&dealKind, &propertyKind, &periodKind, &scan.year,
			&row.TransactionCount, &scan.averagePrice, &scan.medianPrice,
			&scan.averagePricePerSqm, &scan.medianPricePerSqm, &scan.averageArea); err != nil {
			return nil, database.WrapStoreError("scan statistike_cache row", err)
		}
		scan.apply(&row)
		row.DealKind = models.DealKind(dealKind)
		row.PropertyKind = models.PropertyKind(propertyKind)
		row.PeriodKind = models.PeriodKind(periodKind)

		period := periodFor(full, row.DealKind, row.PropertyKind)
		if period == nil {
			continue
		}
		found = true
		if row.PeriodKind == models.PeriodLast12Months {
			rowCopy := row
			period.Last12m = &rowCopy
		} else {
			period.Yearly = append(period.Yearly, row)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapStoreError("iterate statistike_cache", err)
	}
	if !found {
		return nil, fmt.Errorf("stats: %s %s: %w", regionKind, region, apperrors.NotFound)
	}
	return full, nil
}

// periodFor returns the PeriodStatistics slot in full matching
// (dealKind, propertyKind), or nil for a combination the schema doesn't
// define (only apartment/house are known PropertyKinds).
func periodFor(full *models.FullStatistics, dealKind models.DealKind, propertyKind models.PropertyKind) *models.PeriodStatistics {
	var property *models.PropertyStatistics
	switch dealKind {
	case models.DealSale:
		property = &full.Sale
	case models.DealRent:
		property = &full.Rent
	default:
		return nil
	}
	switch propertyKind {
	case models.PropertyApartment:
		return &property.Apartment
	case models.PropertyHouse:
		return &property.House
	default:
		return nil
	}
}

// GetGeneral returns only the four trailing-12-month rows for
// (regionKind, region) as a flat summary.
func (r *Runner) GetGeneral(ctx context.Context, region string, regionKind models.RegionKind) (*models.GeneralStatistics, error) {
	if _, ok := models.ParseRegionKind(string(regionKind)); !ok {
		return nil, fmt.Errorf("stats: region kind %q: %w", regionKind, apperrors.BadRequest)
	}

	rows, err := r.db.Conn().QueryContext(ctx, `
		SELECT deal_kind, property_kind,
		       transaction_count, average_price, median_price,
		       average_price_per_sqm, median_price_per_sqm, average_area
		FROM stats.statistike_cache
		WHERE region_kind = ? AND region_name = ? AND period_kind = 'last_12_months'`,
		string(regionKind), region)
	if err != nil {
		return nil, database.WrapStoreError("query statistike_cache", err)
	}
	defer rows.Close()

	general := &models.GeneralStatistics{}
	found := false

	for rows.Next() {
		var dealKind, propertyKind string
		var scan cacheRowScan
		row := models.StatisticsCacheRow{
			RegionKind: regionKind, RegionName: region,
			PeriodKind: models.PeriodLast12Months,
		}
		if err := rows.Scan(&dealKind, &propertyKind,
			&row.TransactionCount, &scan.averagePrice, &scan.medianPrice,
			&scan.averagePricePerSqm, &scan.medianPricePerSqm, &scan.averageArea); err != nil {
			return nil, database.WrapStoreError("scan statistike_cache row", err)
		}
		scan.apply(&row)
		row.DealKind = models.DealKind(dealKind)
		row.PropertyKind = models.PropertyKind(propertyKind)

		rowCopy := row
		switch {
		case row.DealKind == models.DealSale && row.PropertyKind == models.PropertyApartment:
			general.SaleApartment, found = &rowCopy, true
		case row.DealKind == models.DealSale && row.PropertyKind == models.PropertyHouse:
			general.SaleHouse, found = &rowCopy, true
		case row.DealKind == models.DealRent && row.PropertyKind == models.PropertyApartment:
			general.RentApartment, found = &rowCopy, true
		case row.DealKind == models.DealRent && row.PropertyKind == models.PropertyHouse:
			general.RentHouse, found = &rowCopy, true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapStoreError("iterate statistike_cache", err)
	}
	if !found {
		return nil, fmt.Errorf("stats: %s %s: %w", regionKind, region, apperrors.NotFound)
	}
	return general, nil
}

// GetAllMunicipalitiesLast12m returns one MunicipalityActivity per
// municipality (and, when includeCadastral is set, one per cadastral
// municipality too) with counts split by (deal_kind, property_kind) plus
// per-deal-kind and grand totals.
func (r *Runner) GetAllMunicipalitiesLast12m(ctx context.Context, includeCadastral bool) ([]models.MunicipalityActivity, error) {
	regionKinds := []string{string(models.RegionMunicipality)}
	if includeCadastral {
		regionKinds = append(regionKinds, string(models.RegionCadastralMunicipality))
	}
	placeholders := make([]string, len(regionKinds))
	args := make([]any, len(regionKinds))
	for i, rk := range regionKinds {
		placeholders[i] = "?"
		args[i] = rk
	}

	query := fmt.Sprintf(`
		SELECT region_kind, region_name, deal_kind, property_kind, transaction_count
		FROM stats.statistike_cache
		WHERE period_kind = 'last_12_months' AND region_kind IN (%s)
		ORDER BY region_kind, region_name`, strings.Join(placeholders, ", "))

	rows, err := r.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.WrapStoreError("query statistike_cache", err)
	}
	defer rows.Close()

	index := make(map[string]int)
	var activity []models.MunicipalityActivity

	for rows.Next() {
		var regionKind, regionName, dealKind, propertyKind string
		var count int
		if err := rows.Scan(&regionKind, &regionName, &dealKind, &propertyKind, &count); err != nil {
			return nil, database.WrapStoreError("scan statistike_cache row", err)
		}

		key := regionKind + "|" + regionName
		i, ok := index[key]
		if !ok {
			activity = append(activity, models.MunicipalityActivity{
				RegionKind: models.RegionKind(regionKind),
				RegionName: regionName,
			})
			i = len(activity) - 1
			index[key] = i
		}

		entry := &activity[i]
		switch {
		case dealKind == string(models.DealSale) && propertyKind == string(models.PropertyApartment):
			entry.SaleApartmentCount = count
		case dealKind == string(models.DealSale) && propertyKind == string(models.PropertyHouse):
			entry.SaleHouseCount = count
		case dealKind == string(models.DealRent) && propertyKind == string(models.PropertyApartment):
			entry.RentApartmentCount = count
		case dealKind == string(models.DealRent) && propertyKind == string(models.PropertyHouse):
			entry.RentHouseCount = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapStoreError("iterate statistike_cache", err)
	}

	for i := range activity {
		entry := &activity[i]
		entry.SaleTotal = entry.SaleApartmentCount + entry.SaleHouseCount
		entry.RentTotal = entry.RentApartmentCount + entry.RentHouseCount
		entry.Total = entry.SaleTotal + entry.RentTotal
	}
	return activity, nil
}
