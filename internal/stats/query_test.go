// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/toorkk/domogled/internal/apperrors"
	"github.com/toorkk/domogled/internal/models"
)

func seedCache(t *testing.T, r *Runner) {
	t.Helper()
	ctx := context.Background()
	exec := func(q string, args ...any) {
		t.Helper()
		if _, err := r.db.Conn().ExecContext(ctx, q, args...); err != nil {
			t.Fatalf("exec %q: %v", q, err)
		}
	}

	insert := `INSERT INTO stats.statistike_cache
		(region_kind, region_name, deal_kind, property_kind, period_kind, leto,
		 transaction_count, average_price, median_price, average_price_per_sqm, median_price_per_sqm, average_area)
		VALUES ('obcina', 'LJUBLJANA', ?, ?, 'yearly', ?, ?, ?, ?, NULL, NULL, NULL)`

	exec(insert, "sale", "apartment", 2023, 10, 150000.0, 140000.0)
	exec(insert, "sale", "apartment", 2024, 12, 160000.0, 150000.0)
	exec(`INSERT INTO stats.statistike_cache
		(region_kind, region_name, deal_kind, property_kind, period_kind, leto,
		 transaction_count, average_price, median_price, average_price_per_sqm, median_price_per_sqm, average_area)
		VALUES ('obcina', 'LJUBLJANA', 'sale', 'apartment', 'last_12_months', NULL, 5, 155000.0, 150000.0, NULL, NULL, NULL)`)
	exec(`INSERT INTO stats.statistike_cache
		(region_kind, region_name, deal_kind, property_kind, period_kind, leto,
		 transaction_count, average_price, median_price, average_price_per_sqm, median_price_per_sqm, average_area)
		VALUES ('obcina', 'LJUBLJANA', 'rent', 'house', 'last_12_months', NULL, 3, 700.0, 650.0, NULL, NULL, NULL)`)
	exec(`INSERT INTO stats.statistike_cache
		(region_kind, region_name, deal_kind, property_kind, period_kind, leto,
		 transaction_count, average_price, median_price, average_price_per_sqm, median_price_per_sqm, average_area)
		VALUES ('obcina', 'MARIBOR', 'sale', 'house', 'last_12_months', NULL, 7, 90000.0, 88000.0, NULL, NULL, NULL)`)
}

func TestGetFull_OrdersYearlyDescendingAndFillsLast12m(t *testing.T) {
	r, _ := newTestRunner(t)
	seedCache(t, r)

	full, err := r.GetFull(context.Background(), "LJUBLJANA", models.RegionMunicipality)
	if err != nil {
		t.Fatalf("GetFull: %v", err)
	}

	yearly := full.Sale.Apartment.Yearly
	if len(yearly) != 2 {
		t.Fatalf("expected 2 yearly rows, got %d", len(yearly))
	}
	if *yearly[0].Year != 2024 || *yearly[1].Year != 2023 {
		t.Fatalf("expected descending years [2024, 2023], got [%d, %d]", *yearly[0].Year, *yearly[1].Year)
	}
	if full.Sale.Apartment.Last12m == nil || full.Sale.Apartment.Last12m.TransactionCount != 5 {
		t.Fatalf("expected sale apartment last12m with count 5, got %+v", full.Sale.Apartment.Last12m)
	}
	if full.Rent.House.Last12m == nil || full.Rent.House.Last12m.TransactionCount != 3 {
		t.Fatalf("expected rent house last12m with count 3, got %+v", full.Rent.House.Last12m)
	}
	if len(full.Rent.Apartment.Yearly) != 0 || full.Rent.Apartment.Last12m != nil {
		t.Fatalf("expected rent apartment empty, got %+v", full.Rent.Apartment)
	}
}

func TestGetFull_NotFoundForUnknownRegion(t *testing.T) {
	r, _ := newTestRunner(t)
	seedCache(t, r)

	_, err := r.GetFull(context.Background(), "KOPER", models.RegionMunicipality)
	if !errors.Is(err, apperrors.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestGetFull_BadRequestForInvalidRegionKind(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.GetFull(context.Background(), "LJUBLJANA", models.RegionKind("nonsense"))
	if !errors.Is(err, apperrors.BadRequest) {
		t.Fatalf("expected BadRequest, got %v", err)
	}
}

func TestGetGeneral_ReturnsOnlyLast12mRows(t *testing.T) {
	r, _ := newTestRunner(t)
	seedCache(t, r)

	general, err := r.GetGeneral(context.Background(), "LJUBLJANA", models.RegionMunicipality)
	if err != nil {
		t.Fatalf("GetGeneral: %v", err)
	}
	if general.SaleApartment == nil || general.SaleApartment.TransactionCount != 5 {
		t.Fatalf("expected sale apartment count 5, got %+v", general.SaleApartment)
	}
	if general.RentHouse == nil || general.RentHouse.TransactionCount != 3 {
		t.Fatalf("expected rent house count 3, got %+v", general.RentHouse)
	}
	if general.SaleHouse != nil || general.RentApartment != nil {
		t.Fatalf("expected unseeded combos nil, got sale_house=%+v rent_apartment=%+v", general.SaleHouse, general.RentApartment)
	}
}

func TestGetAllMunicipalitiesLast12m_SplitsAndTotals(t *testing.T) {
	r, _ := newTestRunner(t)
	seedCache(t, r)

	activity, err := r.GetAllMunicipalitiesLast12m(context.Background(), false)
	if err != nil {
		t.Fatalf("GetAllMunicipalitiesLast12m: %v", err)
	}
	if len(activity) != 2 {
		t.Fatalf("expected 2 municipalities, got %d", len(activity))
	}

	var ljubljana *models.MunicipalityActivity
	for i := range activity {
		if activity[i].RegionName == "LJUBLJANA" {
			ljubljana = &activity[i]
		}
	}
	if ljubljana == nil {
		t.Fatal("expected LJUBLJANA in results")
	}
	if ljubljana.SaleApartmentCount != 5 || ljubljana.RentHouseCount != 3 {
		t.Fatalf("unexpected counts: %+v", ljubljana)
	}
	if ljubljana.SaleTotal != 5 || ljubljana.RentTotal != 3 || ljubljana.Total != 8 {
		t.Fatalf("unexpected totals: %+v", ljubljana)
	}
}
