// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package cluster

import (
	"context"
	"errors"
	"testing"

	"github.com/toorkk/domogled/internal/apperrors"
	"github.com/toorkk/domogled/internal/config"
	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/models"
)

func newTestRunner(t *testing.T) (*Runner, *database.DB) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Database.Path = ":memory:"

	db, err := database.New(context.Background(), &cfg.Database, 0, 0)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewRunner(db), db
}

// seedDedupRow inserts one core.kpp_del_stavbe_deduplicated row at
// (lon, lat) keyed by (sifraKO, stevilkaStavbe, stevilkaDelaStavbe).
func seedDedupRow(t *testing.T, db *database.DB, sifraKO string, stevilkaStavbe int, stevilkaDelaStavbe string, obcina string, lon, lat float64, leto int) {
	t.Helper()
	ctx := context.Background()
	_, err := db.Conn().ExecContext(ctx, `
		INSERT INTO core.kpp_del_stavbe_deduplicated
		(sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, dejanska_raba,
		 povezani_del_stavbe_ids, povezani_posel_ids, najnovejsi_del_stavbe_id,
		 obcina, povrsina_uradna, vrsta_nepremicnine, lon, lat,
		 zadnja_cena, zadnje_leto)
		VALUES (?, ?, ?, 'stanovanje', [1], [1], 1, ?, 50.0, 'stanovanje', ?, ?, 150000, ?)`,
		sifraKO, stevilkaStavbe, stevilkaDelaStavbe, obcina, lon, lat, leto)
	if err != nil {
		t.Fatalf("seed dedup row: %v", err)
	}
}

var ljubljanaBBox = models.BBox{West: 14.0, South: 45.5, East: 15.0, North: 46.5}

func TestGetMapTile_BuildingRegime_GroupsByBuilding(t *testing.T) {
	r, db := newTestRunner(t)
	seedDedupRow(t, db, "1234", 5, "1", "LJUBLJANA", 14.5, 46.0, 2025)
	seedDedupRow(t, db, "1234", 5, "2", "LJUBLJANA", 14.5, 46.0, 2025)
	seedDedupRow(t, db, "1234", 9, "1", "LJUBLJANA", 14.51, 46.01, 2025)

	fc, err := r.GetMapTile(context.Background(), ljubljanaBBox, 16, models.KPP, models.DefaultClusterFilters())
	if err != nil {
		t.Fatalf("GetMapTile: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features (1 cluster + 1 individual), got %d", len(fc.Features))
	}

	var sawCluster, sawIndividual bool
	for _, f := range fc.Features {
		switch props := f.Properties.(type) {
		case models.ClusterProperties:
			sawCluster = true
			if props.PointCount != 2 || props.ClusterType != "building" {
				t.Fatalf("unexpected cluster properties: %+v", props)
			}
			if props.ClusterID != "b_LJUBLJANA_1234_5" {
				t.Fatalf("unexpected cluster id: %s", props.ClusterID)
			}
		case models.IndividualProperties:
			sawIndividual = true
			if props.StevilkaStavbe != 9 {
				t.Fatalf("unexpected individual stevilka_stavbe: %d", props.StevilkaStavbe)
			}
		default:
			t.Fatalf("unexpected properties type %T", f.Properties)
		}
	}
	if !sawCluster || !sawIndividual {
		t.Fatalf("expected both a cluster and an individual feature, got %+v", fc.Features)
	}
}

func TestGetMapTile_DistanceRegime_GroupsByGridCell(t *testing.T) {
	r, db := newTestRunner(t)
	// zoom 6 -> resolution 0.01 * 2^6 = 0.64 degrees; these two fall in
	// the same grid cell, the third is far enough to land in another.
	seedDedupRow(t, db, "1234", 5, "1", "LJUBLJANA", 14.50, 46.00, 2025)
	seedDedupRow(t, db, "1234", 6, "1", "LJUBLJANA", 14.55, 46.05, 2025)
	seedDedupRow(t, db, "1234", 7, "1", "LJUBLJANA", 15.90, 46.00, 2025)

	fc, err := r.GetMapTile(context.Background(), models.BBox{West: 13.0, South: 45.0, East: 16.0, North: 47.0}, 6, models.KPP, models.DefaultClusterFilters())
	if err != nil {
		t.Fatalf("GetMapTile: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features (1 cluster + 1 individual), got %d", len(fc.Features))
	}

	var sawDistanceCluster bool
	for _, f := range fc.Features {
		if props, ok := f.Properties.(models.ClusterProperties); ok {
			sawDistanceCluster = true
			if props.ClusterType != "distance" || props.PointCount != 2 {
				t.Fatalf("unexpected distance cluster: %+v", props)
			}
		}
	}
	if !sawDistanceCluster {
		t.Fatalf("expected a distance cluster, got %+v", fc.Features)
	}
}

func TestGetMapTile_FiltersByYearMin(t *testing.T) {
	r, db := newTestRunner(t)
	seedDedupRow(t, db, "1234", 5, "1", "LJUBLJANA", 14.5, 46.0, 2023)

	fc, err := r.GetMapTile(context.Background(), ljubljanaBBox, 16, models.KPP, models.DefaultClusterFilters())
	if err != nil {
		t.Fatalf("GetMapTile: %v", err)
	}
	if len(fc.Features) != 0 {
		t.Fatalf("expected year filter to exclude the 2023 row, got %d features", len(fc.Features))
	}
}

func TestGetBuildingCluster_ExpandsAllMembers(t *testing.T) {
	r, db := newTestRunner(t)
	seedDedupRow(t, db, "1234", 5, "1", "LJUBLJANA", 14.5, 46.0, 2025)
	seedDedupRow(t, db, "1234", 5, "2", "LJUBLJANA", 14.5, 46.0, 2025)

	fc, err := r.GetBuildingCluster(context.Background(), "LJUBLJANA", "1234", 5, models.KPP, models.DefaultClusterFilters())
	if err != nil {
		t.Fatalf("GetBuildingCluster: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 individual features, got %d", len(fc.Features))
	}
	if fc.ClusterInfo == nil || fc.ClusterInfo.TotalProperties != 2 {
		t.Fatalf("expected cluster_info.total_properties 2, got %+v", fc.ClusterInfo)
	}
	for _, f := range fc.Features {
		if _, ok := f.Properties.(models.IndividualProperties); !ok {
			t.Fatalf("expected individual properties in expansion, got %T", f.Properties)
		}
	}
}

func TestParseBuildingClusterID_RejectsDistanceCluster(t *testing.T) {
	_, _, _, err := ParseBuildingClusterID("d_LJUBLJANA_1449_4604")
	if !errors.Is(err, apperrors.BadRequest) {
		t.Fatalf("expected BadRequest for a distance cluster id, got %v", err)
	}
}

func TestParseBuildingClusterID_ParsesBuildingCluster(t *testing.T) {
	obcina, sifraKO, stevilkaStavbe, err := ParseBuildingClusterID("b_LJUBLJANA_1234_5")
	if err != nil {
		t.Fatalf("ParseBuildingClusterID: %v", err)
	}
	if obcina != "LJUBLJANA" || sifraKO != "1234" || stevilkaStavbe != 5 {
		t.Fatalf("unexpected parse result: obcina=%s sifraKO=%s stevilkaStavbe=%d", obcina, sifraKO, stevilkaStavbe)
	}
}

func TestParseBuildingClusterID_HandlesUnderscoresInObcina(t *testing.T) {
	obcina, sifraKO, stevilkaStavbe, err := ParseBuildingClusterID("b_NOVO_MESTO_1234_5")
	if err != nil {
		t.Fatalf("ParseBuildingClusterID: %v", err)
	}
	if obcina != "NOVO_MESTO" || sifraKO != "1234" || stevilkaStavbe != 5 {
		t.Fatalf("unexpected parse result: obcina=%s sifraKO=%s stevilkaStavbe=%d", obcina, sifraKO, stevilkaStavbe)
	}
}

