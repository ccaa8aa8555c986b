// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package property

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

// seedDetailsFixture inserts one kpp dedup row backed by two
// BuildingParts, two Deals and one EnergyCertificate, wired together the
// way BuildAllDeduplicated would leave them.
func seedDetailsFixture(t *testing.T, db *database.DB) (dedupID int64) {
	t.Helper()
	ctx := context.Background()

	mustExec := func(query string, args ...any) {
		t.Helper()
		if _, err := db.Conn().ExecContext(ctx, query, args...); err != nil {
			t.Fatalf("seed: %v (query=%s)", err, query)
		}
	}

	mustExec(`INSERT INTO core.kpp_posel (posel_id, cena, ddv_vkljucen, ddv_stopnja, datum_sklenitve, datum_uveljavitve, leto, trzno)
		VALUES (1, 150000, false, NULL, '2025-01-10', '2025-01-20', 2025, true)`)
	mustExec(`INSERT INTO core.kpp_posel (posel_id, cena, ddv_vkljucen, ddv_stopnja, datum_sklenitve, datum_uveljavitve, leto, trzno)
		VALUES (2, 140000, false, NULL, '2024-06-01', '2024-06-15', 2024, true)`)

	mustExec(`INSERT INTO core.kpp_del_stavbe
		(del_stavbe_id, id_posla, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, dejanska_raba,
		 obcina, naselje, ulica, hisna_stevilka, povrsina_uradna, povrsina_uporabna, leto_izgradnje,
		 vrsta_nepremicnine, opremljenost, stevilo_sob, lon, lat, leto)
		VALUES (10, 1, '1234', 5, '1', 'stanovanje', 'LJUBLJANA', 'Bezigrad', 'Dunajska', '1', 50.0, 48.0, 1990,
		        'stanovanje', 'opremljeno', 2, 14.5, 46.0, 2025)`)
	mustExec(`INSERT INTO core.kpp_del_stavbe
		(del_stavbe_id, id_posla, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, dejanska_raba,
		 obcina, naselje, ulica, hisna_stevilka, povrsina_uradna, povrsina_uporabna, leto_izgradnje,
		 vrsta_nepremicnine, opremljenost, stevilo_sob, lon, lat, leto)
		VALUES (11, 2, '1234', 5, '1', 'stanovanje', 'LJUBLJANA', 'Bezigrad', 'Dunajska', '1', 50.0, 48.0, 1990,
		        'stanovanje', 'opremljeno', 2, 14.5, 46.0, 2024)`)

	mustExec(`INSERT INTO core.energetska_izkaznica
		(ei_id, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, veljavnost_od, veljavnost_do,
		 energijski_razred, tip_epbd)
		VALUES ('EI-1', '1234', 5, '1', '2020-01-01', '2030-01-01', 'C', 'stavba')`)

	mustExec(`INSERT INTO core.kpp_del_stavbe_deduplicated
		(sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, dejanska_raba,
		 povezani_del_stavbe_ids, povezani_posel_ids, najnovejsi_del_stavbe_id,
		 obcina, naselje, ulica, hisna_stevilka, povrsina_uradna, povrsina_uporabna, leto_izgradnje,
		 vrsta_nepremicnine, opremljenost, stevilo_sob, lon, lat,
		 zadnja_cena, zadnje_leto, energetske_izkaznice, energijski_razred)
		VALUES ('1234', 5, '1', 'stanovanje', [10, 11], [1, 2], 10,
		        'LJUBLJANA', 'Bezigrad', 'Dunajska', '1', 50.0, 48.0, 1990,
		        'stanovanje', 'opremljeno', 2, 14.5, 46.0,
		        150000, 2025, ['EI-1'], 'C')`)

	row := db.Conn().QueryRowContext(ctx, `SELECT id FROM core.kpp_del_stavbe_deduplicated LIMIT 1`)
	if err := row.Scan(&dedupID); err != nil {
		t.Fatalf("read seeded id: %v", err)
	}
	return dedupID
}

func TestGetDetails_ReturnsFullFeature(t *testing.T) {
	r, db := newTestRunner(t)
	id := seedDetailsFixture(t, db)

	feature, err := r.GetDetails(context.Background(), id, models.KPP)
	if err != nil {
		t.Fatalf("GetDetails: %v", err)
	}

	props, ok := feature.Properties.(models.DetailsProperties)
	if !ok {
		t.Fatalf("expected DetailsProperties, got %T", feature.Properties)
	}
	if len(props.BuildingParts) != 2 {
		t.Fatalf("expected 2 building parts, got %d", len(props.BuildingParts))
	}
	if len(props.Deals) != 2 {
		t.Fatalf("expected 2 deals, got %d", len(props.Deals))
	}
	if props.Deals[0].PoselID != 1 {
		t.Fatalf("expected most recent deal (posel_id=1) first, got %d", props.Deals[0].PoselID)
	}
	if len(props.EnergyCertificates) != 1 || props.EnergyCertificates[0].EIID != "EI-1" {
		t.Fatalf("expected 1 energy certificate EI-1, got %+v", props.EnergyCertificates)
	}
	if props.SteviloPoslov != 2 || !props.ImaVecPoslov {
		t.Fatalf("expected stevilo_poslov=2 ima_vec_poslov=true, got %d/%v", props.SteviloPoslov, props.ImaVecPoslov)
	}
	if props.SifraKO != "1234" || props.StevilkaStavbe != 5 {
		t.Fatalf("unexpected representative identity: %+v", props)
	}
}

func TestGetDetails_UnknownID_ReturnsNotFound(t *testing.T) {
	r, _ := newTestRunner(t)
	_, err := r.GetDetails(context.Background(), 999, models.KPP)
	if !errors.Is(err, apperrors.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
