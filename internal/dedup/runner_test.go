// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package dedup

import (
	"context"
	"testing"

	"github.com/toorkk/domogled/internal/config"
	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/jobguard"
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

	return NewRunner(db, jobguard.New()), db
}

// seedKPP inserts two deals and two building parts sharing the same
// cadastral key but different signing dates, so dedup collapses them to
// one row keeping the fresher deal's attributes.
func seedKPP(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()
	exec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Conn().ExecContext(ctx, q, args...); err != nil {
			t.Fatalf("exec %q: %v", q, err)
		}
	}

	exec(`INSERT INTO core.kpp_posel (posel_id, cena, ddv_vkljucen, ddv_stopnja, datum_sklenitve, datum_uveljavitve, leto, trzno)
		VALUES (1, 100000, false, NULL, '2022-01-01', '2022-01-10', 2022, true)`)
	exec(`INSERT INTO core.kpp_posel (posel_id, cena, ddv_vkljucen, ddv_stopnja, datum_sklenitve, datum_uveljavitve, leto, trzno)
		VALUES (2, 120000, false, NULL, '2023-06-01', '2023-06-10', 2023, true)`)

	exec(`INSERT INTO core.kpp_del_stavbe (del_stavbe_id, id_posla, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, dejanska_raba, obcina, lon, lat, leto)
		VALUES (10, 1, '1234', 5, '1', 'stanovanje', 'LJUBLJANA', 14.5, 46.0, 2022)`)
	exec(`INSERT INTO core.kpp_del_stavbe (del_stavbe_id, id_posla, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, dejanska_raba, obcina, lon, lat, leto)
		VALUES (11, 2, '1234', 5, '1', 'stanovanje', 'LJUBLJANA', 14.5, 46.0, 2023)`)
}

func TestBuildDeduplicated_CollapsesByCadastralKey(t *testing.T) {
	r, db := newTestRunner(t)
	seedKPP(t, db)

	ctx := context.Background()
	if err := r.BuildDeduplicated(ctx, models.KPP); err != nil {
		t.Fatalf("BuildDeduplicated: %v", err)
	}

	count, err := db.CountRows(ctx, "core.kpp_del_stavbe_deduplicated")
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 deduplicated row, got %d", count)
	}

	var price float64
	var najnovejsi int64
	err = db.Conn().QueryRowContext(ctx,
		"SELECT zadnja_cena, najnovejsi_del_stavbe_id FROM core.kpp_del_stavbe_deduplicated").
		Scan(&price, &najnovejsi)
	if err != nil {
		t.Fatalf("query deduplicated row: %v", err)
	}
	if price != 120000 {
		t.Fatalf("expected freshest deal's price 120000, got %v", price)
	}
	if najnovejsi != 11 {
		t.Fatalf("expected freshest del_stavbe_id 11, got %d", najnovejsi)
	}
}

func TestBuildDeduplicated_RebuildReplacesPriorContents(t *testing.T) {
	r, db := newTestRunner(t)
	seedKPP(t, db)
	ctx := context.Background()

	if err := r.BuildDeduplicated(ctx, models.KPP); err != nil {
		t.Fatalf("first BuildDeduplicated: %v", err)
	}
	if err := r.BuildDeduplicated(ctx, models.KPP); err != nil {
		t.Fatalf("second BuildDeduplicated: %v", err)
	}

	count, err := db.CountRows(ctx, "core.kpp_del_stavbe_deduplicated")
	if err != nil {
		t.Fatalf("CountRows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected truncate-then-rebuild to leave 1 row, got %d", count)
	}
}

func TestBuildAllDeduplicated_AttachesEnergyCertificateAfterBoth(t *testing.T) {
	r, db := newTestRunner(t)
	seedKPP(t, db)
	ctx := context.Background()

	_, err := db.Conn().ExecContext(ctx,
		`INSERT INTO core.energetska_izkaznica (ei_id, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, energijski_razred, tip_epbd, veljavnost_od)
		 VALUES ('EI-1', '1234', 5, '1', 'B', 'izracunana', '2023-01-01')`)
	if err != nil {
		t.Fatalf("seed energy certificate: %v", err)
	}

	if err := r.BuildAllDeduplicated(ctx, []models.Dataset{models.KPP, models.NP}); err != nil {
		t.Fatalf("BuildAllDeduplicated: %v", err)
	}

	var razred string
	err = db.Conn().QueryRowContext(ctx,
		"SELECT energijski_razred FROM core.kpp_del_stavbe_deduplicated").Scan(&razred)
	if err != nil {
		t.Fatalf("query energijski_razred: %v", err)
	}
	if razred != "B" {
		t.Fatalf("expected attached certificate class B, got %s", razred)
	}
}
