// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import "context"

func (db *DB) createSchemas(ctx context.Context) error {
	for _, schema := range []string{"staging", "core", "stats"} {
		if _, err := db.conn.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) createTables(ctx context.Context) error {
	stmts := append([]string{}, sequenceDDL...)
	stmts = append(stmts, datasetTableDDL("np", db.spatialAvailable)...)
	stmts = append(stmts, datasetTableDDL("kpp", db.spatialAvailable)...)
	stmts = append(stmts, sharedTableDDL...)
	for _, stmt := range stmts {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) createIndexes(ctx context.Context) error {
	if !db.spatialAvailable {
		return nil
	}
	for _, prefix := range []string{"np", "kpp"} {
		stmt := "CREATE INDEX IF NOT EXISTS idx_" + prefix + "_dedup_geom ON core." + prefix +
			"_del_stavbe_deduplicated USING RTREE (geom)"
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// datasetTableDDL returns the staging+core+deduplicated table definitions
// for one dataset ("np" or "kpp"). The two families are structurally
// identical apart from the deal price column name (zadnja_najemnina vs
// zadnja_cena), matching models.DatasetDescriptor. The geom column is
// omitted entirely when the spatial extension failed to load, since the
// GEOMETRY type itself is only registered once the extension is loaded.
func datasetTableDDL(prefix string, spatialAvailable bool) []string {
	priceColumn := "zadnja_cena"
	if prefix == "np" {
		priceColumn = "zadnja_najemnina"
	}

	geomColumn := ""
	if spatialAvailable {
		geomColumn = " geom GEOMETRY,"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS staging.` + prefix + `_posel (
			posel_id VARCHAR, cena VARCHAR, ddv_vkljucen VARCHAR, ddv_stopnja VARCHAR,
			datum_sklenitve VARCHAR, datum_uveljavitve VARCHAR, trzno VARCHAR, najemnina VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS staging.` + prefix + `_del_stavbe (
			del_stavbe_id VARCHAR, id_posla VARCHAR, sifra_ko VARCHAR, stevilka_stavbe VARCHAR,
			stevilka_dela_stavbe VARCHAR, dejanska_raba VARCHAR, obcina VARCHAR, naselje VARCHAR,
			ulica VARCHAR, hisna_stevilka VARCHAR, povrsina_uradna VARCHAR, povrsina_uporabna VARCHAR,
			leto_izgradnje VARCHAR, vrsta_nepremicnine VARCHAR, opremljenost VARCHAR, stevilo_sob VARCHAR,
			x_koordinata VARCHAR, y_koordinata VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS core.` + prefix + `_posel (
			posel_id BIGINT PRIMARY KEY, cena DOUBLE, ddv_vkljucen BOOLEAN, ddv_stopnja DOUBLE,
			datum_sklenitve DATE, datum_uveljavitve DATE, leto INTEGER NOT NULL, trzno BOOLEAN
		)`,
		`CREATE TABLE IF NOT EXISTS core.` + prefix + `_del_stavbe (
			del_stavbe_id BIGINT PRIMARY KEY, id_posla BIGINT NOT NULL,
			sifra_ko VARCHAR NOT NULL, stevilka_stavbe INTEGER NOT NULL, stevilka_dela_stavbe VARCHAR NOT NULL,
			dejanska_raba VARCHAR NOT NULL, obcina VARCHAR NOT NULL, naselje VARCHAR, ulica VARCHAR,
			hisna_stevilka VARCHAR, povrsina_uradna DOUBLE, povrsina_uporabna DOUBLE, leto_izgradnje INTEGER,
			vrsta_nepremicnine VARCHAR, opremljenost VARCHAR, stevilo_sob INTEGER,
			lon DOUBLE, lat DOUBLE, leto INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS core.` + prefix + `_del_stavbe_deduplicated (
			id BIGINT PRIMARY KEY DEFAULT nextval('` + prefix + `_dedup_seq'),
			sifra_ko VARCHAR NOT NULL, stevilka_stavbe INTEGER NOT NULL, stevilka_dela_stavbe VARCHAR NOT NULL,
			dejanska_raba VARCHAR NOT NULL,
			povezani_del_stavbe_ids BIGINT[] NOT NULL, povezani_posel_ids BIGINT[] NOT NULL,
			najnovejsi_del_stavbe_id BIGINT NOT NULL,
			obcina VARCHAR NOT NULL, naselje VARCHAR, ulica VARCHAR, hisna_stevilka VARCHAR,
			povrsina_uradna DOUBLE, povrsina_uporabna DOUBLE, leto_izgradnje INTEGER,
			vrsta_nepremicnine VARCHAR, opremljenost VARCHAR, stevilo_sob INTEGER,
			lon DOUBLE NOT NULL, lat DOUBLE NOT NULL,` + geomColumn + `
			` + priceColumn + ` DOUBLE, zadnji_ddv_vkljucen BOOLEAN, zadnji_ddv_stopnja DOUBLE,
			zadnje_leto INTEGER NOT NULL, zadnji_datum_sklenitve DATE,
			energetske_izkaznice VARCHAR[], energijski_razred VARCHAR,
			UNIQUE (sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, dejanska_raba)
		)`,
	}
}

var sequenceDDL = []string{
	`CREATE SEQUENCE IF NOT EXISTS np_dedup_seq`,
	`CREATE SEQUENCE IF NOT EXISTS kpp_dedup_seq`,
	`CREATE SEQUENCE IF NOT EXISTS ei_seq`,
}

var sharedTableDDL = []string{
	`CREATE TABLE IF NOT EXISTS staging.energetska_izkaznica (
		ei_id VARCHAR, sifra_ko VARCHAR, stevilka_stavbe VARCHAR, stevilka_dela_stavbe VARCHAR,
		veljavnost_od VARCHAR, veljavnost_do VARCHAR,
		potrebna_toplota_ogrevanje VARCHAR, skupna_energija VARCHAR, emisije_co2 VARCHAR,
		primarna_energija VARCHAR, kondicionirana_povrsina VARCHAR,
		energijski_razred VARCHAR, tip_epbd VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS core.energetska_izkaznica (
		id BIGINT PRIMARY KEY DEFAULT nextval('ei_seq'),
		ei_id VARCHAR NOT NULL, sifra_ko VARCHAR NOT NULL, stevilka_stavbe INTEGER NOT NULL,
		stevilka_dela_stavbe VARCHAR NOT NULL,
		veljavnost_od DATE, veljavnost_do DATE,
		potrebna_toplota_ogrevanje DOUBLE, skupna_energija DOUBLE, emisije_co2 DOUBLE,
		primarna_energija DOUBLE, kondicionirana_povrsina DOUBLE,
		energijski_razred VARCHAR NOT NULL, tip_epbd VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS core.sifranti (
		sifrant VARCHAR NOT NULL, sifra VARCHAR NOT NULL, naziv VARCHAR NOT NULL,
		PRIMARY KEY (sifrant, sifra)
	)`,
	`CREATE TABLE IF NOT EXISTS core.municipality_alias (
		normalized_key VARCHAR PRIMARY KEY, obcina VARCHAR NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stats.statistike_cache (
		region_kind VARCHAR NOT NULL, region_name VARCHAR NOT NULL,
		deal_kind VARCHAR NOT NULL, property_kind VARCHAR NOT NULL, period_kind VARCHAR NOT NULL,
		leto INTEGER,
		transaction_count INTEGER NOT NULL, average_price DOUBLE, median_price DOUBLE,
		average_price_per_sqm DOUBLE, median_price_per_sqm DOUBLE, average_area DOUBLE
	)`,
}
