// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package property

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/toorkk/domogled/internal/apperrors"
	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/models"
)

// idChunkSize bounds how many ids go into one IN (...) list, mirroring
// the teacher's prepared-statement batching rather than issuing one
// query per id.
const idChunkSize = 200

// Runner answers property-details and similarity queries against one
// dataset's deduplicated table.
type Runner struct {
	db *database.DB
}

// NewRunner builds a Runner backed by db.
func NewRunner(db *database.DB) *Runner {
	return &Runner{db: db}
}

// dedupRow is the row read out of a dataset's deduplicated table, with
// nullable columns as sql.Null* pending conversion.
type dedupRow struct {
	id                    int64
	sifraKO               string
	stevilkaStavbe        int
	stevilkaDelaStavbe    string
	obcina                string
	naselje               sql.NullString
	ulica                 sql.NullString
	hisnaStevilka         sql.NullString
	povrsinaUradna        sql.NullFloat64
	povrsinaUporabna      sql.NullFloat64
	letoIzgradnje         sql.NullInt64
	vrstaNepremicnine     string
	opremljenost          sql.NullString
	steviloSob            sql.NullInt64
	lon                   float64
	lat                   float64
	energijskiRazred      sql.NullString
	povezaniDelStavbeIDs  []int64
	povezaniPoselIDs      []int64
	najnovejsiDelStavbeID int64
	energetskeIzkaznice   []string
}

// area returns the official area if present, falling back to usable
// area (spec.md §4.7 step 1).
func (r dedupRow) area() *float64 {
	if r.povrsinaUradna.Valid {
		return &r.povrsinaUradna.Float64
	}
	if r.povrsinaUporabna.Valid {
		return &r.povrsinaUporabna.Float64
	}
	return nil
}

func (r *Runner) loadDedupRow(ctx context.Context, dataset models.Dataset, id int64) (dedupRow, error) {
	desc := dataset.Descriptor()
	var row dedupRow
	var delStavbeIDsRaw, poselIDsRaw, izkazniceRaw any

	err := r.db.Conn().QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe,
		       obcina, naselje, ulica, hisna_stevilka,
		       povrsina_uradna, povrsina_uporabna, leto_izgradnje,
		       vrsta_nepremicnine, opremljenost, stevilo_sob,
		       lon, lat, energijski_razred,
		       povezani_del_stavbe_ids, povezani_posel_ids, najnovejsi_del_stavbe_id,
		       energetske_izkaznice
		FROM %s WHERE id = ?`, desc.DeduplicatedTable), id).Scan(
		&row.id, &row.sifraKO, &row.stevilkaStavbe, &row.stevilkaDelaStavbe,
		&row.obcina, &row.naselje, &row.ulica, &row.hisnaStevilka,
		&row.povrsinaUradna, &row.povrsinaUporabna, &row.letoIzgradnje,
		&row.vrstaNepremicnine, &row.opremljenost, &row.steviloSob,
		&row.lon, &row.lat, &row.energijskiRazred,
		&delStavbeIDsRaw, &poselIDsRaw, &row.najnovejsiDelStavbeID,
		&izkazniceRaw)
	if err == sql.ErrNoRows {
		return dedupRow{}, fmt.Errorf("property: deduplicated id %d: %w", id, apperrors.NotFound)
	}
	if err != nil {
		return dedupRow{}, database.WrapStoreError("load "+desc.DeduplicatedTable, err)
	}

	row.povezaniDelStavbeIDs, err = database.ScanInt64List(delStavbeIDsRaw)
	if err != nil {
		return dedupRow{}, database.WrapStoreError("scan povezani_del_stavbe_ids", err)
	}
	row.povezaniPoselIDs, err = database.ScanInt64List(poselIDsRaw)
	if err != nil {
		return dedupRow{}, database.WrapStoreError("scan povezani_posel_ids", err)
	}
	row.energetskeIzkaznice, err = database.ScanStringList(izkazniceRaw)
	if err != nil {
		return dedupRow{}, database.WrapStoreError("scan energetske_izkaznice", err)
	}
	return row, nil
}

// chunkInt64 splits ids into slices no longer than idChunkSize.
func chunkInt64(ids []int64) [][]int64 {
	var chunks [][]int64
	for len(ids) > idChunkSize {
		chunks = append(chunks, ids[:idChunkSize])
		ids = ids[idChunkSize:]
	}
	if len(ids) > 0 {
		chunks = append(chunks, ids)
	}
	return chunks
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func int64ArgsOf(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// buildingPartsByIDs loads BuildingParts whose del_stavbe_id is in ids,
// ordered (stevilka_stavbe, stevilka_dela_stavbe) ascending (spec.md
// §4.6 step 2).
func (r *Runner) buildingPartsByIDs(ctx context.Context, dataset models.Dataset, ids []int64) ([]models.BuildingPart, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	desc := dataset.Descriptor()
	var out []models.BuildingPart
	for _, chunk := range chunkInt64(ids) {
		query := fmt.Sprintf(`
			SELECT del_stavbe_id, id_posla, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe,
			       dejanska_raba, obcina, naselje, ulica, hisna_stevilka,
			       povrsina_uradna, povrsina_uporabna, leto_izgradnje,
			       vrsta_nepremicnine, opremljenost, stevilo_sob, lon, lat, leto
			FROM %s WHERE del_stavbe_id IN (%s)
			ORDER BY stevilka_stavbe ASC, stevilka_dela_stavbe ASC`,
			desc.BuildingPartTable, placeholders(len(chunk)))

		rows, err := r.db.Conn().QueryContext(ctx, query, int64ArgsOf(chunk)...)
		if err != nil {
			return nil, database.WrapStoreError("query "+desc.BuildingPartTable, err)
		}
		for rows.Next() {
			var bp models.BuildingPart
			if err := rows.Scan(&bp.DelStavbeID, &bp.PoselID, &bp.SifraKO, &bp.StevilkaStavbe, &bp.StevilkaDelaStavbe,
				&bp.DejanskaRaba, &bp.Obcina, &bp.Naselje, &bp.Ulica, &bp.HisnaStevilka,
				&bp.PovrsinaUradna, &bp.PovrsinaUporabna, &bp.LetoIzgradnje,
				&bp.VrstaNepremicnine, &bp.Opremljenost, &bp.SteviloSob, &bp.Lon, &bp.Lat, &bp.Leto); err != nil {
				rows.Close()
				return nil, database.WrapStoreError("scan "+desc.BuildingPartTable+" row", err)
			}
			out = append(out, bp)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, database.WrapStoreError("iterate "+desc.BuildingPartTable, err)
		}
	}
	return out, nil
}

// dealsByIDs loads Deals whose posel_id is in ids, ordered most-recent
// signing date first (spec.md §4.6 step 3).
func (r *Runner) dealsByIDs(ctx context.Context, dataset models.Dataset, ids []int64) ([]models.Deal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	desc := dataset.Descriptor()
	var out []models.Deal
	for _, chunk := range chunkInt64(ids) {
		query := fmt.Sprintf(`
			SELECT posel_id, cena, ddv_vkljucen, ddv_stopnja, datum_sklenitve, datum_uveljavitve, leto, trzno
			FROM %s WHERE posel_id IN (%s)
			ORDER BY datum_sklenitve DESC NULLS LAST, datum_uveljavitve DESC NULLS LAST`,
			desc.DealTable, placeholders(len(chunk)))

		rows, err := r.db.Conn().QueryContext(ctx, query, int64ArgsOf(chunk)...)
		if err != nil {
			return nil, database.WrapStoreError("query "+desc.DealTable, err)
		}
		for rows.Next() {
			var d models.Deal
			if err := rows.Scan(&d.PoselID, &d.Price, &d.VATIncluded, &d.VATRate,
				&d.DatumSklenitve, &d.DatumUveljavitve, &d.Leto, &d.Trzno); err != nil {
				rows.Close()
				return nil, database.WrapStoreError("scan "+desc.DealTable+" row", err)
			}
			out = append(out, d)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, database.WrapStoreError("iterate "+desc.DealTable, err)
		}
	}
	return out, nil
}

// certificatesByEIID loads energy certificates whose ei_id is in ids.
func (r *Runner) certificatesByEIID(ctx context.Context, eiIDs []string) ([]models.EnergyCertificate, error) {
	if len(eiIDs) == 0 {
		return nil, nil
	}
	var out []models.EnergyCertificate
	for start := 0; start < len(eiIDs); start += idChunkSize {
		end := start + idChunkSize
		if end > len(eiIDs) {
			end = len(eiIDs)
		}
		chunk := eiIDs[start:end]
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		query := fmt.Sprintf(`
			SELECT id, ei_id, sifra_ko, stevilka_stavbe, stevilka_dela_stavbe,
			       veljavnost_od, veljavnost_do, potrebna_toplota_ogrevanje, skupna_energija,
			       emisije_co2, primarna_energija, kondicionirana_povrsina, energijski_razred, tip_epbd
			FROM core.energetska_izkaznica WHERE ei_id IN (%s)
			ORDER BY veljavnost_od DESC NULLS LAST`, placeholders(len(chunk)))

		rows, err := r.db.Conn().QueryContext(ctx, query, args...)
		if err != nil {
			return nil, database.WrapStoreError("query core.energetska_izkaznica", err)
		}
		for rows.Next() {
			var ec models.EnergyCertificate
			if err := rows.Scan(&ec.Surrogate, &ec.EIID, &ec.SifraKO, &ec.StevilkaStavbe, &ec.StevilkaDelaStavbe,
				&ec.VeljavnostOd, &ec.VeljavnostDo, &ec.PotrebnaToplotaOgrevanje, &ec.SkupnaEnergija,
				&ec.EmisijeCO2, &ec.PrimarnaEnergija, &ec.KondicioniranaPovrsina, &ec.EnergijskiRazred, &ec.TipEPBD); err != nil {
				rows.Close()
				return nil, database.WrapStoreError("scan core.energetska_izkaznica row", err)
			}
			out = append(out, ec)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, database.WrapStoreError("iterate core.energetska_izkaznica", err)
		}
	}
	return out, nil
}

// GetDetails returns the full property-details feature for one
// deduplicated id (spec.md §4.6): the representative BuildingPart's
// attributes plus every linked BuildingPart, Deal and EnergyCertificate.
func (r *Runner) GetDetails(ctx context.Context, id int64, dataset models.Dataset) (models.Feature, error) {
	row, err := r.loadDedupRow(ctx, dataset, id)
	if err != nil {
		return models.Feature{}, err
	}

	buildingParts, err := r.buildingPartsByIDs(ctx, dataset, row.povezaniDelStavbeIDs)
	if err != nil {
		return models.Feature{}, err
	}
	deals, err := r.dealsByIDs(ctx, dataset, row.povezaniPoselIDs)
	if err != nil {
		return models.Feature{}, err
	}
	certs, err := r.certificatesByEIID(ctx, row.energetskeIzkaznice)
	if err != nil {
		return models.Feature{}, err
	}

	var representative *models.BuildingPart
	for i := range buildingParts {
		if buildingParts[i].DelStavbeID == row.najnovejsiDelStavbeID {
			representative = &buildingParts[i]
			break
		}
	}
	if representative == nil {
		return models.Feature{}, fmt.Errorf("property: deduplicated id %d: representative building part %d missing: %w",
			id, row.najnovejsiDelStavbeID, apperrors.NotFound)
	}

	props := models.DetailsProperties{
		ID:                 row.id,
		DataSource:         dataset,
		SifraKO:            representative.SifraKO,
		StevilkaStavbe:     representative.StevilkaStavbe,
		StevilkaDelaStavbe: representative.StevilkaDelaStavbe,
		VrstaNepremicnine:  representative.VrstaNepremicnine,
		Obcina:             representative.Obcina,
		Naselje:            representative.Naselje,
		Ulica:              representative.Ulica,
		HisnaStevilka:      representative.HisnaStevilka,
		PovrsinaUradna:     representative.PovrsinaUradna,
		PovrsinaUporabna:   representative.PovrsinaUporabna,
		LetoIzgradnje:      representative.LetoIzgradnje,
		Opremljenost:       representative.Opremljenost,
		SteviloSob:         representative.SteviloSob,
		BuildingParts:      buildingParts,
		Deals:              deals,
		EnergyCertificates: certs,
		SteviloPoslov:      len(deals),
		ImaVecPoslov:       len(deals) > 1,
	}
	if row.energijskiRazred.Valid {
		props.EnergijskiRazred = &row.energijskiRazred.String
	}

	return models.NewPointFeature(row.lon, row.lat, props), nil
}
