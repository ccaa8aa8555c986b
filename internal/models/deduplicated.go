// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "time"

// DeduplicatedBuildingPart is the canonical row produced by C4: one row
// per (sifra_ko, stevilka_stavbe, stevilka_dela_stavbe, dejanska_raba)
// group, carrying the ids of every source row folded into it and a cache
// of the "freshest" source row's attributes.
type DeduplicatedBuildingPart struct {
	ID      Int64ID `db:"id" json:"id"`
	Dataset Dataset `db:"-" json:"-"`

	CadastralKey

	// PovezaniDelStavbeIDs / PovezaniPoselIDs are the ids of every source
	// BuildingPart/Deal folded into this row. Non-empty by invariant.
	PovezaniDelStavbeIDs []int64 `db:"povezani_del_stavbe_ids" json:"povezani_del_stavbe_ids"`
	PovezaniPoselIDs     []int64 `db:"povezani_posel_ids" json:"povezani_posel_ids"`

	// NajnovejsiDelStavbeID is the id, among PovezaniDelStavbeIDs, whose
	// Deal has the most recent signing date (ties broken by higher
	// del_stavbe_id). Always a member of PovezaniDelStavbeIDs.
	NajnovejsiDelStavbeID int64 `db:"najnovejsi_del_stavbe_id" json:"najnovejsi_del_stavbe_id"`

	// Cached administrative & physical attributes, copied from the
	// freshest source BuildingPart.
	Obcina            string   `db:"obcina" json:"obcina"`
	Naselje           *string  `db:"naselje" json:"naselje,omitempty"`
	Ulica             *string  `db:"ulica" json:"ulica,omitempty"`
	HisnaStevilka     *string  `db:"hisna_stevilka" json:"hisna_stevilka,omitempty"`
	PovrsinaUradna    *float64 `db:"povrsina_uradna" json:"povrsina_uradna,omitempty"`
	PovrsinaUporabna  *float64 `db:"povrsina_uporabna" json:"povrsina_uporabna,omitempty"`
	LetoIzgradnje     *int     `db:"leto_izgradnje" json:"leto_izgradnje,omitempty"`
	VrstaNepremicnine string   `db:"vrsta_nepremicnine" json:"vrsta_nepremicnine"`
	Opremljenost      *string  `db:"opremljenost" json:"opremljenost,omitempty"`
	SteviloSob        *int     `db:"stevilo_sob" json:"stevilo_sob,omitempty"`

	// Coordinates, non-null by invariant.
	Lon float64 `db:"lon" json:"lon"`
	Lat float64 `db:"lat" json:"lat"`

	// "Last" fields, derived from the Deal referenced by
	// NajnovejsiDelStavbeID.
	ZadnjaCena      *float64 `db:"zadnja_cena" json:"zadnja_cena,omitempty"`
	ZadnjaNajemnina *float64 `db:"zadnja_najemnina" json:"zadnja_najemnina,omitempty"`
	ZadnjiDDVVkljucen *bool  `db:"zadnji_ddv_vkljucen" json:"zadnji_ddv_vkljucen,omitempty"`
	ZadnjiDDVStopnja  *float64 `db:"zadnji_ddv_stopnja" json:"zadnji_ddv_stopnja,omitempty"`
	ZadnjeLeto      int      `db:"zadnje_leto" json:"zadnje_leto"`

	// ZadnjiDatumSklenitve is the signing date of the Deal referenced by
	// NajnovejsiDelStavbeID, cached so the statistics materializer can
	// compute a true trailing-12-month window rather than a year-grained
	// approximation.
	ZadnjiDatumSklenitve *time.Time `db:"zadnji_datum_sklenitve" json:"zadnji_datum_sklenitve,omitempty"`

	// EnergetskeIzkaznice holds the ids of every linked EnergyCertificate;
	// EnergijskiRazred is the representative class letter among them.
	EnergetskeIzkaznice []string `db:"energetske_izkaznice" json:"energetske_izkaznice,omitempty"`
	EnergijskiRazred    *string  `db:"energijski_razred" json:"energijski_razred,omitempty"`
}

// Price returns the dataset-appropriate "last price" (rent for np, sale
// price for kpp), replacing the string-branch the original source does
// at every call site (§9 Design Notes).
func (d DeduplicatedBuildingPart) Price() *float64 {
	if d.Dataset == NP {
		return d.ZadnjaNajemnina
	}
	return d.ZadnjaCena
}

// Area returns the official area if present, falling back to usable
// area, per spec.md §4.7 step 1.
func (d DeduplicatedBuildingPart) Area() *float64 {
	if d.PovrsinaUradna != nil {
		return d.PovrsinaUradna
	}
	return d.PovrsinaUporabna
}
