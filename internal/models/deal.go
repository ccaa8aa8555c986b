// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "time"

// Deal is one contract: a rental (np) or purchase (kpp) deed. Keyed by
// PoselID, an opaque id assigned by the register.
type Deal struct {
	PoselID Int64ID `db:"posel_id" json:"posel_id"`

	// Price is the rent (np) or purchase price (kpp), in EUR.
	Price *float64 `db:"cena" json:"cena,omitempty"`

	// VATIncluded / VATRate capture the deal's VAT treatment.
	VATIncluded *bool    `db:"ddv_vkljucen" json:"ddv_vkljucen,omitempty"`
	VATRate     *float64 `db:"ddv_stopnja" json:"ddv_stopnja,omitempty"`

	// DatumSklenitve is the signing date; DatumUveljavitve the effective
	// date. Both may be absent.
	DatumSklenitve   *time.Time `db:"datum_sklenitve" json:"datum_sklenitve,omitempty"`
	DatumUveljavitve *time.Time `db:"datum_uveljavitve" json:"datum_uveljavitve,omitempty"`

	// Leto is the year partition this row belongs to.
	Leto int `db:"leto" json:"leto"`

	// Trzno marks whether the deal is flagged as a market transaction.
	Trzno *bool `db:"trzno" json:"trzno,omitempty"`
}

// Int64ID is a nullable-free opaque numeric id; kept as its own type so a
// future switch to a different id representation (e.g. string) touches one
// definition.
type Int64ID = int64
