// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dedup rebuilds each dataset's deduplicated building-part table
// from its core deal/building-part tables, then attaches energy
// certificates once both datasets are done (spec.md §4.3).
package dedup
