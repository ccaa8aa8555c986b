// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package property answers single-property lookups against one
// dataset's deduplicated table: full details for one deduplicated id
// (spec.md §4.6), and a ranked list of similar properties nearby
// (spec.md §4.7).
package property
