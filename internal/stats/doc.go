// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stats materializes and serves the region-level price/volume
// statistics views built from each dataset's deduplicated table
// (spec.md §4.4): RefreshAll rebuilds the materialized views and the
// flat read cache; GetFull, GetGeneral and GetAllMunicipalitiesLast12m
// read that cache.
package stats
