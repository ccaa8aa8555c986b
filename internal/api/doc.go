// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api exposes domogled's HTTP surface (spec.md §6) with chi:
// admin trigger endpoints that enqueue a pipeline stage and return 202,
// and synchronous query endpoints (map tiles, property details,
// similarity, statistics) that read the already-materialized data.
package api
