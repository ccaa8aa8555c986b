// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cluster serves map tiles by grouping deduplicated building
// parts into building clusters (all parts of one building, used at high
// zoom) or distance clusters (a grid cell within one municipality, used
// at low zoom), and expands one building cluster into its individual
// members (spec.md §4.5).
//
// The bbox intersection and filters are applied by DuckDB (ST_Within /
// ST_MakeEnvelope over the spatial extension's GEOMETRY column when it
// loaded, a plain lon/lat range scan otherwise); the Go layer buckets
// rows into groups, computes each cluster's mean point (meanPoint) and
// decides whether to emit an individual feature or a cluster feature,
// mirroring the SQL-side /
// Go-side split the teacher uses for its own viewport queries.
package cluster
