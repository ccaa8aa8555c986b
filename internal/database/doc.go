// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package database wraps the embedded DuckDB store: connection setup,
// extension loading, schema bootstrap for the staging/core/stats
// schemas, and the staging/partition helpers C2-C5 build on.
package database
