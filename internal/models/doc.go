// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package models holds the value types shared across ingestion,
// deduplication, statistics, clustering, and the API layer: one file per
// entity, mirroring the relational schema in staging/core/stats.
package models
