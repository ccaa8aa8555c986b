// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package jobguard is an in-process advisory lock preventing a dataset's
// deduplication run from overlapping its own ingestion run: both write
// core./staging. tables for the same dataset, and spec.md's ordering
// guarantee requires ingestion to fully finish before dedup reads its
// output. Ingestion is tracked per (dataset, year), since distinct years
// of the same dataset are allowed to ingest concurrently; dedup has no
// year dimension and conflicts with any in-flight ingest year for its
// dataset. The scheduler and any manually-triggered run both acquire
// through the same Guard instance.
package jobguard
