// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package scheduler runs the weekly ingestion -> dedup -> statistics
// pipeline on a cron schedule (spec.md §4.8). A BadgerDB-backed cursor
// remembers the last completed run so a process restart mid-week doesn't
// immediately refire the job.
package scheduler
