// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging provides centralized zerolog-based logging for domogled.
//
// Every long-running operation (an ingestion run, a deduplication pass, a
// statistics refresh, an HTTP request) carries a correlation id through
// context.Context so its log lines can be grepped together regardless of
// which goroutine emitted them.
package logging
