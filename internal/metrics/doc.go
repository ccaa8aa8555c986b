// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics exposes Prometheus instrumentation for domogled's
// pipeline runners (C2-C5) and map/similarity query surface (C6/C7),
// served at GET /metrics via promhttp.Handler.
package metrics
