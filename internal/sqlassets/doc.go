// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sqlassets embeds the SQL templates that drive C1 (transform),
// C3 (energy-certificate insert) and C5 (statistics materialization),
// and renders them against a dataset/time-window parameter set.
//
// Templates live under templates/ and are embedded at build time, the
// way internal/authz embeds its Casbin model and policy files: no SQL
// is read from disk at runtime, so a deployment is a single binary.
package sqlassets
