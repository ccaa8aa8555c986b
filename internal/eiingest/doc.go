// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package eiingest implements the energy-performance-certificate
// ingestion pipeline: download the register's pipe-delimited CSV export,
// normalize its decimal-comma numeric columns and dd.mm.yyyy dates, drop
// duplicate certificate ids keeping the latest occurrence, and replace
// the core table wholesale.
package eiingest
