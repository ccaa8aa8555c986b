// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package eiingest

import (
	"strconv"
	"strings"
	"time"
)

// normalizeDecimal parses a register numeric field formatted with a
// dot thousands-separator and a comma decimal point (e.g. "1.234,5"),
// returning nil for an empty or unparseable value rather than an error
// (spec.md §4.2: "coercing to number (invalid → null)").
func normalizeDecimal(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// dateLayout is the register's date format (spec.md §4.2: "dd.mm.yyyy").
const dateLayout = "02.01.2006"

// normalizeDate parses a dd.mm.yyyy date, returning nil for an empty or
// unparseable value.
func normalizeDate(raw string) *time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
