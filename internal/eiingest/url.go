// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package eiingest

import (
	"fmt"
	"time"
)

// monthAbbrevs are the register's lowercase Slovenian month abbreviations
// used in the default CSV filename, indexed by time.Month-1.
var monthAbbrevs = [12]string{
	"jan", "feb", "mar", "apr", "maj", "jun",
	"jul", "avg", "sep", "okt", "nov", "dec",
}

// defaultURL synthesizes the current month's register export URL
// (spec.md §4.2): "{base}ei_javni_register_{monthAbbrev}{yearLast2}.csv".
func defaultURL(base string, now time.Time) string {
	abbrev := monthAbbrevs[int(now.Month())-1]
	yearLast2 := fmt.Sprintf("%02d", now.Year()%100)
	return fmt.Sprintf("%sei_javni_register_%s%s.csv", base, abbrev, yearLast2)
}
