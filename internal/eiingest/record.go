// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package eiingest

import (
	"strconv"
	"strings"
)

// columnMapping pairs the register's Slovenian CSV header with the
// staging column it loads into, renaming columns to the core schema
// during staging rather than at transform time.
var columnMapping = []struct {
	header string
	column string
}{
	{"ID energetske izkaznice", "ei_id"},
	{"Šifra KO", "sifra_ko"},
	{"Številka stavbe", "stevilka_stavbe"},
	{"Številka dela stavbe", "stevilka_dela_stavbe"},
	{"Datum izdelave", "veljavnost_od"},
	{"Velja do", "veljavnost_do"},
	{"Potrebna toplota za ogrevanje", "potrebna_toplota_ogrevanje"},
	{"Celotna energija", "skupna_energija"},
	{"Emisije CO2", "emisije_co2"},
	{"Primarna energija", "primarna_energija"},
	{"Kondicionirana površina stavbe", "kondicionirana_povrsina"},
	{"Energijski razred", "energijski_razred"},
	{"Tip izkaznice", "tip_epbd"},
}

// numericColumns / dateColumns select which staging columns go through
// normalizeDecimal / normalizeDate rather than a plain trim.
var numericColumns = map[string]bool{
	"potrebna_toplota_ogrevanje": true,
	"skupna_energija":            true,
	"emisije_co2":                true,
	"primarna_energija":          true,
	"kondicionirana_povrsina":    true,
}

var dateColumns = map[string]bool{
	"veljavnost_od": true,
	"veljavnost_do": true,
}

// stagingColumns returns the staging.energetska_izkaznica columns in the
// order parseRow emits them.
func stagingColumns() []string {
	cols := make([]string, len(columnMapping))
	for i, m := range columnMapping {
		cols[i] = m.column
	}
	return cols
}

// headerIndex maps each trimmed CSV header to its field index.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// parseRow converts one CSV record into a staging row (values in
// stagingColumns order, nil for anything that normalizes away), the raw
// certificate id used for dedup, and whether the row has a non-empty id
// (spec.md §4.2: "drop rows with empty ID energetske izkaznice").
func parseRow(record []string, idx map[string]int) (row []any, eiID string, ok bool) {
	field := func(header string) string {
		i, present := idx[header]
		if !present || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	eiID = field("ID energetske izkaznice")
	if eiID == "" {
		return nil, "", false
	}

	row = make([]any, len(columnMapping))
	for i, m := range columnMapping {
		raw := field(m.header)
		switch {
		case numericColumns[m.column]:
			if v := normalizeDecimal(raw); v != nil {
				row[i] = strconv.FormatFloat(*v, 'f', -1, 64)
			}
		case dateColumns[m.column]:
			if t := normalizeDate(raw); t != nil {
				row[i] = t.Format("2006-01-02")
			}
		default:
			if raw != "" {
				row[i] = raw
			}
		}
	}
	return row, eiID, true
}
