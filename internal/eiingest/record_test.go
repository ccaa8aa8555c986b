// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package eiingest

import "testing"

func TestParseRow_DropsEmptyID(t *testing.T) {
	header := []string{"ID energetske izkaznice", "Šifra KO"}
	idx := headerIndex(header)

	_, _, ok := parseRow([]string{"", "1234"}, idx)
	if ok {
		t.Fatal("expected row with empty id to be dropped")
	}
}

func TestParseRow_NormalizesNumericAndDate(t *testing.T) {
	header := []string{
		"ID energetske izkaznice", "Šifra KO", "Številka stavbe", "Številka dela stavbe",
		"Datum izdelave", "Velja do",
		"Potrebna toplota za ogrevanje", "Celotna energija", "Emisije CO2",
		"Primarna energija", "Kondicionirana površina stavbe",
		"Energijski razred", "Tip izkaznice",
	}
	idx := headerIndex(header)
	record := []string{
		"EI-1", "1234", "5", "1",
		"01.01.2024", "01.01.2034",
		"1.234,5", "200,0", "",
		"300,25", "85,5",
		"B", "izračunana",
	}

	row, eiID, ok := parseRow(record, idx)
	if !ok {
		t.Fatal("expected row to be accepted")
	}
	if eiID != "EI-1" {
		t.Fatalf("expected id EI-1, got %s", eiID)
	}

	cols := stagingColumns()
	values := make(map[string]any, len(cols))
	for i, c := range cols {
		values[c] = row[i]
	}

	if values["potrebna_toplota_ogrevanje"] != "1234.5" {
		t.Fatalf("expected normalized 1234.5, got %v", values["potrebna_toplota_ogrevanje"])
	}
	if values["emisije_co2"] != nil {
		t.Fatalf("expected nil for empty emisije_co2, got %v", values["emisije_co2"])
	}
	if values["veljavnost_od"] != "2024-01-01" {
		t.Fatalf("expected ISO date, got %v", values["veljavnost_od"])
	}
	if values["energijski_razred"] != "B" {
		t.Fatalf("expected B, got %v", values["energijski_razred"])
	}
}

func TestParseRow_MissingColumnInHeader(t *testing.T) {
	header := []string{"ID energetske izkaznice"}
	idx := headerIndex(header)

	row, eiID, ok := parseRow([]string{"EI-2"}, idx)
	if !ok {
		t.Fatal("expected row to be accepted even with missing optional columns")
	}
	if eiID != "EI-2" {
		t.Fatalf("expected id EI-2, got %s", eiID)
	}
	cols := stagingColumns()
	for i, v := range row {
		if cols[i] == "ei_id" {
			continue
		}
		if v != nil {
			t.Fatalf("expected unmapped column %s nil, got %v", cols[i], v)
		}
	}
}
