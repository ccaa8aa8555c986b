// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

import "testing"

func TestParseDataset(t *testing.T) {
	cases := []struct {
		in   string
		want Dataset
		ok   bool
	}{
		{"np", NP, true},
		{"kpp", KPP, true},
		{"bogus", "", false},
	}
	for _, c := range cases {
		got, ok := ParseDataset(c.in)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ParseDataset(%q) = (%q, %v), want (%q, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestDatasetDescriptor(t *testing.T) {
	d := NP.Descriptor()
	if d.PriceColumn != "zadnja_najemnina" {
		t.Errorf("NP descriptor price column = %q, want zadnja_najemnina", d.PriceColumn)
	}
	d = KPP.Descriptor()
	if d.PriceColumn != "zadnja_cena" {
		t.Errorf("KPP descriptor price column = %q, want zadnja_cena", d.PriceColumn)
	}
}

func TestDatasetDescriptor_PanicsOnUnknown(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown dataset")
		}
	}()
	Dataset("bogus").Descriptor()
}

func TestDeduplicatedBuildingPart_Price(t *testing.T) {
	rent := 650.0
	sale := 210000.0
	d := DeduplicatedBuildingPart{Dataset: NP, ZadnjaNajemnina: &rent, ZadnjaCena: &sale}
	if got := d.Price(); got == nil || *got != rent {
		t.Errorf("NP Price() = %v, want %v", got, rent)
	}
	d.Dataset = KPP
	if got := d.Price(); got == nil || *got != sale {
		t.Errorf("KPP Price() = %v, want %v", got, sale)
	}
}

func TestDeduplicatedBuildingPart_Area(t *testing.T) {
	uradna := 55.0
	uporabna := 50.0
	d := DeduplicatedBuildingPart{PovrsinaUradna: &uradna, PovrsinaUporabna: &uporabna}
	if got := d.Area(); got == nil || *got != uradna {
		t.Errorf("Area() with both set = %v, want official %v", got, uradna)
	}
	d = DeduplicatedBuildingPart{PovrsinaUporabna: &uporabna}
	if got := d.Area(); got == nil || *got != uporabna {
		t.Errorf("Area() fallback = %v, want usable %v", got, uporabna)
	}
}

func TestEnergyClassIndex(t *testing.T) {
	idx, ok := EnergyClassIndex("A")
	if !ok || idx != 0 {
		t.Errorf("EnergyClassIndex(A) = (%d, %v), want (0, true)", idx, ok)
	}
	idx, ok = EnergyClassIndex("G")
	if !ok || idx != 6 {
		t.Errorf("EnergyClassIndex(G) = (%d, %v), want (6, true)", idx, ok)
	}
	if _, ok := EnergyClassIndex("Z"); ok {
		t.Error("EnergyClassIndex(Z) should not be ok")
	}
}

func TestNormalizeMunicipalityKey(t *testing.T) {
	cases := map[string]string{
		"Ljubljana":        "ljubljana",
		"  Novo  Mesto  ":  "novo mesto",
		"Šempeter-Vrtojba": "empeter vrtojba",
	}
	for in, want := range cases {
		if got := NormalizeMunicipalityKey(in); got != want {
			t.Errorf("NormalizeMunicipalityKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRegionKind(t *testing.T) {
	if _, ok := ParseRegionKind("obcina"); !ok {
		t.Error("expected obcina to parse")
	}
	if _, ok := ParseRegionKind("planet"); ok {
		t.Error("expected planet to fail")
	}
}

func TestDealKind_DatasetFor(t *testing.T) {
	if DealRent.DatasetFor() != NP {
		t.Error("DealRent should map to NP")
	}
	if DealSale.DatasetFor() != KPP {
		t.Error("DealSale should map to KPP")
	}
}
