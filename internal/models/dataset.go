// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package models

// Dataset identifies one of the two symmetrical transaction families:
// rental (np) or sale (kpp).
type Dataset string

const (
	// NP is the rental register: posel (contract) + del_stavbe (rented
	// building part).
	NP Dataset = "np"
	// KPP is the sale register: posel (purchase deed) + del_stavbe (sold
	// building part).
	KPP Dataset = "kpp"
)

// ParseDataset validates a data_source query parameter, replacing the
// string-branch dispatch the original source does at every call site
// (§9 Design Notes) with a single validation point.
func ParseDataset(s string) (Dataset, bool) {
	switch Dataset(s) {
	case NP, KPP:
		return Dataset(s), true
	default:
		return "", false
	}
}

// DatasetDescriptor carries everything a component needs to act on one
// dataset without branching on its string value: table names, which price
// column is authoritative, and a human label. Pass the descriptor, not the
// string (§9 Design Notes).
type DatasetDescriptor struct {
	Dataset Dataset

	// DealTable / BuildingPartTable / DeduplicatedTable are the core
	// table names for this dataset.
	DealTable         string
	BuildingPartTable string
	DeduplicatedTable string

	// StagingDealTable / StagingBuildingPartTable are the staging table
	// names populated by C2's Stage step.
	StagingDealTable         string
	StagingBuildingPartTable string

	// PriceColumn is the "last price" column on a deduplicated row:
	// zadnja_najemnina for rentals, zadnja_cena for sales.
	PriceColumn string

	// DealTransformTemplate / BuildingPartTransformTemplate /
	// DeduplicationTemplate name the SQL templates this dataset's C2/C4
	// stages execute.
	DealTransformTemplate         string
	BuildingPartTransformTemplate string
	DeduplicationTemplate         string

	// Label is a human-readable name for logs.
	Label string
}

var datasetDescriptors = map[Dataset]DatasetDescriptor{
	NP: {
		Dataset:                       NP,
		DealTable:                     "core.np_posel",
		BuildingPartTable:             "core.np_del_stavbe",
		DeduplicatedTable:             "core.np_del_stavbe_deduplicated",
		StagingDealTable:              "staging.np_posel",
		StagingBuildingPartTable:      "staging.np_del_stavbe",
		PriceColumn:                   "zadnja_najemnina",
		DealTransformTemplate:         "np_posel_transform.sql",
		BuildingPartTransformTemplate: "np_del_stavbe_transform.sql",
		DeduplicationTemplate:         "np_del_stavbe_deduplication.sql",
		Label:                         "rental",
	},
	KPP: {
		Dataset:                       KPP,
		DealTable:                     "core.kpp_posel",
		BuildingPartTable:             "core.kpp_del_stavbe",
		DeduplicatedTable:             "core.kpp_del_stavbe_deduplicated",
		StagingDealTable:              "staging.kpp_posel",
		StagingBuildingPartTable:      "staging.kpp_del_stavbe",
		PriceColumn:                   "zadnja_cena",
		DealTransformTemplate:         "kpp_posel_transform.sql",
		BuildingPartTransformTemplate: "kpp_del_stavbe_transform.sql",
		DeduplicationTemplate:         "kpp_del_stavbe_deduplication.sql",
		Label:                         "sale",
	},
}

// Descriptor returns the DatasetDescriptor for d. Panics if d is not one
// of NP/KPP; callers are expected to have validated d via ParseDataset.
func (d Dataset) Descriptor() DatasetDescriptor {
	desc, ok := datasetDescriptors[d]
	if !ok {
		panic("models: unknown dataset " + string(d))
	}
	return desc
}

// All lists both datasets, in the order the scheduler runs them
// (spec.md §4.8: kpp then np).
func All() []Dataset {
	return []Dataset{KPP, NP}
}
