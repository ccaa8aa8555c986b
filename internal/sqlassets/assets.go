// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package sqlassets

import (
	"bytes"
	"embed"
	"fmt"
	"sync"
	"text/template"
)

//go:embed templates/*.sql
var templatesFS embed.FS

// Name identifies one embedded SQL template file.
type Name string

const (
	NPDealTransform          Name = "np_posel_transform.sql"
	NPBuildingPartTransform  Name = "np_del_stavbe_transform.sql"
	NPDeduplication          Name = "np_del_stavbe_deduplication.sql"
	KPPDealTransform         Name = "kpp_posel_transform.sql"
	KPPBuildingPartTransform Name = "kpp_del_stavbe_transform.sql"
	KPPDeduplication         Name = "kpp_del_stavbe_deduplication.sql"
	EnergyCertificateDedup   Name = "dodaj_ei_deduplication.sql"
	EnergyCertificateInsert  Name = "ei_insert.sql"
	StatisticsCacheYearly    Name = "populate_statistike_cache.sql"
	StatisticsCacheLast12m   Name = "populate_statistike_cache_12m.sql"
	SaleStatisticsView       Name = "mv_prodajne_statistike.sql"
	RentStatisticsView       Name = "mv_najemne_statistike.sql"
	SaleStatisticsView12m    Name = "mv_prodajne_statistike_12m.sql"
	RentStatisticsView12m    Name = "mv_najemne_statistike_12m.sql"
)

var (
	parseOnce sync.Once
	parsed    *template.Template
	parseErr  error
)

func parsedTemplates() (*template.Template, error) {
	parseOnce.Do(func() {
		parsed, parseErr = template.New("sqlassets").ParseFS(templatesFS, "templates/*.sql")
	})
	return parsed, parseErr
}

// Render executes the named template against params and returns the
// resulting SQL text. params is typically a Params value but any struct
// the template's fields resolve against is accepted.
func Render(name Name, params any) (string, error) {
	tmpl, err := parsedTemplates()
	if err != nil {
		return "", fmt.Errorf("sqlassets: parse templates: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, string(name), params); err != nil {
		return "", fmt.Errorf("sqlassets: render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Params is the parameter set templates render against: the year one C2
// transform call covers, plus the staging/core/deduplicated table names
// the rendering dataset's DatasetDescriptor supplies.
type Params struct {
	Year int

	StagingDealTable         string
	StagingBuildingPartTable string
	DealTable                string
	BuildingPartTable        string
	DeduplicatedTable        string

	PriceColumn string

	// SpatialAvailable gates emission of the geom column in the
	// deduplication templates; when the spatial extension failed to
	// load, the dedup tables are created without it (database.createTables).
	SpatialAvailable bool
}
