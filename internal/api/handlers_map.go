// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/toorkk/domogled/internal/cluster"
	"github.com/toorkk/domogled/internal/models"
)

type mapHandlers struct {
	cluster *cluster.Runner
}

func newMapHandlers(cr *cluster.Runner) *mapHandlers {
	return &mapHandlers{cluster: cr}
}

// parseBBox parses "west,south,east,north" into a models.BBox.
func parseBBox(raw string) (models.BBox, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return models.BBox{}, fmt.Errorf("bbox must have 4 comma-separated numbers")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return models.BBox{}, fmt.Errorf("bbox value %q is not a number", p)
		}
		vals[i] = v
	}
	return models.BBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, nil
}

// parseClusterFilters reads filter_leto/min_cena/max_cena/min_povrsina/
// max_povrsina from the query string (spec.md §6).
func parseClusterFilters(q map[string][]string) (models.ClusterFilters, error) {
	filters := models.DefaultClusterFilters()

	get := func(key string) string {
		if v, ok := q[key]; ok && len(v) > 0 {
			return v[0]
		}
		return ""
	}

	if v := get("filter_leto"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return filters, fmt.Errorf("filter_leto must be an integer")
		}
		filters.YearMin = y
	}
	parseFloatPtr := func(v string, name string) (*float64, error) {
		if v == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("%s must be a number", name)
		}
		return &f, nil
	}
	var err error
	if filters.MinPrice, err = parseFloatPtr(get("min_cena"), "min_cena"); err != nil {
		return filters, err
	}
	if filters.MaxPrice, err = parseFloatPtr(get("max_cena"), "max_cena"); err != nil {
		return filters, err
	}
	if filters.MinArea, err = parseFloatPtr(get("min_povrsina"), "min_povrsina"); err != nil {
		return filters, err
	}
	if filters.MaxArea, err = parseFloatPtr(get("max_povrsina"), "max_povrsina"); err != nil {
		return filters, err
	}
	return filters, nil
}

// getTile handles GET /properties/geojson.
func (h *mapHandlers) getTile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	bbox, err := parseBBox(q.Get("bbox"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	zoom, err := strconv.ParseFloat(q.Get("zoom"), 64)
	if err != nil {
		rw.BadRequest("zoom must be a number")
		return
	}
	dataset, ok := models.ParseDataset(q.Get("data_source"))
	if !ok {
		rw.BadRequest("data_source must be one of np, kpp")
		return
	}
	filters, err := parseClusterFilters(q)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	fc, err := h.cluster.GetMapTile(r.Context(), bbox, zoom, dataset, filters)
	if err != nil {
		writeError(rw, err)
		return
	}
	rw.RawGeoJSON(fc)
}

// expandCluster handles GET /cluster/{cluster_id}/properties.
func (h *mapHandlers) expandCluster(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	q := r.URL.Query()

	dataset, ok := models.ParseDataset(q.Get("data_source"))
	if !ok {
		rw.BadRequest("data_source must be one of np, kpp")
		return
	}
	filters, err := parseClusterFilters(q)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	obcina, sifraKO, stevilkaStavbe, err := cluster.ParseBuildingClusterID(chi.URLParam(r, "clusterID"))
	if err != nil {
		writeError(rw, err)
		return
	}

	fc, err := h.cluster.GetBuildingCluster(r.Context(), obcina, sifraKO, stevilkaStavbe, dataset, filters)
	if err != nil {
		writeError(rw, err)
		return
	}
	rw.RawGeoJSON(fc)
}
