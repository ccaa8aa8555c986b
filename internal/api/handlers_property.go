// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/toorkk/domogled/internal/models"
	"github.com/toorkk/domogled/internal/property"
)

const (
	defaultSimilarLimit    = 10
	defaultSimilarRadiusKm = 5.0
)

type propertyHandlers struct {
	property *property.Runner
}

func newPropertyHandlers(pr *property.Runner) *propertyHandlers {
	return &propertyHandlers{property: pr}
}

func parseDedupID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// getDetails handles GET /property-details/{deduplicated_id}.
func (h *propertyHandlers) getDetails(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := parseDedupID(r)
	if !ok {
		rw.BadRequest("deduplicated_id must be an integer")
		return
	}
	dataset, ok := models.ParseDataset(r.URL.Query().Get("data_source"))
	if !ok {
		rw.BadRequest("data_source must be one of np, kpp")
		return
	}

	feature, err := h.property.GetDetails(r.Context(), id, dataset)
	if err != nil {
		writeError(rw, err)
		return
	}
	rw.Success(feature)
}

// getSimilar handles GET /property/{deduplicated_id}/similar.
func (h *propertyHandlers) getSimilar(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := parseDedupID(r)
	if !ok {
		rw.BadRequest("deduplicated_id must be an integer")
		return
	}
	dataset, ok := models.ParseDataset(r.URL.Query().Get("data_source"))
	if !ok {
		rw.BadRequest("data_source must be one of np, kpp")
		return
	}

	limit := defaultSimilarLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			rw.BadRequest("limit must be a positive integer")
			return
		}
		limit = n
	}

	radiusKm := defaultSimilarRadiusKm
	if v := r.URL.Query().Get("radius_km"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			rw.BadRequest("radius_km must be a positive number")
			return
		}
		radiusKm = f
	}

	results, err := h.property.GetSimilar(r.Context(), id, dataset, limit, radiusKm)
	if err != nil {
		writeError(rw, err)
		return
	}
	rw.Success(results)
}
