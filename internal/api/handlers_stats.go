// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/toorkk/domogled/internal/models"
	"github.com/toorkk/domogled/internal/stats"
)

type statsHandlers struct {
	stats *stats.Runner
}

func newStatsHandlers(sr *stats.Runner) *statsHandlers {
	return &statsHandlers{stats: sr}
}

func regionParams(r *http.Request) (region string, kind models.RegionKind, ok bool) {
	kind, ok = models.ParseRegionKind(chi.URLParam(r, "regionKind"))
	if !ok {
		return "", "", false
	}
	return chi.URLParam(r, "region"), kind, true
}

// getFull handles GET /api/statistike/vse/{regionKind}/{region}.
func (h *statsHandlers) getFull(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	region, kind, ok := regionParams(r)
	if !ok {
		rw.BadRequest("unknown regionKind")
		return
	}

	result, err := h.stats.GetFull(r.Context(), region, kind)
	if err != nil {
		writeError(rw, err)
		return
	}
	rw.Success(result)
}

// getGeneral handles GET /api/statistike/splosne/{regionKind}/{region}.
func (h *statsHandlers) getGeneral(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	region, kind, ok := regionParams(r)
	if !ok {
		rw.BadRequest("unknown regionKind")
		return
	}

	result, err := h.stats.GetGeneral(r.Context(), region, kind)
	if err != nil {
		writeError(rw, err)
		return
	}
	rw.Success(result)
}

// getMunicipalitiesLast12m handles GET
// /api/statistike/vse-obcine-posli-zadnjih-12m.
func (h *statsHandlers) getMunicipalitiesLast12m(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	includeCadastral := false
	if v := r.URL.Query().Get("vkljuci_katastrske"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			rw.BadRequest("vkljuci_katastrske must be a boolean")
			return
		}
		includeCadastral = b
	}

	result, err := h.stats.GetAllMunicipalitiesLast12m(r.Context(), includeCadastral)
	if err != nil {
		writeError(rw, err)
		return
	}
	rw.Success(result)
}
