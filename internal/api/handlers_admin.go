// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/toorkk/domogled/internal/dedup"
	"github.com/toorkk/domogled/internal/eiingest"
	"github.com/toorkk/domogled/internal/ingest"
	"github.com/toorkk/domogled/internal/jobguard"
	"github.com/toorkk/domogled/internal/jobqueue"
	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/models"
	"github.com/toorkk/domogled/internal/stats"
)

// adminHandlers owns the admin trigger endpoints (spec.md §6): each
// validates its input, reserves the matching internal/jobguard slot(s)
// synchronously so an overlapping run is reported as 409 before
// anything is enqueued, then submits the actual run to internal/jobqueue
// and acknowledges with 202. Once running in the background, a job's
// failures are logged, not surfaced to the caller (spec.md §7:
// "background jobs return 202 immediately... accept a status probe via
// logs") — only the synchronous guard conflict reaches the response.
type adminHandlers struct {
	ingest   *ingest.Runner
	eiingest *eiingest.Runner
	dedup    *dedup.Runner
	stats    *stats.Runner
	guard    *jobguard.Guard
	jobs     *jobqueue.Queue
}

func newAdminHandlers(ir *ingest.Runner, eir *eiingest.Runner, dr *dedup.Runner, sr *stats.Runner, guard *jobguard.Guard, jobs *jobqueue.Queue) *adminHandlers {
	return &adminHandlers{ingest: ir, eiingest: eir, dedup: dr, stats: sr, guard: guard, jobs: jobs}
}

// defaultStartYear returns dataset's default backfill start year
// (spec.md §6: "kpp→2007, np→2013").
func defaultStartYear(dataset models.Dataset) int {
	if dataset == models.KPP {
		return 2007
	}
	return 2013
}

const defaultEndYear = 2025

// triggerIngest handles POST /api/deli-stavb/ingest.
func (h *adminHandlers) triggerIngest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dataset, ok := models.ParseDataset(r.URL.Query().Get("data_type"))
	if !ok {
		rw.BadRequest("data_type must be one of np, kpp")
		return
	}

	startYear := defaultStartYear(dataset)
	endYear := defaultEndYear
	if v := r.URL.Query().Get("start_year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			rw.BadRequest("start_year must be an integer")
			return
		}
		startYear = y
	}
	if v := r.URL.Query().Get("end_year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			rw.BadRequest("end_year must be an integer")
			return
		}
		endYear = y
	}
	if startYear > endYear {
		rw.BadRequest("start_year must be <= end_year")
		return
	}

	years := make([]int, 0, endYear-startYear+1)
	for year := startYear; year <= endYear; year++ {
		years = append(years, year)
	}

	if h.guard != nil {
		if err := h.guard.AcquireIngestYears(dataset, years); err != nil {
			writeError(rw, err)
			return
		}
	}

	log := logging.Ctx(r.Context())
	for _, year := range years {
		year := year
		h.jobs.Submit(func(ctx context.Context) {
			if h.guard != nil {
				defer h.guard.ReleaseIngest(dataset, year)
			}
			if err := h.ingest.RunIngestionLocked(ctx, dataset, year); err != nil {
				log.Error().Err(err).Str("dataset", string(dataset)).Int("year", year).Msg("ingestion run failed")
			}
		})
	}

	rw.Accepted(fmt.Sprintf("ingestion enqueued for %s %d-%d", dataset, startYear, endYear))
}

// triggerDedup handles POST /api/deduplication/ingest.
func (h *adminHandlers) triggerDedup(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	raw := r.URL.Query().Get("data_type")
	var datasets []models.Dataset
	switch raw {
	case "vsi", "":
		datasets = []models.Dataset{models.NP, models.KPP}
	case string(models.NP), string(models.KPP):
		ds, _ := models.ParseDataset(raw)
		datasets = []models.Dataset{ds}
	default:
		rw.BadRequest("data_type must be one of np, kpp, vsi")
		return
	}

	if h.guard != nil {
		if err := h.guard.AcquireAllDedup(datasets); err != nil {
			writeError(rw, err)
			return
		}
	}

	log := logging.Ctx(r.Context())
	h.jobs.Submit(func(ctx context.Context) {
		if h.guard != nil {
			defer h.guard.ReleaseAllDedup(datasets)
		}
		if err := h.dedup.BuildAllDeduplicatedLocked(ctx, datasets); err != nil {
			log.Error().Err(err).Msg("deduplication run failed")
		}
	})

	rw.Accepted("deduplication enqueued")
}

// triggerEIIngest handles POST /api/energetske-izkaznice/ingest.
func (h *adminHandlers) triggerEIIngest(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	url := r.URL.Query().Get("url")

	log := logging.Ctx(r.Context())
	h.jobs.Submit(func(ctx context.Context) {
		if err := h.eiingest.RunEIIngestion(ctx, url); err != nil {
			log.Error().Err(err).Msg("energy certificate ingestion failed")
		}
	})

	rw.Accepted("energy certificate ingestion enqueued")
}

// triggerStatsRefresh handles POST /api/statistike/posodobi.
func (h *adminHandlers) triggerStatsRefresh(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	log := logging.Ctx(r.Context())
	h.jobs.Submit(func(ctx context.Context) {
		if err := h.stats.RefreshAll(ctx); err != nil {
			log.Error().Err(err).Msg("statistics refresh failed")
		}
	})

	rw.Accepted("statistics refresh enqueued")
}
