// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/toorkk/domogled/internal/cluster"
	"github.com/toorkk/domogled/internal/dedup"
	"github.com/toorkk/domogled/internal/eiingest"
	"github.com/toorkk/domogled/internal/ingest"
	"github.com/toorkk/domogled/internal/jobguard"
	"github.com/toorkk/domogled/internal/jobqueue"
	"github.com/toorkk/domogled/internal/property"
	"github.com/toorkk/domogled/internal/stats"
)

// Deps collects the runners the router wires to spec.md §6's routes.
type Deps struct {
	Ingest     *ingest.Runner
	EIIngest   *eiingest.Runner
	Dedup      *dedup.Runner
	Stats      *stats.Runner
	Cluster    *cluster.Runner
	Property   *property.Runner
	Guard      *jobguard.Guard
	Jobs       *jobqueue.Queue
	Middleware MiddlewareConfig
}

// NewRouter assembles the chi router serving all of spec.md §6's routes:
// admin triggers under a conservative rate limit, query endpoints under
// a generous one, both behind the shared CORS policy.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware(deps.Middleware))
	r.Use(metricsMiddleware)

	admin := newAdminHandlers(deps.Ingest, deps.EIIngest, deps.Dedup, deps.Stats, deps.Guard, deps.Jobs)
	statsH := newStatsHandlers(deps.Stats)
	mapH := newMapHandlers(deps.Cluster)
	propH := newPropertyHandlers(deps.Property)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		NewResponseWriter(w, req).Success(map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(gr chi.Router) {
		gr.Use(adminRateLimit())
		gr.Post("/api/deli-stavb/ingest", admin.triggerIngest)
		gr.Post("/api/deduplication/ingest", admin.triggerDedup)
		gr.Post("/api/energetske-izkaznice/ingest", admin.triggerEIIngest)
		gr.Post("/api/statistike/posodobi", admin.triggerStatsRefresh)
	})

	r.Group(func(gr chi.Router) {
		gr.Use(queryRateLimit())

		gr.Get("/api/statistike/vse/{regionKind}/{region}", statsH.getFull)
		gr.Get("/api/statistike/splosne/{regionKind}/{region}", statsH.getGeneral)
		gr.Get("/api/statistike/vse-obcine-posli-zadnjih-12m", statsH.getMunicipalitiesLast12m)

		gr.Get("/properties/geojson", mapH.getTile)
		gr.Get("/cluster/{clusterID}/properties", mapH.expandCluster)

		gr.Get("/property-details/{id}", propH.getDetails)
		gr.Get("/property/{id}/similar", propH.getSimilar)
	})

	return r
}
