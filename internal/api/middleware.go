// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/toorkk/domogled/internal/metrics"
)

// MiddlewareConfig configures the CORS and rate-limiting middleware
// shared across route groups (spec.md §6: "CORS: allow-list includes
// the production origin and local dev origin; credentials allowed").
type MiddlewareConfig struct {
	CORSOrigins     []string
	CORSCredentials bool
}

// corsMiddleware builds the shared CORS handler from CORS_ORIGINS.
func corsMiddleware(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: cfg.CORSCredentials,
		MaxAge:           86400,
	})
}

// adminRateLimit is a conservative limiter for the ingest/dedup/stats
// trigger endpoints, which kick off expensive background work.
func adminRateLimit() func(http.Handler) http.Handler {
	return httprate.LimitByIP(5, time.Minute)
}

// queryRateLimit is a generous limiter for read-only query endpoints
// (map tiles, property details, statistics), which a map UI calls
// frequently while panning/zooming.
func queryRateLimit() func(http.Handler) http.Handler {
	return httprate.LimitByIP(300, time.Minute)
}

// metricsMiddleware records domogled_api_request_duration_seconds for
// every request, labeled by the matched chi route pattern (not the raw
// path, so /property-details/{id} doesn't produce one series per id).
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.APIRequestDuration.WithLabelValues(route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}
