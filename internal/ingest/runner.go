// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"net/http"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/toorkk/domogled/internal/config"
	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/jobguard"
	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/models"
	"github.com/toorkk/domogled/internal/sqlassets"
)

// Runner executes RunIngestion for both datasets. One Runner is shared by
// the scheduler and the API's on-demand trigger; per-dataset circuit
// breakers and a shared rate limiter protect the upstream register from
// a burst of retried requests across both.
type Runner struct {
	cfg        *config.IngestionConfig
	db         *database.DB
	httpClient *http.Client
	limiter    *rate.Limiter
	pool       *Pool
	guard      *jobguard.Guard

	breakersMu sync.Mutex
	breakers   map[models.Dataset]*gobreaker.CircuitBreaker[*MetadataResponse]
}

// NewRunner builds a Runner backed by db, using cfg for HTTP timeout,
// worker pool size, and rate/breaker tuning. guard coordinates with
// internal/dedup so a dataset's ingestion run and deduplication run never
// overlap.
func NewRunner(cfg *config.IngestionConfig, db *database.DB, guard *jobguard.Guard) *Runner {
	return &Runner{
		cfg: cfg,
		db:  db,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
		pool:     NewPool(cfg.WorkerCount),
		guard:    guard,
		breakers: make(map[models.Dataset]*gobreaker.CircuitBreaker[*MetadataResponse]),
	}
}

func (r *Runner) breakerFor(dataset models.Dataset) *gobreaker.CircuitBreaker[*MetadataResponse] {
	r.breakersMu.Lock()
	defer r.breakersMu.Unlock()

	if cb, ok := r.breakers[dataset]; ok {
		return cb
	}

	name := "ingest-" + string(dataset)
	cb := gobreaker.NewCircuitBreaker[*MetadataResponse](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= r.cfg.CircuitBreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("ingest circuit breaker state change")
		},
	})
	r.breakers[dataset] = cb
	return cb
}

// sqlassetsParams builds the render parameter set for one (dataset, year).
func sqlassetsParams(desc models.DatasetDescriptor, year int, spatialAvailable bool) sqlassets.Params {
	return sqlassets.Params{
		Year:                     year,
		StagingDealTable:         desc.StagingDealTable,
		StagingBuildingPartTable: desc.StagingBuildingPartTable,
		DealTable:                desc.DealTable,
		BuildingPartTable:        desc.BuildingPartTable,
		DeduplicatedTable:        desc.DeduplicatedTable,
		PriceColumn:              desc.PriceColumn,
		SpatialAvailable:         spatialAvailable,
	}
}
