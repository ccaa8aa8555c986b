// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ingestion metrics (C2/C3): one observation per RunIngestion/RunEIIngestion
// call, labeled by dataset so np/kpp/ei are distinguishable.
var (
	IngestionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domogled_ingestion_runs_total",
			Help: "Total ingestion pipeline runs, by dataset and outcome.",
		},
		[]string{"dataset", "outcome"}, // outcome: success, error
	)

	IngestionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domogled_ingestion_duration_seconds",
			Help:    "Duration of one RunIngestion/RunEIIngestion call.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s .. ~34min
		},
		[]string{"dataset"},
	)

	IngestionStagedRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domogled_ingestion_staged_rows",
			Help: "Row count staged by the most recent ingestion run, by table.",
		},
		[]string{"dataset", "table"},
	)

	IngestionOrphanRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domogled_ingestion_orphan_rows",
			Help: "BuildingPart staging rows with no matching Deal, from the most recent referential audit.",
		},
		[]string{"dataset"},
	)
)

// Deduplication metrics (C4).
var (
	DedupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domogled_dedup_runs_total",
			Help: "Total BuildDeduplicated runs, by dataset and outcome.",
		},
		[]string{"dataset", "outcome"},
	)

	DedupInputRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domogled_dedup_input_rows",
			Help: "Core table row count seen by the most recent deduplication run.",
		},
		[]string{"dataset"},
	)

	DedupOutputRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domogled_dedup_output_rows",
			Help: "Deduplicated table row count produced by the most recent run.",
		},
		[]string{"dataset"},
	)

	DedupRatio = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domogled_dedup_ratio",
			Help: "(input-output)/input for the most recent deduplication run.",
		},
		[]string{"dataset"},
	)
)

// Statistics materializer metrics (C5).
var (
	StatsRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domogled_stats_refresh_total",
			Help: "Total RefreshAll runs, by outcome.",
		},
		[]string{"outcome"},
	)

	StatsRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "domogled_stats_refresh_duration_seconds",
			Help:    "Duration of one RefreshAll call.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	StatsCacheRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "domogled_stats_cache_rows",
			Help: "Row count written to stats.statistike_cache by the most recent refresh, by period kind.",
		},
		[]string{"period_kind"}, // yearly, last_12_months
	)
)

// Map/property query metrics (C6/C7).
var (
	TileRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domogled_tile_requests_total",
			Help: "Total GetMapTile calls, by dataset and clustering regime.",
		},
		[]string{"dataset", "regime"}, // regime: building, distance
	)

	TileFeatureCount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domogled_tile_feature_count",
			Help:    "Number of GeoJSON features returned per GetMapTile call.",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"dataset"},
	)

	SimilarityRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domogled_similarity_requests_total",
			Help: "Total GetSimilar calls, by dataset and outcome.",
		},
		[]string{"dataset", "outcome"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domogled_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route and status code.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"route", "status_code"},
	)
)

// ObserveIngestionRun records a completed ingestion run's outcome and
// duration. Called by ingest.Runner.RunIngestion and
// eiingest.Runner.RunEIIngestion after the run finishes.
func ObserveIngestionRun(dataset string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	IngestionRunsTotal.WithLabelValues(dataset, outcome).Inc()
	IngestionDuration.WithLabelValues(dataset).Observe(time.Since(start).Seconds())
}

// ObserveDedupRun records a completed BuildDeduplicated run.
func ObserveDedupRun(dataset string, input, output int64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	DedupRunsTotal.WithLabelValues(dataset, outcome).Inc()
	if err == nil {
		DedupInputRows.WithLabelValues(dataset).Set(float64(input))
		DedupOutputRows.WithLabelValues(dataset).Set(float64(output))
		if input > 0 {
			DedupRatio.WithLabelValues(dataset).Set(float64(input-output) / float64(input))
		}
	}
}
