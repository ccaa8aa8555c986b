// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package eiingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/toorkk/domogled/internal/config"
	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/metrics"
	"github.com/toorkk/domogled/internal/sqlassets"
)

// Runner executes RunEIIngestion.
type Runner struct {
	cfg        *config.IngestionConfig
	db         *database.DB
	httpClient *http.Client
}

// NewRunner builds a Runner backed by db, using cfg.EIBaseURL to
// synthesize the default export URL and cfg.HTTPTimeout for the
// download.
func NewRunner(cfg *config.IngestionConfig, db *database.DB) *Runner {
	return &Runner{
		cfg:        cfg,
		db:         db,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// RunEIIngestion downloads the energy-certificate register export,
// normalizes it, stages it, and replaces the core table wholesale
// (spec.md §4.2). An empty url synthesizes the current month's default.
// Staging is truncated as the first database action; if the run aborts
// before or during the staging insert, the core table is left untouched,
// and if it aborts during the final replace the transaction rolls back.
func (r *Runner) RunEIIngestion(ctx context.Context, url string) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveIngestionRun("ei", start, err) }()

	log := logging.Ctx(ctx).With().Str("component", "eiingest").Logger()

	if url == "" {
		url = defaultURL(r.cfg.EIBaseURL, time.Now())
	}
	log.Info().Str("url", url).Msg("starting energy certificate ingestion")

	rows, err := r.downloadAndParse(ctx, url)
	if err != nil {
		return fmt.Errorf("eiingest: %w", err)
	}
	log.Info().Int("rows", len(rows)).Msg("parsed certificate rows")

	if err := r.db.TruncateStaging(ctx, "staging.energetska_izkaznica"); err != nil {
		return fmt.Errorf("eiingest: truncate staging: %w", err)
	}

	inserted, err := database.BulkInsert(ctx, r.db.Conn(), "staging.energetska_izkaznica", stagingColumns(), rows)
	if err != nil {
		return fmt.Errorf("eiingest: stage rows: %w", err)
	}
	log.Info().Int("inserted", inserted).Msg("staged certificate rows")

	insertSQL, err := sqlassets.Render(sqlassets.EnergyCertificateInsert, sqlassets.Params{})
	if err != nil {
		return fmt.Errorf("eiingest: render insert template: %w", err)
	}

	if err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return database.ExecTemplate(ctx, tx, insertSQL)
	}); err != nil {
		return fmt.Errorf("eiingest: replace core table: %w", err)
	}

	count, err := r.db.CountRows(ctx, "core.energetska_izkaznica")
	if err != nil {
		return fmt.Errorf("eiingest: count core rows: %w", err)
	}
	log.Info().Int64("core_rows", count).Msg("energy certificate ingestion complete")
	return nil
}

// downloadAndParse streams url as pipe-delimited UTF-8 CSV, dropping rows
// with an empty certificate id and keeping only the last occurrence of a
// duplicate id (spec.md §4.2).
func (r *Runner) downloadAndParse(ctx context.Context, url string) ([][]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.Comma = '|'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := headerIndex(header)

	order := make([]string, 0)
	byID := make(map[string][]any)
	for {
		record, err := reader.Read()
		if err != nil {
			break
		}
		row, eiID, ok := parseRow(record, idx)
		if !ok {
			continue
		}
		if _, seen := byID[eiID]; !seen {
			order = append(order, eiID)
		}
		byID[eiID] = row
	}

	rows := make([][]any, 0, len(order))
	for _, id := range order {
		rows = append(rows, byID[id])
	}
	return rows, nil
}
