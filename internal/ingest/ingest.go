// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingest

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/metrics"
	"github.com/toorkk/domogled/internal/models"
)

// RunIngestion executes the six-stage pipeline for one (dataset, year)
// pair: download, extract, stage, referential audit, transform, cleanup
// (spec.md §4.1). It holds the (dataset, year) jobguard slot for the
// run's duration so a concurrent BuildDeduplicated call on dataset is
// rejected rather than reading a half-written core table. Distinct years
// of the same dataset, and different datasets outright, may still run
// concurrently.
func (r *Runner) RunIngestion(ctx context.Context, dataset models.Dataset, year int) (err error) {
	if r.guard != nil {
		if err := r.guard.AcquireIngest(dataset, year); err != nil {
			return fmt.Errorf("ingest: %w", err)
		}
		defer r.guard.ReleaseIngest(dataset, year)
	}
	return r.RunIngestionLocked(ctx, dataset, year)
}

// RunIngestionLocked runs the same pipeline as RunIngestion without
// touching the jobguard. It is for callers that must reserve the
// (dataset, year) slot synchronously themselves, before acknowledging a
// request, and release it only once the job actually finishes running in
// the background (the admin API's trigger handlers); RunIngestion itself
// uses it internally once its own guard acquisition succeeds.
func (r *Runner) RunIngestionLocked(ctx context.Context, dataset models.Dataset, year int) (err error) {
	start := time.Now()
	defer func() { metrics.ObserveIngestionRun(string(dataset), start, err) }()

	desc := dataset.Descriptor()
	log := logging.Ctx(ctx).With().Str("dataset", string(dataset)).Int("year", year).Logger()
	log.Info().Msg("starting ingestion run")

	tempDir, err := os.MkdirTemp("", "domogled-ingest-*")
	if err != nil {
		return fmt.Errorf("ingest: create temp dir: %w", err)
	}
	defer cleanup(ctx, tempDir)

	metadataURL := metadataURLFor(r.cfg, dataset, year)
	meta, err := r.fetchMetadata(ctx, dataset, metadataURL)
	if err != nil {
		return fmt.Errorf("ingest: fetch metadata: %w", err)
	}
	log.Debug().Str("export_url", meta.URL).Msg("resolved export url")

	archivePath, err := r.downloadArchive(ctx, meta.URL, tempDir)
	if err != nil {
		return fmt.Errorf("ingest: download archive: %w", err)
	}

	files, err := extractArchive(archivePath, tempDir)
	if err != nil {
		return fmt.Errorf("ingest: extract archive: %w", err)
	}

	if err := r.stageBoth(ctx, desc, files); err != nil {
		return fmt.Errorf("ingest: stage csv: %w", err)
	}

	if err := r.referentialAudit(ctx, desc); err != nil {
		log.Warn().Err(err).Msg("referential audit failed, continuing")
	}

	if err := r.transform(ctx, desc, year); err != nil {
		return fmt.Errorf("ingest: transform: %w", err)
	}

	log.Info().Msg("ingestion run complete")
	return nil
}

// cleanup removes the run's temp directory, best-effort (spec.md §4.1
// step 6).
func cleanup(ctx context.Context, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("dir", dir).Msg("failed to remove ingestion temp dir")
	}
}
