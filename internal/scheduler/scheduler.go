// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/toorkk/domogled/internal/config"
	"github.com/toorkk/domogled/internal/dedup"
	"github.com/toorkk/domogled/internal/eiingest"
	"github.com/toorkk/domogled/internal/ingest"
	"github.com/toorkk/domogled/internal/jobguard"
	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/models"
	"github.com/toorkk/domogled/internal/stats"
)

// datasets is the fixed set of parcel/building datasets the pipeline
// ingests and deduplicates every run (spec.md §4.8).
var datasets = []models.Dataset{models.KPP, models.NP}

// Scheduler runs the weekly ingestion -> EI ingestion -> dedup ->
// statistics pipeline on the configured cron schedule. A restart mid-week
// resumes from the persisted cursor instead of refiring immediately.
type Scheduler struct {
	cfg    config.SchedulerConfig
	cron   *CronExpression
	loc    *time.Location
	cursor *Cursor

	ingestRunner   *ingest.Runner
	eiIngestRunner *eiingest.Runner
	dedupRunner    *dedup.Runner
	statsRunner    *stats.Runner
	guard          *jobguard.Guard

	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New constructs a Scheduler. Call SetRunners afterward to wire the
// concrete pipeline stages before Serve is invoked.
func New(cfg config.SchedulerConfig) (*Scheduler, error) {
	cron, err := ParseCron(cfg.Cron)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler cron %q: %w", cfg.Cron, err)
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
		}
	}

	cursor, err := OpenCursor(cfg.CursorPath)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		cfg:    cfg,
		cron:   cron,
		loc:    loc,
		cursor: cursor,
		logger: logging.WithComponent("scheduler"),
	}, nil
}

// SetRunners wires the concrete pipeline stages. Split from New so tests
// can construct a Scheduler against an in-memory database without the
// full runner graph when only cron timing is under test. guard is the
// same instance passed to ingest.NewRunner and dedup.NewRunner, so a
// manually-triggered ingestion or dedup run outside the scheduler still
// conflicts correctly with a scheduled one.
func (s *Scheduler) SetRunners(
	ingestRunner *ingest.Runner,
	eiIngestRunner *eiingest.Runner,
	dedupRunner *dedup.Runner,
	statsRunner *stats.Runner,
	guard *jobguard.Guard,
) {
	s.ingestRunner = ingestRunner
	s.eiIngestRunner = eiIngestRunner
	s.dedupRunner = dedupRunner
	s.statsRunner = statsRunner
	s.guard = guard
}

// Serve implements suture.Service, making Scheduler pluggable into
// supervisor.Tree.AddSchedulerService.
func (s *Scheduler) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if !s.cfg.Enabled {
		s.logger.Info().Msg("scheduler disabled")
		<-ctx.Done()
		close(s.doneCh)
		return ctx.Err()
	}

	interval := s.cfg.CheckInterval
	if interval <= 0 {
		interval = time.Minute
	}

	s.logger.Info().
		Str("cron", s.cfg.Cron).
		Str("timezone", s.cfg.Timezone).
		Dur("check_interval", interval).
		Msg("scheduler started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(s.doneCh)

	s.checkAndRun(ctx)
	for {
		select {
		case <-ticker.C:
			s.checkAndRun(ctx)
		case <-s.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer so suture's logs identify the service.
func (s *Scheduler) String() string {
	return "scheduler"
}

// Stop requests the scheduler loop to exit and waits for it to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stopCh := s.stopCh
	doneCh := s.doneCh
	s.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// checkAndRun fires the pipeline once if the cron schedule's next run
// after the last completed run has elapsed.
func (s *Scheduler) checkAndRun(ctx context.Context) {
	last, found, err := s.cursor.LastRun()
	if err != nil {
		s.logger.Error().Err(err).Msg("read last run cursor")
		return
	}

	var anchor time.Time
	if found {
		anchor = last
	} else {
		// Never run before: anchor one tick before now so the first
		// scheduled fire after process start is the one that runs.
		anchor = time.Now().In(s.loc).Add(-time.Minute)
	}

	next := s.cron.NextRun(anchor, s.loc)
	if next.IsZero() || time.Now().In(s.loc).Before(next) {
		return
	}

	s.logger.Info().Time("fire_time", next).Msg("running scheduled pipeline")
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled pipeline run failed")
		return
	}

	now := time.Now()
	if err := s.cursor.SetLastRun(now); err != nil {
		s.logger.Error().Err(err).Msg("persist last run cursor")
	}
}

// RunOnce executes the full pipeline sequence once: for the current and
// previous year, ingest both datasets; ingest the latest energy
// certificate register; rebuild both deduplicated tables; refresh the
// statistics cache (spec.md §4.8). Stages run serially, each must
// succeed before the next starts.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	thisYear := time.Now().In(s.loc).Year()
	years := []int{thisYear - 1, thisYear}

	for _, year := range years {
		for _, ds := range datasets {
			logger := s.logger.With().Int("year", year).Str("dataset", string(ds)).Logger()
			logger.Info().Msg("ingesting dataset")
			if err := s.ingestRunner.RunIngestion(ctx, ds, year); err != nil {
				return fmt.Errorf("ingest %s %d: %w", ds, year, err)
			}
		}
	}

	s.logger.Info().Msg("ingesting energy certificate register")
	if err := s.eiIngestRunner.RunEIIngestion(ctx, ""); err != nil {
		return fmt.Errorf("ingest energy certificates: %w", err)
	}

	s.logger.Info().Msg("rebuilding deduplicated tables")
	if err := s.dedupRunner.BuildAllDeduplicated(ctx, datasets); err != nil {
		return fmt.Errorf("build deduplicated tables: %w", err)
	}

	s.logger.Info().Msg("refreshing statistics cache")
	if err := s.statsRunner.RefreshAll(ctx); err != nil {
		return fmt.Errorf("refresh statistics: %w", err)
	}

	return nil
}

// Close releases the cursor's BadgerDB handle. Call after Serve returns.
func (s *Scheduler) Close() error {
	return s.cursor.Close()
}
