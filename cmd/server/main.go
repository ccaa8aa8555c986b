// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/toorkk/domogled/internal/api"
	"github.com/toorkk/domogled/internal/cluster"
	"github.com/toorkk/domogled/internal/config"
	"github.com/toorkk/domogled/internal/database"
	"github.com/toorkk/domogled/internal/dedup"
	"github.com/toorkk/domogled/internal/eiingest"
	"github.com/toorkk/domogled/internal/ingest"
	"github.com/toorkk/domogled/internal/jobguard"
	"github.com/toorkk/domogled/internal/jobqueue"
	"github.com/toorkk/domogled/internal/logging"
	"github.com/toorkk/domogled/internal/property"
	"github.com/toorkk/domogled/internal/scheduler"
	"github.com/toorkk/domogled/internal/stats"
	"github.com/toorkk/domogled/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// config.Load has not run logging.Init yet; the default logger
		// installed by logging's package init is good enough here.
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("starting domogled")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, cfg.Database.ServerLat, cfg.Database.ServerLon)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing database")
		}
	}()
	logging.Info().
		Str("path", cfg.Database.Path).
		Bool("spatial_available", db.IsSpatialAvailable()).
		Msg("database initialized")

	guard := jobguard.New()
	jobs := jobqueue.New(cfg.Server.AdminJobConcurrency)

	ingestRunner := ingest.NewRunner(&cfg.Ingestion, db, guard)
	eiIngestRunner := eiingest.NewRunner(&cfg.Ingestion, db)
	dedupRunner := dedup.NewRunner(db, guard)
	statsRunner := stats.NewRunner(db)
	clusterRunner := cluster.NewRunner(db)
	propertyRunner := property.NewRunner(db)

	sched, err := scheduler.New(cfg.Scheduler)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to construct scheduler")
	}
	sched.SetRunners(ingestRunner, eiIngestRunner, dedupRunner, statsRunner, guard)
	defer func() {
		if err := sched.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing scheduler cursor")
		}
	}()

	router := api.NewRouter(api.Deps{
		Ingest:   ingestRunner,
		EIIngest: eiIngestRunner,
		Dedup:    dedupRunner,
		Stats:    statsRunner,
		Cluster:  clusterRunner,
		Property: propertyRunner,
		Guard:    guard,
		Jobs:     jobs,
		Middleware: api.MiddlewareConfig{
			CORSOrigins:     cfg.Security.CORSOrigins,
			CORSCredentials: cfg.Security.CORSCredentialsAllowed,
		},
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	slogLogger := logging.NewSlogLogger()
	tree, err := supervisor.New(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddSchedulerService(sched)
	tree.AddAPIService(supervisor.NewFunc("http-server", serveHTTP(httpServer)))

	logging.Info().Str("addr", httpServer.Addr).Msg("http server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("domogled stopped gracefully")
}

// serveHTTP adapts httpServer into the run-func shape supervisor.NewFunc
// expects: serve until ctx is canceled, then shut down within a fixed
// 10-second grace period.
func serveHTTP(httpServer *http.Server) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
				return
			}
			errCh <- nil
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http server shutdown: %w", err)
			}
			return ctx.Err()
		}
	}
}
