// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/toorkk/domogled/internal/config"
)

func newTestConfig(t *testing.T) config.SchedulerConfig {
	t.Helper()
	cfg := config.DefaultConfig().Scheduler
	cfg.CursorPath = filepath.Join(t.TempDir(), "cursor")
	return cfg
}

func TestNew_InvalidCron(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Cron = "not a cron"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}

func TestNew_InvalidTimezone(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Timezone = "Not/AZone"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
}

func TestScheduler_Serve_Disabled_StopsOnContextCancel(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Enabled = false

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := s.Serve(ctx); err == nil {
		t.Fatal("expected Serve to return the context's error when cancelled")
	}
}

func TestScheduler_CheckAndRun_NoCursorAndNotYetDue_SkipsRun(t *testing.T) {
	cfg := newTestConfig(t)
	// A far-future cron expression: minute 59 is valid but this test
	// only checks that an unset cursor doesn't itself trigger a run
	// when the computed next fire time is still ahead.
	cfg.Cron = "59 23 31 12 *"

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	s.checkAndRun(context.Background())

	if _, found, _ := s.cursor.LastRun(); found {
		t.Fatal("expected no run to have been recorded")
	}
}

func TestScheduler_String(t *testing.T) {
	cfg := newTestConfig(t)
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	if s.String() != "scheduler" {
		t.Fatalf("String() = %q, want %q", s.String(), "scheduler")
	}
}
