// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package jobguard

import (
	"errors"
	"testing"

	"github.com/toorkk/domogled/internal/apperrors"
	"github.com/toorkk/domogled/internal/models"
)

func TestAcquireIngest_DistinctYearsIndependent(t *testing.T) {
	g := New()
	if err := g.AcquireIngest(models.KPP, 2023); err != nil {
		t.Fatalf("acquire 2023: %v", err)
	}
	if err := g.AcquireIngest(models.KPP, 2024); err != nil {
		t.Fatalf("acquire 2024 should not conflict with 2023: %v", err)
	}
}

func TestAcquireIngest_SameYearConflicts(t *testing.T) {
	g := New()
	if err := g.AcquireIngest(models.KPP, 2023); err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	err := g.AcquireIngest(models.KPP, 2023)
	if !errors.Is(err, apperrors.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAcquireDedup_ConflictsWithAnyIngestYear(t *testing.T) {
	g := New()
	if err := g.AcquireIngest(models.KPP, 2023); err != nil {
		t.Fatalf("acquire ingest: %v", err)
	}
	err := g.AcquireDedup(models.KPP)
	if !errors.Is(err, apperrors.Conflict) {
		t.Fatalf("expected dedup to conflict with an in-flight ingest year, got %v", err)
	}
}

func TestAcquireIngest_ConflictsWithDedup(t *testing.T) {
	g := New()
	if err := g.AcquireDedup(models.KPP); err != nil {
		t.Fatalf("acquire dedup: %v", err)
	}
	err := g.AcquireIngest(models.KPP, 2023)
	if !errors.Is(err, apperrors.Conflict) {
		t.Fatalf("expected ingest to conflict with an in-flight dedup, got %v", err)
	}
}

func TestAcquire_DifferentDatasetsIndependent(t *testing.T) {
	g := New()
	if err := g.AcquireIngest(models.KPP, 2023); err != nil {
		t.Fatalf("acquire kpp: %v", err)
	}
	if err := g.AcquireDedup(models.NP); err != nil {
		t.Fatalf("acquire np: %v", err)
	}
}

func TestReleaseIngest_FreesSlotForNextHolder(t *testing.T) {
	g := New()
	if err := g.AcquireIngest(models.KPP, 2023); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	g.ReleaseIngest(models.KPP, 2023)
	if err := g.AcquireDedup(models.KPP); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
}

func TestAcquireIngestYears_RollsBackOnConflict(t *testing.T) {
	g := New()
	if err := g.AcquireIngest(models.KPP, 2024); err != nil {
		t.Fatalf("pre-acquire 2024: %v", err)
	}

	err := g.AcquireIngestYears(models.KPP, []int{2022, 2023, 2024, 2025})
	if !errors.Is(err, apperrors.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// 2022/2023 must have been rolled back, not left held.
	if err := g.AcquireIngest(models.KPP, 2022); err != nil {
		t.Fatalf("expected 2022 free after rollback, got %v", err)
	}
	if err := g.AcquireIngest(models.KPP, 2023); err != nil {
		t.Fatalf("expected 2023 free after rollback, got %v", err)
	}
}

func TestAcquireIngestYears_AllOrNothing(t *testing.T) {
	g := New()
	if err := g.AcquireIngestYears(models.NP, []int{2013, 2014, 2015}); err != nil {
		t.Fatalf("acquire range: %v", err)
	}
	for _, year := range []int{2013, 2014, 2015} {
		if err := g.AcquireIngest(models.NP, year); !errors.Is(err, apperrors.Conflict) {
			t.Fatalf("expected year %d held after range acquire, got %v", year, err)
		}
	}
}

func TestAcquireAllDedup_RollsBackOnConflict(t *testing.T) {
	g := New()
	if err := g.AcquireDedup(models.NP); err != nil {
		t.Fatalf("pre-acquire np: %v", err)
	}

	err := g.AcquireAllDedup([]models.Dataset{models.KPP, models.NP})
	if !errors.Is(err, apperrors.Conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// kpp must have been rolled back, not left held.
	if err := g.AcquireDedup(models.KPP); err != nil {
		t.Fatalf("expected kpp free after rollback, got %v", err)
	}
}
