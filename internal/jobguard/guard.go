// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package jobguard

import (
	"fmt"
	"sync"

	"github.com/toorkk/domogled/internal/apperrors"
	"github.com/toorkk/domogled/internal/models"
)

// Guard tracks which pipeline stage currently holds the run slot for a
// dataset, at the granularity each stage needs: ingestion is keyed by
// (dataset, year), since distinct years of the same dataset are allowed
// to ingest concurrently (spec.md: "ad-hoc API-triggered runs may
// overlap but must target distinct (year, dataset) pairs"); dedup has no
// year dimension and must not overlap an ingestion run for the same
// dataset regardless of which year that run targets, since dedup reads
// the core tables an in-flight ingest is still writing.
type Guard struct {
	mu sync.Mutex
	// ingestYears[dataset] is the set of years currently ingesting.
	ingestYears map[models.Dataset]map[int]bool
	// dedupBusy[dataset] is set while a dedup rebuild holds the dataset.
	dedupBusy map[models.Dataset]bool
}

// New returns an empty Guard.
func New() *Guard {
	return &Guard{
		ingestYears: make(map[models.Dataset]map[int]bool),
		dedupBusy:   make(map[models.Dataset]bool),
	}
}

// AcquireIngest claims the (dataset, year) slot for an ingestion run, or
// returns apperrors.Conflict if that year is already ingesting or a
// dedup rebuild holds dataset.
func (g *Guard) AcquireIngest(dataset models.Dataset, year int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acquireIngestLocked(dataset, year)
}

func (g *Guard) acquireIngestLocked(dataset models.Dataset, year int) error {
	if g.dedupBusy[dataset] {
		return fmt.Errorf("dedup already running for %s: %w", dataset, apperrors.Conflict)
	}
	if g.ingestYears[dataset][year] {
		return fmt.Errorf("ingest already running for %s %d: %w", dataset, year, apperrors.Conflict)
	}
	if g.ingestYears[dataset] == nil {
		g.ingestYears[dataset] = make(map[int]bool)
	}
	g.ingestYears[dataset][year] = true
	return nil
}

// ReleaseIngest frees the (dataset, year) slot. No-op if it isn't held.
func (g *Guard) ReleaseIngest(dataset models.Dataset, year int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.ingestYears[dataset], year)
}

// AcquireIngestYears claims every year in years for dataset's ingest
// slot in one atomic step: the first conflict rolls back every year
// already claimed by this call, so the caller gets either all of the
// requested years or none of them. Used by the admin API, which must
// know synchronously whether a whole requested year range is clear
// before acknowledging the request.
func (g *Guard) AcquireIngestYears(dataset models.Dataset, years []int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	acquired := make([]int, 0, len(years))
	for _, year := range years {
		if err := g.acquireIngestLocked(dataset, year); err != nil {
			for _, y := range acquired {
				delete(g.ingestYears[dataset], y)
			}
			return err
		}
		acquired = append(acquired, year)
	}
	return nil
}

// ReleaseIngestYears frees every year in years for dataset's ingest slot.
func (g *Guard) ReleaseIngestYears(dataset models.Dataset, years []int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, year := range years {
		delete(g.ingestYears[dataset], year)
	}
}

// AcquireDedup claims dataset's dedup slot, or returns apperrors.Conflict
// if a dedup rebuild is already running for it or an ingestion run (for
// any year) is.
func (g *Guard) AcquireDedup(dataset models.Dataset) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.acquireDedupLocked(dataset)
}

func (g *Guard) acquireDedupLocked(dataset models.Dataset) error {
	if g.dedupBusy[dataset] {
		return fmt.Errorf("dedup already running for %s: %w", dataset, apperrors.Conflict)
	}
	if len(g.ingestYears[dataset]) > 0 {
		return fmt.Errorf("ingest already running for %s: %w", dataset, apperrors.Conflict)
	}
	g.dedupBusy[dataset] = true
	return nil
}

// ReleaseDedup frees dataset's dedup slot. No-op if it isn't held.
func (g *Guard) ReleaseDedup(dataset models.Dataset) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.dedupBusy, dataset)
}

// AcquireAllDedup claims every dataset in datasets' dedup slot, rolling
// back any partial acquisition on the first conflict. Used by
// BuildAllDeduplicated, which must hold every dataset's slot for the
// duration of the energy-certificate join that follows them.
func (g *Guard) AcquireAllDedup(datasets []models.Dataset) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	acquired := make([]models.Dataset, 0, len(datasets))
	for _, d := range datasets {
		if err := g.acquireDedupLocked(d); err != nil {
			for _, a := range acquired {
				delete(g.dedupBusy, a)
			}
			return err
		}
		acquired = append(acquired, d)
	}
	return nil
}

// ReleaseAllDedup frees every dataset in datasets' dedup slot.
func (g *Guard) ReleaseAllDedup(datasets []models.Dataset) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, d := range datasets {
		delete(g.dedupBusy, d)
	}
}
