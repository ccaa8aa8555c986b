// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package jobqueue

import (
	"context"
	"sync"
)

// Job is a unit of background work submitted to a Queue. It receives a
// context independent of the HTTP request that submitted it, since the
// job typically keeps running after the request/response cycle ends.
type Job func(ctx context.Context)

// Queue runs submitted jobs on a fixed number of worker slots, the same
// bounded-semaphore shape as internal/ingest.Pool, applied here to
// admin-triggered jobs instead of the Stage step's CSV loads. Submit never blocks on
// the queue being full: it records the job immediately (preserving the
// caller's 202 semantics) and lets it wait its turn on the semaphore in
// the background.
type Queue struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// New returns a Queue allowing at most concurrency jobs to run at once.
// concurrency<=0 is treated as 1.
func New(concurrency int) *Queue {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Queue{sem: make(chan struct{}, concurrency)}
}

// Submit schedules job to run once a worker slot is free and returns
// immediately. Callers must validate input and reserve any shared state
// the job depends on (e.g. a jobguard slot) before calling Submit, since
// Submit gives no synchronous feedback about when the job actually
// starts running.
func (q *Queue) Submit(job Job) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		q.sem <- struct{}{}
		defer func() { <-q.sem }()
		job(context.Background())
	}()
}

// Wait blocks until every job submitted so far has finished. Used by
// tests; the server's shutdown path does not call it.
func (q *Queue) Wait() {
	q.wg.Wait()
}
