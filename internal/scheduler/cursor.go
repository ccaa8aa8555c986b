// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const lastRunKey = "scheduler:last_run"

// Cursor persists the timestamp of the last completed pipeline run so a
// process restart mid-week doesn't immediately refire the job (spec.md
// §4.8). It is backed by a small BadgerDB store separate from the
// DuckDB data file.
type Cursor struct {
	db *badger.DB
}

// OpenCursor opens (or creates) the BadgerDB store at path.
func OpenCursor(path string) (*Cursor, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cursor store: %w", err)
	}
	return &Cursor{db: db}, nil
}

// Close releases the underlying BadgerDB handle.
func (c *Cursor) Close() error {
	return c.db.Close()
}

// LastRun returns the timestamp of the last completed run, and false if
// the pipeline has never completed.
func (c *Cursor) LastRun() (time.Time, bool, error) {
	var last time.Time
	found := false

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(lastRunKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return last.UnmarshalBinary(val)
		})
	})
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read last run cursor: %w", err)
	}
	if !last.IsZero() {
		found = true
	}
	return last, found, nil
}

// SetLastRun records t as the time of the most recently completed run.
func (c *Cursor) SetLastRun(t time.Time) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal last run cursor: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(lastRunKey), data))
	})
}
