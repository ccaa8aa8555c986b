// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// DeleteYearPartition removes every row for leto=year from table, the
// first half of C2's transactional DELETE+INSERT per-year replace
// (spec.md §4.1 step 5, §3 "Yearly partitioning").
func DeleteYearPartition(ctx context.Context, tx *sql.Tx, table string, year int) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE leto = ?", table), year)
	if err != nil {
		return WrapStoreError("delete partition "+table, err)
	}
	return nil
}

// ExecTemplate runs a rendered SQL template inside tx.
func ExecTemplate(ctx context.Context, tx *sql.Tx, sql string) error {
	if _, err := tx.ExecContext(ctx, sql); err != nil {
		return WrapStoreError("exec template", err)
	}
	return nil
}
