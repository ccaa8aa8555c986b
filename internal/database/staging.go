// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// TruncateStaging empties a staging table ahead of a fresh load. Staging
// is treated as exclusive scratch space per run (spec.md §5): callers
// serialize same-dataset runs themselves.
func (db *DB) TruncateStaging(ctx context.Context, table string) error {
	if _, err := db.conn.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
		return WrapStoreError("truncate "+table, err)
	}
	return nil
}

// BulkInsertChunkSize is the row count per INSERT batch C2/C3 stage with.
const BulkInsertChunkSize = 1000

// BulkInsert inserts rows into table(columns...) in chunks of
// BulkInsertChunkSize, returning the total row count inserted. rows is
// reused across chunks; each element must have len(columns) fields.
func BulkInsert(ctx context.Context, execer interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
}, table string, columns []string, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	rowPlaceholder := "(" + strings.Join(placeholders, ", ") + ")"

	inserted := 0
	for start := 0; start < len(rows); start += BulkInsertChunkSize {
		end := start + BulkInsertChunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		var sb strings.Builder
		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))
		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(rowPlaceholder)
			args = append(args, row...)
		}

		if _, err := execer.ExecContext(ctx, sb.String(), args...); err != nil {
			return inserted, WrapStoreError("bulk insert "+table, err)
		}
		inserted += len(chunk)
	}
	return inserted, nil
}

// CountRows returns the row count of table, used to log post-stage row
// counts (spec.md §4.1 step 3) and dedup verification ratios (§4.3).
func (db *DB) CountRows(ctx context.Context, table string) (int64, error) {
	var count int64
	err := db.conn.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&count)
	if err != nil {
		return 0, WrapStoreError("count "+table, err)
	}
	return count, nil
}
