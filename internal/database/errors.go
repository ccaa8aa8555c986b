// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import (
	"errors"
	"fmt"

	"github.com/toorkk/domogled/internal/apperrors"
)

// WrapStoreError tags err as apperrors.StoreError, preserving the
// original driver error for logging while giving callers a single
// sentinel to branch on.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, apperrors.StoreError, err)
}

// IsTransactionConflict reports whether err is a DuckDB transaction
// conflict, which the caller may retry.
func IsTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	var msg string
	if unwrapped := errors.Unwrap(err); unwrapped != nil {
		msg = unwrapped.Error()
	} else {
		msg = err.Error()
	}
	return contains(msg, "Transaction conflict") || contains(msg, "Conflict on update")
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
