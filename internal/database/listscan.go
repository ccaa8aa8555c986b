// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package database

import "fmt"

// ScanInt64List converts a scanned LIST column (returned by the driver as
// []any, one element per list entry) into a []int64. Used for
// povezani_del_stavbe_ids / povezani_posel_ids, which database/sql has no
// native scan target for.
func ScanInt64List(raw any) ([]int64, error) {
	if raw == nil {
		return nil, nil
	}
	elems, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("scan int64 list: unexpected driver value %T", raw)
	}
	out := make([]int64, len(elems))
	for i, e := range elems {
		switch v := e.(type) {
		case int64:
			out[i] = v
		case int32:
			out[i] = int64(v)
		case int:
			out[i] = int64(v)
		default:
			return nil, fmt.Errorf("scan int64 list: unexpected element type %T", e)
		}
	}
	return out, nil
}

// ScanStringList converts a scanned LIST column into a []string, used for
// energetske_izkaznice.
func ScanStringList(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	elems, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("scan string list: unexpected driver value %T", raw)
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		s, ok := e.(string)
		if !ok {
			return nil, fmt.Errorf("scan string list: unexpected element type %T", e)
		}
		out[i] = s
	}
	return out, nil
}
