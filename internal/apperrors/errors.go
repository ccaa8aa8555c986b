// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package apperrors defines the sentinel error taxonomy shared by every
// component. Components return these (wrapped with fmt.Errorf("...: %w", ...)
// where context helps) instead of ad-hoc error strings so the API layer can
// map failures to HTTP status without inspecting message text.
package apperrors

import "errors"

var (
	// BadRequest marks a malformed caller input: an unparseable bbox, an
	// unknown data_source, an unsupported cluster prefix, an invalid region
	// kind.
	BadRequest = errors.New("bad request")

	// NotFound marks a request for a deduplicated id or region that has no
	// data.
	NotFound = errors.New("not found")

	// Conflict marks an attempt to start a run that overlaps another run on
	// the same dataset.
	Conflict = errors.New("conflict")

	// RemoteFormatError marks an upstream register response that did not
	// match the expected JSON/zip shape.
	RemoteFormatError = errors.New("remote format error")

	// BadArchiveError marks a downloaded file that is not a valid zip
	// archive.
	BadArchiveError = errors.New("bad archive")

	// MissingFileError marks a zip archive missing one of the three
	// expected CSVs.
	MissingFileError = errors.New("missing file in archive")

	// StoreError marks a SQL failure. The owning transaction has already
	// been rolled back by the time this is returned.
	StoreError = errors.New("store error")

	// Internal marks any other unexpected failure.
	Internal = errors.New("internal error")
)

// Is reports whether err (or any error it wraps) is the given sentinel.
// Thin wrapper kept for call-site readability; identical to errors.Is.
func Is(err, sentinel error) bool {
	return errors.Is(err, sentinel)
}
