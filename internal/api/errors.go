// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/toorkk/domogled/internal/apperrors"
)

// writeError maps err's sentinel (spec.md §7) to the matching HTTP
// status and writes it through rw. Unrecognized errors surface as 500
// without leaking internal detail.
func writeError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.BadRequest):
		rw.BadRequest(err.Error())
	case errors.Is(err, apperrors.NotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, apperrors.Conflict):
		rw.Conflict(err.Error())
	default:
		rw.InternalError(err)
	}
}

// statusFor returns the HTTP status writeError would choose for err,
// for callers that need the code without writing the body (tests).
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.BadRequest):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.NotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.Conflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
