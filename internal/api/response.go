// Domogled - Slovenian real-estate transaction analytics
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/toorkk/domogled/internal/logging"
)

// statusEnvelope is the wrapper spec.md §7 describes for synchronous
// query endpoints: `status` in {success, error} plus a human-readable
// `message`. Admin trigger endpoints use the same shape for their 202
// acknowledgement.
type statusEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ResponseWriter writes statusEnvelope-shaped JSON responses.
type ResponseWriter struct {
	w http.ResponseWriter
	r *http.Request
}

// NewResponseWriter wraps w/r for a single request.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r}
}

// Success writes a 200 response with status=success and the given data.
func (rw *ResponseWriter) Success(data any) {
	rw.writeJSON(http.StatusOK, statusEnvelope{Status: "success", Data: data})
}

// Accepted writes a 202 response acknowledging a background job was
// enqueued (spec.md §6's admin trigger endpoints).
func (rw *ResponseWriter) Accepted(message string) {
	rw.writeJSON(http.StatusAccepted, statusEnvelope{Status: "success", Message: message})
}

// RawGeoJSON writes data (a models.FeatureCollection) directly, with no
// status envelope: map clients expect a bare GeoJSON object at the
// response root.
func (rw *ResponseWriter) RawGeoJSON(data any) {
	rw.writeJSON(http.StatusOK, data)
}

// Error writes statusCode with status=error and message.
func (rw *ResponseWriter) Error(statusCode int, message string) {
	rw.writeJSON(statusCode, statusEnvelope{Status: "error", Message: message})
}

// BadRequest writes a 400 error.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, message)
}

// NotFound writes a 404 error.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, message)
}

// Conflict writes a 409 error.
func (rw *ResponseWriter) Conflict(message string) {
	rw.Error(http.StatusConflict, message)
}

// InternalError writes a 500 error without leaking err's message to the
// client; err is logged with the request's correlation id.
func (rw *ResponseWriter) InternalError(err error) {
	logging.CtxErr(rw.r.Context(), err).Msg("internal error")
	rw.Error(http.StatusInternalServerError, "an internal error occurred")
}

func (rw *ResponseWriter) writeJSON(statusCode int, body any) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(statusCode)
	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.CtxErr(rw.r.Context(), err).Msg("failed to encode response body")
	}
}
