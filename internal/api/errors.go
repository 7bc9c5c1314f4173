// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoboard/internal/auth"
	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/store"
	"github.com/tomtom215/geoboard/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// writeAuthError renders authentication failures in the APIResponse envelope.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	rw := NewResponseWriter(w, r)
	if errors.Is(err, auth.ErrMissingToken) {
		rw.Unauthorized("Authentication required")
		return
	}
	rw.Unauthorized("Invalid or expired token")
}

// respondStoreError maps a store error to the matching status. what names
// the resource in 404 messages.
func respondStoreError(rw *ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound(what + " not found")
	case errors.Is(err, store.ErrConflict):
		rw.Conflict(err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		rw.ServiceUnavailable("Request canceled")
	default:
		rw.DatabaseError(err)
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response and returns false on failure.
func decodeAndValidate(rw *ResponseWriter, w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("Invalid request body")
		rw.BadRequest("Invalid request body")
		return false
	}
	return validate(rw, dst)
}

// validate runs struct validation and writes a VALIDATION_ERROR on failure.
func validate(rw *ResponseWriter, v any) bool {
	if verr := validation.ValidateStruct(v); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}
