// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"net/http"

	"github.com/tomtom215/geoboard/internal/auth"
	"github.com/tomtom215/geoboard/internal/logging"
)

// authorize checks that the authenticated caller may perform action on
// object. ownerID is the owner of the target resource, empty when there is
// none. It writes 401/403 and returns false when the caller is refused.
func (h *Handler) authorize(rw *ResponseWriter, r *http.Request, object, action, ownerID string) (*auth.Claims, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		rw.Unauthorized("Authentication required")
		return nil, false
	}

	isOwner := ownerID != "" && ownerID == claims.UserID
	allowed, err := h.authz.Allowed(claims.Roles, object, action, isOwner)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("object", object).
			Str("action", action).
			Msg("Authorization check failed")
		rw.InternalError("Authorization check failed")
		return nil, false
	}
	if !allowed {
		logging.Ctx(r.Context()).Debug().
			Str("user_id", claims.UserID).
			Str("object", object).
			Str("action", action).
			Msg("Access denied")
		rw.Forbidden("You are not allowed to " + action + " this " + object)
		return nil, false
	}
	return claims, true
}
