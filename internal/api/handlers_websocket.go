// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/geoboard/internal/logging"
	"github.com/tomtom215/geoboard/internal/realtime"
)

// getUpgrader creates a WebSocket upgrader with origin checking and a handshake timeout.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	// Browsers always send Origin; an empty one would bypass CORS entirely.
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	// No config: allow (tests and development)
	if h.config == nil {
		return true
	}

	for _, allowedOrigin := range h.config.Security.CORSOrigins {
		if allowedOrigin == "*" || allowedOrigin == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// sanitizeLogValue strips control characters and caps the length of
// client-supplied values before they are logged.
func sanitizeLogValue(s string) string {
	const maxLen = 200
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	return s
}

// WebSocket upgrades the connection and attaches it to the realtime hub.
// The session starts without a room; the client sends join-location to
// receive events around its position. When realtime.require_auth is set
// the token (header, cookie or ?token=) is checked before the upgrade.
//
// Method: GET
// Path: /api/v1/ws
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil || !h.hub.Running() {
		NewResponseWriter(w, r).ServiceUnavailable("Realtime service unavailable")
		return
	}

	var userID string
	if h.jwt != nil {
		if claims, err := h.authMW.Verify(r); err == nil {
			userID = claims.UserID
		} else if h.config != nil && h.config.Realtime.RequireAuth {
			writeAuthError(w, r, err)
			return
		}
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	session := realtime.NewSession(h.hub, conn, userID)
	if err := h.hub.Register(r.Context(), session); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket session rejected")
		_ = conn.Close()
		return
	}
	session.Start()
}
