// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package services

import (
	"context"
	"sync/atomic"

	"github.com/tomtom215/geoboard/internal/logging"
)

// ContextHub is satisfied by *realtime.Hub.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketHubService runs the realtime hub under supervision.
//
// RunWithContext may be called again after it returns, so a crashed hub is
// restarted in place. Sessions open at the time of the crash are closed and
// their clients reconnect.
type WebSocketHubService struct {
	hub    ContextHub
	name   string
	starts atomic.Int32
}

// NewWebSocketHubService creates a new hub service wrapper.
func NewWebSocketHubService(hub ContextHub) *WebSocketHubService {
	return &WebSocketHubService{
		hub:  hub,
		name: "websocket-hub",
	}
}

// Serve implements suture.Service and returns ctx.Err() on normal shutdown.
func (w *WebSocketHubService) Serve(ctx context.Context) error {
	log := logging.WithComponent(w.name)
	if n := w.starts.Add(1); n > 1 {
		log.Warn().Int32("start", n).Msg("Restarting realtime hub")
	}
	err := w.hub.RunWithContext(ctx)
	log.Info().Err(err).Msg("Realtime hub stopped")
	return err
}

// String implements fmt.Stringer. Suture uses it in log messages.
func (w *WebSocketHubService) String() string {
	return w.name
}
