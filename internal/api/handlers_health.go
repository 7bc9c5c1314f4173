// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

package api

import (
	"context"
	"net/http"
	"time"
)

// readyCheckTimeout bounds the store ping in the readiness probe.
const readyCheckTimeout = 2 * time.Second

// HealthStatus is the readiness report.
type HealthStatus struct {
	Status            string  `json:"status"`
	DatabaseConnected bool    `json:"database_connected"`
	HubRunning        bool    `json:"hub_running"`
	Sessions          int     `json:"sessions"`
	Rooms             int     `json:"rooms"`
	Uptime            float64 `json:"uptime"`
}

// HealthLive handles liveness probe requests (Kubernetes-style).
// Returns 200 OK if the process is alive, regardless of dependencies.
//
// Method: GET
// Path: /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests (Kubernetes-style).
// Returns 200 only when the store answers and the realtime hub is running.
//
// Method: GET
// Path: /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
	defer cancel()

	status := HealthStatus{
		DatabaseConnected: h.store != nil && h.store.Ping(ctx) == nil,
		Uptime:            time.Since(h.startTime).Seconds(),
	}
	if h.hub != nil {
		status.HubRunning = h.hub.Running()
		status.Sessions = h.hub.SessionCount()
		status.Rooms = h.hub.Registry().RoomCount()
	}

	if !status.DatabaseConnected || !status.HubRunning {
		status.Status = "not_ready"
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Service not ready", status)
		return
	}
	status.Status = "ready"
	rw.Success(status)
}
