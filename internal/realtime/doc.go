// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

/*
Package realtime fans bulletin events out to WebSocket clients by location.

Every client reports its position with join-location. The Registry files the
session under the room of its 0.1 degree grid cell ("location:41.0:29.0"),
one room per session. When a bulletin is created, updated or deleted, the
HTTP layer calls Hub.Dispatch and the hub delivers the event to every session
in the bulletin's cell and the 8 cells around it.

Key Components:

  - Hub: single goroutine event loop owning sessions and the Registry
  - Registry: session to room and room to members, always consistent
  - Session: one gorilla/websocket connection with read and write pumps
  - Event: closed set of kinds (created, updated, deleted)

Wire format:

	client -> server  {"type":"join-location","data":{"lat":41.05,"lng":29.05}}
	client -> server  {"type":"ping"}
	server -> client  {"type":"new-bulletin","data":{...bulletin...}}
	server -> client  {"type":"bulletin-deleted","data":"<id>"}

Delivery is best effort. A session whose send buffer is full when an event
arrives is dropped; the client reconnects and joins again.

Usage:

	hub := realtime.NewHub(realtime.NewRegistry(), realtime.DefaultHubConfig())
	go hub.RunWithContext(ctx)

	s := realtime.NewSession(hub, conn, "")
	if err := hub.Register(r.Context(), s); err == nil {
		s.Start()
	}

	_ = hub.Dispatch(ctx, realtime.NewCreatedEvent(bulletin))
*/
package realtime
