// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

/*
Package services provides suture.Service wrappers for Geoboard components.

Each wrapper implements suture.Service and fmt.Stringer:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server, translating ListenAndServe into Serve
  - Drains connections for a configurable timeout on shutdown

WebSocket Hub (WebSocketHubService):
  - Runs realtime.Hub.RunWithContext
  - The hub is restartable, so a crash is recovered in place

Expiry Sweeper (ExpirySweeperService):
  - Deletes bulletins past their expiry on a fixed interval
  - Announces each removal as bulletin-deleted through the hub

Value Log GC (ValueLogGCService):
  - Runs BadgerDB value log GC periodically
  - Errors are logged, never fatal

Wrappers depend on small interfaces (ContextHub, ExpiredBulletinStore,
EventDispatcher, ValueLogCollector) rather than the concrete packages, so
they can be tested with fakes.
*/
package services
