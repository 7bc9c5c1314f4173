// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

/*
Package api exposes Geoboard over HTTP: the REST resources for users,
bulletins and reports, the WebSocket endpoint that feeds the realtime hub,
health probes and the Prometheus scrape endpoint.

# Response Format

Every JSON response uses the APIResponse envelope:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

Errors carry a machine-readable code (VALIDATION_ERROR, NOT_FOUND, ...) in
error.code.

# Realtime Notifications

Bulletin writes are persisted first and then handed to the dispatcher. A
dispatch failure is logged and never changes the HTTP status the client
sees; the write already happened.

# Authorization

Routes under /api/v1 (except register, login, health and the WebSocket
endpoint) require a JWT. Handlers consult the Casbin enforcer with the
caller's roles and whether the caller owns the target resource.
*/
package api
