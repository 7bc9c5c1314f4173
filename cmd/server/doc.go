// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

/*
Package main is the entry point for the Geoboard server.

Geoboard is a location-based announcement board. Users post short bulletins
pinned to a coordinate; clients connected over WebSocket report their
position and receive new, edited and deleted bulletins for the grid cells
around them as they happen.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("geoboard")
	├── DataSupervisor ("data-layer")
	│   ├── Expiry sweeper (deletes and announces expired bulletins)
	│   └── BadgerDB value log GC (persistent stores only)
	├── MessagingSupervisor ("messaging-layer")
	│   └── Realtime hub (room membership and fan-out)
	└── APISupervisor ("api-layer")
	    └── HTTP server (REST + /api/v1/ws)

Component initialization order:

 1. Configuration: Koanf v2 (defaults, optional config file, environment)
 2. Logging: zerolog with JSON/console output
 3. Store: BadgerDB v4 document store
 4. Realtime hub: grid rooms and per-session delivery queues
 5. Auth: JWT (HS256), bcrypt passwords, Casbin RBAC
 6. HTTP: Chi router with CORS, rate limiting and Prometheus metrics
 7. Supervisor tree: Serve blocks until SIGINT/SIGTERM

# Configuration

All settings have defaults except JWT_SECRET. Common environment variables:

	JWT_SECRET            HMAC secret, at least 32 characters (required)
	HTTP_HOST, HTTP_PORT  listen address (default 0.0.0.0:3000)
	BADGER_PATH           BadgerDB directory
	BULLETIN_TTL          bulletin lifetime (default 24h)
	CORS_ORIGINS          comma-separated allowed origins
	WS_BROADCAST_CREATES  send new bulletins to every session (default true)
	WS_REQUIRE_AUTH       demand a token on the WebSocket upgrade
	LOG_LEVEL, LOG_FORMAT zerolog level and json|console

See internal/config for the complete list.

# Graceful Shutdown

On SIGINT or SIGTERM the root context is canceled. The HTTP server drains
within SHUTDOWN_TIMEOUT, the hub closes every session with a normal close
frame, and the store is closed after the tree has stopped.
*/
package main
