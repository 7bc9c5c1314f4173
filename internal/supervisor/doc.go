// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

/*
Package supervisor provides process supervision for Geoboard using suture v4.

Long-running services are arranged in a three-layer tree:

	RootSupervisor ("geoboard")
	├── DataSupervisor ("data-layer")
	│   ├── ExpirySweeperService
	│   └── ValueLogGCService
	├── MessagingSupervisor ("messaging-layer")
	│   └── WebSocketHubService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A service whose Serve returns is restarted with backoff. The hub can be
restarted in place: sessions are closed on stop and clients reconnect and
send join-location again.

# Logging

Supervisor events (restarts, backoff, timeouts) are logged through
sutureslog. Pass logging.NewSlogLogger() so they share the zerolog output.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)

See the services subpackage for the wrappers.
*/
package supervisor
