// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

// Package middleware provides HTTP middleware shared by the API router:
// request id propagation into the logging context, and Prometheus request
// instrumentation. All middleware uses the func(http.Handler) http.Handler
// shape so it plugs into chi's r.Use.
package middleware
