// Geoboard - Location-based Announcement Board
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoboard

// Package metrics registers the Prometheus collectors for Geoboard.
//
// Collectors are package-level and registered with the default registry via
// promauto, so callers use them directly or through the Record helpers.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Realtime fan-out
	WSSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geoboard_ws_sessions",
			Help: "Current number of registered WebSocket sessions",
		},
	)

	WSRoomsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geoboard_ws_rooms",
			Help: "Current number of non-empty location rooms",
		},
	)

	WSJoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoboard_ws_joins_total",
			Help: "Total join-location requests applied",
		},
		[]string{"result"}, // "changed", "unchanged"
	)

	WSJoinsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoboard_ws_joins_rejected_total",
			Help: "Total join-location requests that were not applied",
		},
		[]string{"reason"}, // "rate_limited", "malformed"
	)

	WSDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoboard_ws_dispatch_total",
			Help: "Total bulletin events processed by the hub",
		},
		[]string{"kind"},
	)

	WSDispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoboard_ws_dispatch_failures_total",
			Help: "Total bulletin events that could not be enqueued",
		},
		[]string{"reason"}, // "hub_stopped", "queue_full", "invalid", "canceled"
	)

	WSDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoboard_ws_deliveries_total",
			Help: "Total event frames queued to sessions",
		},
		[]string{"kind"},
	)

	WSDispatchTargets = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geoboard_ws_dispatch_targets",
			Help:    "Number of sessions targeted per dispatched event",
			Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)

	WSSlowSessionsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geoboard_ws_slow_sessions_dropped_total",
			Help: "Total sessions dropped because their send buffer was full",
		},
	)

	// Store
	BulletinsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geoboard_bulletins_expired_total",
			Help: "Total bulletins removed by the expiry sweeper",
		},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geoboard_store_operation_duration_seconds",
			Help:    "Duration of BadgerDB store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	StoreOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoboard_store_operation_errors_total",
			Help: "Total failed BadgerDB store operations",
		},
		[]string{"operation", "collection"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geoboard_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geoboard_api_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geoboard_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)
)

// RecordStoreOperation records a store operation metric.
func RecordStoreOperation(operation, collection string, duration time.Duration, err error) {
	StoreOperationDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		StoreOperationErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordJoin records an applied join-location.
func RecordJoin(changed bool) {
	if changed {
		WSJoinsTotal.WithLabelValues("changed").Inc()
		return
	}
	WSJoinsTotal.WithLabelValues("unchanged").Inc()
}

// RecordDispatch records one processed event and how many sessions it reached.
func RecordDispatch(kind string, targets, delivered int) {
	WSDispatchTotal.WithLabelValues(kind).Inc()
	WSDispatchTargets.Observe(float64(targets))
	WSDeliveriesTotal.WithLabelValues(kind).Add(float64(delivered))
}
