/*
Copyright (C) 2026 Wayfarer HQ

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestDuration tracks HTTP request latency by method, endpoint and status.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wayfarer_api_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIRequestsTotal counts HTTP requests by method, endpoint and status.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_api_requests_total",
		Help: "Total number of HTTP requests.",
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections gauges in-flight HTTP requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wayfarer_api_active_connections",
		Help: "Number of HTTP requests currently being served.",
	})

	// APIWebSocketConnections gauges connected event-stream clients.
	APIWebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wayfarer_api_websocket_connections",
		Help: "Number of connected WebSocket event clients.",
	})

	// DatabaseQueryDuration tracks database operation latency by operation and table.
	DatabaseQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wayfarer_db_query_duration_seconds",
		Help:    "Database query duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DatabaseErrorsTotal counts database errors by operation and kind.
	DatabaseErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_db_errors_total",
		Help: "Total number of database errors.",
	}, []string{"operation", "kind"})

	// DatabaseConnectionsActive gauges open connections in the pool.
	DatabaseConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wayfarer_db_connections_active",
		Help: "Number of open database connections.",
	})

	// SlotSearchesTotal counts slot allocation searches by outcome.
	SlotSearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_slot_searches_total",
		Help: "Total number of slot allocation searches.",
	}, []string{"outcome"})

	// PlaceLookupsTotal counts place directory lookups by kind and cache result.
	PlaceLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_place_lookups_total",
		Help: "Total number of place directory lookups.",
	}, []string{"kind", "cache"})

	// EventsPublishedTotal counts domain events published on the bus.
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_events_published_total",
		Help: "Total number of domain events published.",
	}, []string{"type"})
)

// Handler exposes the Prometheus metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
