// Package metrics declares the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearlot_notifications_added_total",
		Help: "Notifications inserted into an in-memory session, by source.",
	}, []string{"source"})

	NotificationsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearlot_notifications_deduplicated_total",
		Help: "Candidate notifications discarded by the session, by rule.",
	}, []string{"rule"})

	NotificationStoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearlot_notification_store_errors_total",
		Help: "Failed notification store calls, by operation.",
	}, []string{"op"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clearlot_notification_sessions_active",
		Help: "Open per-user notification sessions.",
	})

	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "clearlot_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
	}, []string{"name"})

	EnrichmentFieldMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearlot_enrichment_field_misses_total",
		Help: "Purchase enrichment lookups that failed or timed out, by field.",
	}, []string{"field"})

	InvoicesRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearlot_invoices_rendered_total",
		Help: "Invoices rendered, by format.",
	}, []string{"format"})
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearlot_http_requests_total",
		Help: "HTTP requests served, by method, route pattern and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clearlot_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clearlot_notification_stream_clients",
		Help: "Connected notification websocket clients.",
	})
)
