package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// Session storage metrics
	SessionStorageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "session_storage_operation_duration_seconds",
			Help:    "Session storage operation latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"backend", "operation", "status"},
	)

	// Webhook metrics
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total number of webhook deliveries by topic and outcome",
		},
		[]string{"topic", "outcome"},
	)
)

// Status label values
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Webhook outcome label values
const (
	OutcomeHandled      = "handled"
	OutcomeFailed       = "failed"
	OutcomeUnauthorized = "unauthorized"
	OutcomeIgnored      = "ignored"
)

// StatusLabel maps an operation error to a status label
func StatusLabel(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusOK
}
