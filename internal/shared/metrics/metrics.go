package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Order metrics
	OrdersCreatedTotal  prometheus.Counter
	OrdersByStatusTotal *prometheus.CounterVec

	// Payment metrics
	ReconciliationsTotal   *prometheus.CounterVec
	SignatureFailuresTotal prometheus.Counter
	AmountMismatchesTotal  prometheus.Counter
	NotificationsTotal     *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stylekart"
	}

	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		OrdersCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orders",
				Name:      "created_total",
				Help:      "Total number of orders created",
			},
		),
		OrdersByStatusTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "orders",
				Name:      "transitions_total",
				Help:      "Total number of order status transitions",
			},
			[]string{"status"},
		),

		ReconciliationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payments",
				Name:      "reconciliations_total",
				Help:      "Total number of gateway reconciliation attempts",
			},
			[]string{"outcome"}, // completed, failed, replayed, rejected
		),
		SignatureFailuresTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payments",
				Name:      "signature_failures_total",
				Help:      "Total number of gateway callbacks rejected for an invalid signature",
			},
		),
		AmountMismatchesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "payments",
				Name:      "amount_mismatches_total",
				Help:      "Total number of gateway callbacks rejected for an amount mismatch",
			},
		),
		NotificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "notifications",
				Name:      "sent_total",
				Help:      "Total number of notification attempts",
			},
			[]string{"type", "status"}, // status: sent, failed
		),
	}
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusCodeToString(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordReconciliation records a reconciliation outcome.
func (m *Metrics) RecordReconciliation(outcome string) {
	m.ReconciliationsTotal.WithLabelValues(outcome).Inc()
}

// RecordNotification records a notification attempt.
func (m *Metrics) RecordNotification(kind string, sent bool) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	m.NotificationsTotal.WithLabelValues(kind, status).Inc()
}

// statusCodeToString converts an HTTP status code to a string category.
func statusCodeToString(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
