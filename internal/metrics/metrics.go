// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cohost"

// Extraction outcomes.
const (
	ExtractionOK            = "ok"
	ExtractionSalvaged      = "salvaged"
	ExtractionEmpty         = "empty"
	ExtractionDenied        = "denied"
	ExtractionUpstreamError = "upstream_error"
)

// Metrics owns a private registry plus the service's collectors. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ExtractionsTotal    *prometheus.CounterVec
	WebhookEventsTotal  *prometheus.CounterVec
	EntitlementChanges  *prometheus.CounterVec
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ExtractionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_extractions_total",
			Help:      "Task extraction requests by outcome",
		}, []string{"outcome"}),
		WebhookEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment webhook deliveries by event type and result",
		}, []string{"event_type", "result"}),
		EntitlementChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entitlement_changes_total",
			Help:      "Entitlement transitions applied or skipped as stale",
		}, []string{"transition", "applied"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ExtractionsTotal,
		m.WebhookEventsTotal,
		m.EntitlementChanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records a finished request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncExtraction counts one extraction by outcome.
func (m *Metrics) IncExtraction(outcome string) {
	if m == nil {
		return
	}
	m.ExtractionsTotal.WithLabelValues(outcome).Inc()
}

// IncWebhook counts one webhook delivery.
func (m *Metrics) IncWebhook(eventType, result string) {
	if m == nil {
		return
	}
	m.WebhookEventsTotal.WithLabelValues(eventType, result).Inc()
}

// IncEntitlement counts a grant or revoke attempt.
func (m *Metrics) IncEntitlement(transition string, applied bool) {
	if m == nil {
		return
	}
	m.EntitlementChanges.WithLabelValues(transition, strconv.FormatBool(applied)).Inc()
}
