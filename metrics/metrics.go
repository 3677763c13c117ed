// Package metrics exposes Prometheus counters for orders and account links.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Token verification outcomes.
const (
	OutcomeFresh   = "fresh"
	OutcomeStale   = "stale"
	OutcomeInvalid = "invalid"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing, which keeps managers usable without instrumentation.
type Metrics struct {
	registry          *prometheus.Registry
	ordersCreated     *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	tokenChecks       *prometheus.CounterVec
	linksIssued       *prometheus.CounterVec
}

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders submitted, by source.",
		}, []string{"source"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Order status changes, by target status.",
		}, []string{"status"}),
		tokenChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_verifications_total",
			Help:      "Recovery and invite token checks, by type and outcome.",
		}, []string{"type", "outcome"}),
		linksIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_links_issued_total",
			Help:      "Recovery and invite links issued, by type.",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ordersCreated,
		m.statusTransitions,
		m.tokenChecks,
		m.linksIssued,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderCreated(source string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.statusTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) TokenChecked(tokenType, outcome string) {
	if m == nil {
		return
	}
	m.tokenChecks.WithLabelValues(tokenType, outcome).Inc()
}

func (m *Metrics) LinkIssued(tokenType string) {
	if m == nil {
		return
	}
	m.linksIssued.WithLabelValues(tokenType).Inc()
}
