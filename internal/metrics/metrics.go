// Package metrics exposes Prometheus counters for catalog browsing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"catalog_bot/internal/model"
	"catalog_bot/internal/view"
)

// Metrics groups the collectors. It implements view.Observer so it can be
// attached to every session. Contact values are never recorded.
type Metrics struct {
	Searches           prometheus.Counter
	Selections         prometheus.Counter
	Captures           *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Sessions           prometheus.Gauge
	CatalogItems       prometheus.Gauge
}

var _ view.Observer = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Searches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_searches_total",
			Help: "Search queries applied to a browsing session.",
		}),
		Selections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_selections_total",
			Help: "Items selected for access.",
		}),
		Captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_captures_total",
			Help: "Accepted capture forms by contact method.",
		}, []string{"method"}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalog_validation_failures_total",
			Help: "Rejected capture submissions by missing field.",
		}, []string{"field"}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_sessions",
			Help: "Live browsing sessions.",
		}),
		CatalogItems: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_items",
			Help: "Items in the current catalog snapshot.",
		}),
	}
	reg.MustRegister(m.Searches, m.Selections, m.Captures, m.ValidationFailures, m.Sessions, m.CatalogItems)
	return m
}

// CaptureAccepted implements view.Observer.
func (m *Metrics) CaptureAccepted(ev model.CaptureEvent) {
	m.Captures.WithLabelValues(string(ev.Method)).Inc()
}

// ValidationFailed implements view.Observer.
func (m *Metrics) ValidationFailed(_ model.Item, err *view.ValidationError) {
	m.ValidationFailures.WithLabelValues(err.Field()).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
