package engine

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	ordersAdmitted     *prometheus.CounterVec
	ordersRejected     *prometheus.CounterVec
	tradesExecuted     prometheus.Counter
	quantityTraded     prometheus.Counter
	matchDuration      prometheus.Histogram
	settlementFailures *prometheus.CounterVec
}

// NewMetrics creates and registers the engine collectors.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ordersAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_admitted_total",
			Help:      "Orders accepted by admission, by side",
		}, []string{"side"}),

		ordersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Orders refused by admission, by reason",
		}, []string{"reason"}),

		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total number of fills settled",
		}),

		quantityTraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quantity_traded_total",
			Help:      "Total units exchanged across all fills",
		}),

		matchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_duration_seconds",
			Help:      "Time spent in one admission and match attempt",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),

		settlementFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_aborts_total",
			Help:      "Match attempts aborted after admission, by reason",
		}, []string{"reason"}),
	}

	registry.MustRegister(
		m.ordersAdmitted,
		m.ordersRejected,
		m.tradesExecuted,
		m.quantityTraded,
		m.matchDuration,
		m.settlementFailures,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
