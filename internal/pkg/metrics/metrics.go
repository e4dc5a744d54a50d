// Package metrics exposes the engine's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	Transitions         *prometheus.CounterVec
	Rejections          *prometheus.CounterVec
	BalanceQueries      prometheus.Counter
	SideEffectFailures  *prometheus.CounterVec
	NotificationsSent   *prometheus.CounterVec
	NotificationQueue   prometheus.Gauge
	SideEffectDurations *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "transitions_total",
			Help:      "Leave request state changes by target status.",
		}, []string{"status"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "operation_errors_total",
			Help:      "Leave operations refused with a domain error, by operation and code.",
		}, []string{"operation", "code"}),
		BalanceQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "balance_queries_total",
			Help:      "Balance computations performed.",
		}),
		SideEffectFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leave",
			Name:      "side_effect_failures_total",
			Help:      "Best-effort side effects that failed, by kind (audit, notification).",
		}, []string{"kind"}),
		NotificationsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notification",
			Name:      "deliveries_total",
			Help:      "Notification deliveries by channel and result.",
		}, []string{"channel", "result"}),
		NotificationQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "notification",
			Name:      "queue_depth",
			Help:      "Messages waiting in the notification queue.",
		}),
		SideEffectDurations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leave",
			Name:      "side_effect_duration_seconds",
			Help:      "Latency of audit and notification side effects.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.Transitions,
		m.Rejections,
		m.BalanceQueries,
		m.SideEffectFailures,
		m.NotificationsSent,
		m.NotificationQueue,
		m.SideEffectDurations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
