// Package observability provides the logger and Prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storm_monitor"

// Metrics holds the Prometheus counters, histograms, and gauges for the monitor.
type Metrics struct {
	CyclesTotal    *prometheus.CounterVec // labels: outcome={completed,skipped,failed}
	CycleDuration  prometheus.Histogram
	LastCycleTime  prometheus.Gauge
	ElevatedThreat prometheus.Gauge

	// Acquisition metrics.
	FetchDuration *prometheus.HistogramVec // labels: source={weather,earthquake}
	FetchErrors   *prometheus.CounterVec   // labels: source={weather,earthquake}

	// Decision output.
	NotificationsPublished  *prometheus.CounterVec // labels: kind={alert,status,earthquake,error}
	PublishErrors           *prometheus.CounterVec // labels: kind
	InstallationsThreatened prometheus.Gauge

	StateErrors *prometheus.CounterVec // labels: op={load,save}
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Monitoring cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete acquisition-decision-publish cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		LastCycleTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time of the last completed cycle.",
		}),
		ElevatedThreat: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "elevated_threat",
			Help:      "1 while an installation is under an elevated signal, 0 otherwise.",
		}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Failed upstream feed requests by source.",
		}, []string{"source"}),
		NotificationsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Notifications handed to the delivery channel by kind.",
		}, []string{"kind"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed notification deliveries by kind.",
		}, []string{"kind"}),
		InstallationsThreatened: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "installations_threatened",
			Help:      "Installations threatened by the current system.",
		}),
		StateErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_errors_total",
			Help:      "State persistence failures by operation.",
		}, []string{"op"}),
	}
}

// NewMetrics creates and registers all monitor metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.CyclesTotal,
		m.CycleDuration,
		m.LastCycleTime,
		m.ElevatedThreat,
		m.FetchDuration,
		m.FetchErrors,
		m.NotificationsPublished,
		m.PublishErrors,
		m.InstallationsThreatened,
		m.StateErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
