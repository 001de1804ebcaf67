package web

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// runsTotal counts simulate calls by surface and result
	runsTotal *prometheus.CounterVec

	// trialsTotal counts simulated hands
	trialsTotal prometheus.Counter

	// runDuration tracks wall time per finished run
	runDuration prometheus.Histogram

	// successRate records the success rate of each finished run
	successRate prometheus.Histogram
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tcgodds_runs_total",
			Help: "Simulation runs by surface and result",
		}, []string{"surface", "result"}),
		trialsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "tcgodds_trials_total",
			Help: "Opening hands simulated",
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tcgodds_run_duration_seconds",
			Help:    "Simulation run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4m
		}),
		successRate: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tcgodds_success_rate_percent",
			Help:    "Success rate of finished runs",
			Buckets: prometheus.LinearBuckets(10, 10, 9),
		}),
	}
}

func (m *Metrics) observeRun(surface string, trials int, successRate float64, elapsed time.Duration) {
	m.runsTotal.WithLabelValues(surface, "ok").Inc()
	m.trialsTotal.Add(float64(trials))
	m.runDuration.Observe(elapsed.Seconds())
	m.successRate.Observe(successRate)
}

func (m *Metrics) observeFailure(surface, result string) {
	m.runsTotal.WithLabelValues(surface, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
