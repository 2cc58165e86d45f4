package router

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the prometheus instruments for the router. All instruments
// are registered on the Registerer supplied through the Config.
type Metrics struct {
	tradesTotal       prometheus.Counter
	tradeDuration     *prometheus.HistogramVec
	solverSweeps      prometheus.Histogram
	maxRelativeChange prometheus.Gauge
	nonConverged      prometheus.Counter
}

// NewMetrics creates and registers the router's metrics.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		tradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "router",
			Name:      "trades_total",
			Help:      "Total number of trades applied to the router.",
		}),
		tradeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "router",
			Name:      "trade_duration_seconds",
			Help:      "Wall time of a full trade, including the equilibrium solve.",
			Buckets:   prometheus.DefBuckets,
		}, []string{}),
		solverSweeps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "router",
			Name:      "solver_sweeps",
			Help:      "Number of Gauss-Seidel sweeps needed per equilibrium solve.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		maxRelativeChange: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "router",
			Name:      "solver_last_max_relative_change",
			Help:      "Maximum relative price change observed in the final sweep of the last solve.",
		}),
		nonConverged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "router",
			Name:      "solver_non_converged_total",
			Help:      "Number of solves that hit the sweep cap before reaching tolerance.",
		}),
	}

	registry.MustRegister(
		m.tradesTotal,
		m.tradeDuration,
		m.solverSweeps,
		m.maxRelativeChange,
		m.nonConverged,
	)

	return m
}

// observeTrade records the outcome of a single trade.
func (m *Metrics) observeTrade(stats SolveStats, seconds float64) {
	m.tradesTotal.Inc()
	m.tradeDuration.WithLabelValues().Observe(seconds)
	m.solverSweeps.Observe(float64(stats.Sweeps))
	m.maxRelativeChange.Set(stats.MaxRelativeChange)
	if !stats.Converged {
		m.nonConverged.Inc()
	}
}
