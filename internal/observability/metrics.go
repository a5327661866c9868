// Package observability provides Prometheus metrics and the process
// logger for the screener.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the screener.
type Metrics struct {
	// Universe metrics
	UniverseSize     prometheus.Gauge
	FilteredSize     prometheus.Gauge
	SeriesRetained   prometheus.Gauge
	FetchFailures    *prometheus.CounterVec
	FetchDuration    prometheus.Histogram

	// Engine metrics
	PairsTested      prometheus.Counter
	PairsFailed      prometheus.Counter
	PairsSignificant prometheus.Gauge
	TestDuration     prometheus.Histogram

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

// NewMetrics creates a Metrics instance with all metrics registered on
// reg. A nil registerer uses the default one.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "pairscan"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		UniverseSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "universe",
			Name:      "instruments",
			Help:      "Instruments listed by the provider in the last run",
		}),
		FilteredSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "universe",
			Name:      "instruments_filtered",
			Help:      "Instruments passing the liquidity filter in the last run",
		}),
		SeriesRetained: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "retained",
			Help:      "Aligned series retained after the fetch phase",
		}),
		FetchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "fetch_failures_total",
			Help:      "Per-instrument fetch failures by reason",
		}, []string{"reason"}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "series",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of a single series fetch",
			Buckets:   prometheus.DefBuckets,
		}),
		PairsTested: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "pairs_tested_total",
			Help:      "Total pair tests completed",
		}),
		PairsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "pairs_failed_total",
			Help:      "Pair tests failed on degenerate input",
		}),
		PairsSignificant: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "pairs_significant",
			Help:      "Pairs below the significance threshold in the last run",
		}),
		TestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "test_duration_seconds",
			Help:      "Duration of a single pair test",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Screening runs by outcome",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Duration of a full screening run",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
	}
}

// Handler returns an HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
