package server

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/plasmaforge/fusor/internal/evaluator"
)

var (
	metricsOnce sync.Once
	metricsInst *Metrics
)

// serverMetrics returns the process-wide metric set. Collectors register
// once on the default registry no matter how many servers are built.
func serverMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInst = NewMetrics()
	})
	return metricsInst
}

// Metrics exports the service counters. Evaluation durations include a
// cache lookup, so hits land in the lowest buckets.
type Metrics struct {
	evaluations  prometheus.Counter
	evalDuration prometheus.Histogram
	cacheHits    prometheus.Gauge
	cacheMisses  prometheus.Gauge
	cacheSize    prometheus.Gauge

	solveDuration prometheus.Histogram
	solveOutcomes *prometheus.CounterVec
}

// NewMetrics registers the fusor metric set on the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		evaluations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fusor_evaluations_total",
			Help: "Point evaluations served, cached or computed.",
		}),
		evalDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fusor_evaluation_duration_seconds",
			Help:    "Wall time per point evaluation.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}),
		cacheHits: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fusor_eval_cache_hits",
			Help: "Cumulative evaluator cache hits.",
		}),
		cacheMisses: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fusor_eval_cache_misses",
			Help: "Cumulative evaluator cache misses.",
		}),
		cacheSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "fusor_eval_cache_entries",
			Help: "Entries currently held by the evaluator cache.",
		}),
		solveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fusor_solve_duration_seconds",
			Help:    "Wall time per target-matching solve.",
			Buckets: prometheus.ExponentialBuckets(1e-3, 4, 10),
		}),
		solveOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "fusor_solves_total",
			Help: "Finished solves by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveEvaluation records one served evaluation and refreshes the
// cache gauges from the evaluator's own counters.
func (m *Metrics) ObserveEvaluation(d time.Duration, st evaluator.Stats) {
	m.evaluations.Inc()
	m.evalDuration.Observe(d.Seconds())
	m.cacheHits.Set(float64(st.Hits))
	m.cacheMisses.Set(float64(st.Misses))
	m.cacheSize.Set(float64(st.Size))
}

// ObserveSolve records one finished solve.
func (m *Metrics) ObserveSolve(d time.Duration, converged bool) {
	m.solveDuration.Observe(d.Seconds())
	outcome := "converged"
	if !converged {
		outcome = "not_converged"
	}
	m.solveOutcomes.WithLabelValues(outcome).Inc()
}
