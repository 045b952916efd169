package centrality

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricCentralityRecomputeTotal     = "centrality_recompute_total"
	MetricCentralityNonConvergedTotal  = "centrality_nonconverged_total"
	MetricCentralityRecomputeDuration  = "centrality_recompute_duration_seconds"
	MetricCentralityLastRecomputeStamp = "centrality_last_recompute_timestamp"
	MetricCentralityGraphNodeCount     = "centrality_graph_node_count"
)

// Metrics contains Prometheus metrics for centrality recomputation.
// All operations are thread-safe.
type Metrics struct {
	recomputeTotal         prometheus.Counter
	nonConvergedTotal      prometheus.Counter
	recomputeDuration      prometheus.Histogram
	lastRecomputeTimestamp prometheus.Gauge
	graphNodeCount         prometheus.Gauge
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register them
// with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		recomputeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCentralityRecomputeTotal,
			Help: "Total number of PageRank recomputation runs",
		}),
		nonConvergedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCentralityNonConvergedTotal,
			Help: "Total number of PageRank runs that hit the iteration cap without converging",
		}),
		recomputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricCentralityRecomputeDuration,
			Help:    "Histogram of PageRank recomputation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}),
		lastRecomputeTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricCentralityLastRecomputeStamp,
			Help: "Unix timestamp of the last PageRank recomputation",
		}),
		graphNodeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricCentralityGraphNodeCount,
			Help: "Number of nodes in the co-service graph at the last recomputation",
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.recomputeTotal,
		m.nonConvergedTotal,
		m.recomputeDuration,
		m.lastRecomputeTimestamp,
		m.graphNodeCount,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncRecomputeTotal increments the recompute total counter.
func (m *Metrics) IncRecomputeTotal() {
	m.recomputeTotal.Inc()
}

// IncNonConverged increments the non-convergence counter.
func (m *Metrics) IncNonConverged() {
	m.nonConvergedTotal.Inc()
}

// ObserveRecomputeDuration records a recompute duration sample.
func (m *Metrics) ObserveRecomputeDuration(seconds float64) {
	m.recomputeDuration.Observe(seconds)
}

// SetLastRecomputeTimestamp sets the last recompute timestamp gauge.
func (m *Metrics) SetLastRecomputeTimestamp(timestamp float64) {
	m.lastRecomputeTimestamp.Set(timestamp)
}

// SetLastGraphNodeCount sets the graph node count gauge.
func (m *Metrics) SetLastGraphNodeCount(count float64) {
	m.graphNodeCount.Set(count)
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.recomputeTotal,
		m.nonConvergedTotal,
		m.recomputeDuration,
		m.lastRecomputeTimestamp,
		m.graphNodeCount,
	}
}
