package centrality

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/confrec/confrec/internal/graph"
)

func TestMetrics_Register(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()

	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	// Duplicate registration fails.
	if err := NewMetrics().Register(reg); err == nil {
		t.Error("second Register() should have returned an error")
	}
}

func TestMetrics_RecordedByCacheRecompute(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() error: %v", err)
	}

	cache := NewCache(testCacheLogger(), m)
	cache.Get(graph.Build(cliqueMemberships("icse", 2023, "a", "b", "c")))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	byName := make(map[string]float64)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				byName[family.GetName()] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				byName[family.GetName()] = metric.GetGauge().GetValue()
			case metric.GetHistogram() != nil:
				byName[family.GetName()] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	if byName[MetricCentralityRecomputeTotal] != 1 {
		t.Errorf("%s = %f, want 1", MetricCentralityRecomputeTotal, byName[MetricCentralityRecomputeTotal])
	}
	if byName[MetricCentralityNonConvergedTotal] != 0 {
		t.Errorf("%s = %f, want 0", MetricCentralityNonConvergedTotal, byName[MetricCentralityNonConvergedTotal])
	}
	if byName[MetricCentralityRecomputeDuration] != 1 {
		t.Errorf("%s sample count = %f, want 1", MetricCentralityRecomputeDuration, byName[MetricCentralityRecomputeDuration])
	}
	if byName[MetricCentralityGraphNodeCount] != 3 {
		t.Errorf("%s = %f, want 3", MetricCentralityGraphNodeCount, byName[MetricCentralityGraphNodeCount])
	}
	if byName[MetricCentralityLastRecomputeStamp] == 0 {
		t.Errorf("%s not set", MetricCentralityLastRecomputeStamp)
	}
}
