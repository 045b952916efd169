package centrality

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/confrec/confrec/internal/graph"
	"github.com/confrec/confrec/internal/store"
)

func testCacheLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func cliqueMemberships(series string, year int, ids ...string) []store.Membership {
	out := make([]store.Membership, 0, len(ids))
	for _, id := range ids {
		out = append(out, store.Membership{ResearcherID: id, Series: series, Year: year, Role: "pc-member"})
	}
	return out
}

func TestCache_GetComputesAndCaches(t *testing.T) {
	c := NewCache(testCacheLogger(), nil)
	g := graph.Build(cliqueMemberships("icse", 2023, "a", "b", "c"))

	if c.HasResult() {
		t.Fatal("new cache should be empty")
	}

	res := c.Get(g)
	if res.Fingerprint != g.Fingerprint() {
		t.Errorf("Fingerprint = %q, want %q", res.Fingerprint, g.Fingerprint())
	}
	if res.Stale {
		t.Error("small clique should converge, result marked stale")
	}
	if len(res.Scores) != 3 {
		t.Errorf("len(Scores) = %d, want 3", len(res.Scores))
	}
	if !c.HasResult() {
		t.Error("HasResult() = false after Get")
	}

	// Same fingerprint returns the cached result.
	again := c.Get(g)
	if !again.ComputedAt.Equal(res.ComputedAt) {
		t.Error("second Get recomputed despite identical fingerprint")
	}
}

func TestCache_RecomputesOnFingerprintChange(t *testing.T) {
	c := NewCache(testCacheLogger(), nil)

	g1 := graph.Build(cliqueMemberships("icse", 2023, "a", "b"))
	g2 := graph.Build(cliqueMemberships("icse", 2023, "a", "b", "c"))

	r1 := c.Get(g1)
	r2 := c.Get(g2)

	if r1.Fingerprint == r2.Fingerprint {
		t.Fatal("test graphs should have distinct fingerprints")
	}
	if len(r2.Scores) != 3 {
		t.Errorf("len(Scores) after graph change = %d, want 3", len(r2.Scores))
	}

	// Cache holds only the latest snapshot.
	cur, ok := c.Current()
	if !ok {
		t.Fatal("Current() reported empty cache")
	}
	if cur.Fingerprint != g2.Fingerprint() {
		t.Errorf("Current fingerprint = %q, want latest %q", cur.Fingerprint, g2.Fingerprint())
	}
}

func TestCache_Current_Empty(t *testing.T) {
	c := NewCache(testCacheLogger(), nil)
	if _, ok := c.Current(); ok {
		t.Error("Current() = ok on empty cache")
	}
}

func TestCache_ConcurrentGetsSingleComputation(t *testing.T) {
	c := NewCache(testCacheLogger(), nil)
	g := graph.Build(cliqueMemberships("icse", 2023, "a", "b", "c", "d", "e"))

	const callers = 16
	results := make([]Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Get(g)
		}(i)
	}
	wg.Wait()

	// All callers observe the same snapshot.
	for i := 1; i < callers; i++ {
		if results[i].Fingerprint != results[0].Fingerprint {
			t.Fatalf("caller %d saw fingerprint %q, caller 0 saw %q", i, results[i].Fingerprint, results[0].Fingerprint)
		}
		if !results[i].ComputedAt.Equal(results[0].ComputedAt) {
			t.Fatalf("caller %d saw a different computation (%v vs %v)", i, results[i].ComputedAt, results[0].ComputedAt)
		}
	}
}

// starMemberships builds a hub-and-spoke graph: the hub serves with each
// spoke on a separate edition, so spokes connect only through the hub. The
// resulting vector is far from uniform and power iteration needs many rounds
// to settle, unlike a clique where the uniform vector is already a fixed
// point.
func starMemberships(hub string, spokes ...string) []store.Membership {
	var out []store.Membership
	for i, spoke := range spokes {
		year := 2020 + i
		out = append(out,
			store.Membership{ResearcherID: hub, Series: "icse", Year: year, Role: "pc-member"},
			store.Membership{ResearcherID: spoke, Series: "icse", Year: year, Role: "pc-member"},
		)
	}
	return out
}

func TestCache_NonConvergence_UniformFallbackOnFirstRun(t *testing.T) {
	m := NewMetrics()
	c := NewCache(testCacheLogger(), m, WithIterationCap(1))
	g := graph.Build(starMemberships("hub", "s1", "s2", "s3"))

	res := c.Get(g)
	if !res.Stale {
		t.Fatal("star graph under a one-iteration cap should be marked stale")
	}

	// With no prior converged vector the cache falls back to uniform.
	want := Uniform(g)
	if len(res.Scores) != len(want) {
		t.Fatalf("len(Scores) = %d, want %d", len(res.Scores), len(want))
	}
	for id, mass := range want {
		if got := res.Scores[id]; got != mass {
			t.Errorf("Scores[%q] = %f, want uniform %f", id, got, mass)
		}
	}

	if got := counterValue(t, m.nonConvergedTotal); got != 1 {
		t.Errorf("non-converged counter = %f, want 1", got)
	}
}

func TestCache_NonConvergence_ServesPreviousConvergedVector(t *testing.T) {
	c := NewCache(testCacheLogger(), nil, WithIterationCap(2))

	// A two-node clique converges immediately: the uniform vector is its
	// fixed point.
	converged := c.Get(graph.Build(cliqueMemberships("icse", 2023, "a", "b")))
	if converged.Stale {
		t.Fatal("two-node clique should converge even under a tight cap")
	}

	star := graph.Build(starMemberships("hub", "s1", "s2", "s3"))
	res := c.Get(star)
	if !res.Stale {
		t.Fatal("star graph under a two-iteration cap should be marked stale")
	}
	if res.Fingerprint != star.Fingerprint() {
		t.Errorf("Fingerprint = %q, want %q", res.Fingerprint, star.Fingerprint())
	}

	// The last converged vector is served in place of the unconverged one.
	if len(res.Scores) != len(converged.Scores) {
		t.Fatalf("len(Scores) = %d, want previous %d", len(res.Scores), len(converged.Scores))
	}
	for id, score := range converged.Scores {
		if got := res.Scores[id]; got != score {
			t.Errorf("Scores[%q] = %f, want previous converged %f", id, got, score)
		}
	}

	// The stale result is cached: a repeat Get must not re-run a
	// deterministic computation that already failed to converge.
	again := c.Get(star)
	if !again.ComputedAt.Equal(res.ComputedAt) {
		t.Error("repeat Get recomputed a stale fingerprint")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestCache_EmptyGraph(t *testing.T) {
	c := NewCache(testCacheLogger(), nil)
	res := c.Get(graph.Build(nil))
	if res.Stale {
		t.Error("empty graph result marked stale")
	}
	if len(res.Scores) != 0 {
		t.Errorf("Scores = %v, want empty", res.Scores)
	}
}
