package centrality

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/confrec/confrec/internal/graph"
)

// Result is one cached centrality computation.
type Result struct {
	// Scores is the PageRank vector for the graph snapshot.
	Scores Vector
	// Fingerprint identifies the graph the vector was computed from.
	Fingerprint string
	// Stale is set when power iteration did not converge and the vector is
	// the last-converged (or uniform) fallback instead of a fresh result.
	Stale bool
	// ComputedAt is when the computation finished.
	ComputedAt time.Time
}

// Cache holds the last computed centrality vector keyed by graph fingerprint.
// Reads never observe a half-updated vector, and concurrent misses for the
// same fingerprint collapse to a single PageRank run via singleflight; the
// other callers block on that run.
type Cache struct {
	mu      sync.RWMutex
	current *Result

	group         singleflight.Group
	logger        *slog.Logger
	metrics       *Metrics
	maxIterations int
}

// CacheOption configures optional Cache behavior.
type CacheOption func(*Cache)

// WithIterationCap overrides the power-iteration cap. Non-positive values are
// ignored.
func WithIterationCap(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.maxIterations = n
		}
	}
}

// NewCache creates an empty centrality cache. Metrics may be nil.
func NewCache(logger *slog.Logger, metrics *Metrics, opts ...CacheOption) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{logger: logger, metrics: metrics, maxIterations: MaxIterations}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the centrality vector for the given graph, recomputing only when
// the graph's fingerprint differs from the cached one. A result that was
// marked stale for this same fingerprint is served as-is: re-running a
// deterministic computation that already failed to converge cannot improve it.
func (c *Cache) Get(g *graph.CoServiceGraph) Result {
	fingerprint := g.Fingerprint()

	if res, ok := c.cached(fingerprint); ok {
		return res
	}

	v, _, _ := c.group.Do(fingerprint, func() (any, error) {
		// Another caller may have finished while this one waited on the group.
		if res, ok := c.cached(fingerprint); ok {
			return res, nil
		}
		return c.recompute(g, fingerprint), nil
	})
	return v.(Result)
}

// Current returns the cached result without recomputation, or false when the
// cache is empty.
func (c *Cache) Current() (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Result{}, false
	}
	return *c.current, true
}

func (c *Cache) cached(fingerprint string) (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current != nil && c.current.Fingerprint == fingerprint {
		return *c.current, true
	}
	return Result{}, false
}

// recompute runs PageRank and atomically replaces the cached vector.
// Non-convergence never fails the caller: the previous converged vector (or
// the uniform distribution on first run) is installed and flagged stale.
func (c *Cache) recompute(g *graph.CoServiceGraph, fingerprint string) Result {
	start := time.Now()
	scores, converged := pageRank(g, c.maxIterations)

	res := Result{
		Scores:      scores,
		Fingerprint: fingerprint,
		ComputedAt:  time.Now(),
	}

	if !converged {
		res.Stale = true
		c.mu.RLock()
		prev := c.current
		c.mu.RUnlock()
		if prev != nil && !prev.Stale {
			res.Scores = prev.Scores
		} else {
			res.Scores = Uniform(g)
		}
		c.logger.Warn("pagerank did not converge, serving stale vector",
			"fingerprint", fingerprint,
			"nodes", g.NodeCount(),
			"max_iterations", c.maxIterations)
		if c.metrics != nil {
			c.metrics.IncNonConverged()
		}
	}

	c.mu.Lock()
	c.current = &res
	c.mu.Unlock()

	duration := time.Since(start).Seconds()
	if c.metrics != nil {
		c.metrics.IncRecomputeTotal()
		c.metrics.ObserveRecomputeDuration(duration)
		c.metrics.SetLastRecomputeTimestamp(float64(res.ComputedAt.Unix()))
		c.metrics.SetLastGraphNodeCount(float64(g.NodeCount()))
	}
	c.logger.Info("centrality vector recomputed",
		"fingerprint", fingerprint,
		"nodes", g.NodeCount(),
		"duration_seconds", duration,
		"stale", res.Stale)

	return res
}

// HasResult reports whether any centrality vector has been computed yet.
// Used by the readiness probe to distinguish a warm cache from a cold one.
func (c *Cache) HasResult() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}
