// Package centrality computes and caches PageRank over the co-service graph.
package centrality

import (
	"math"

	"github.com/confrec/confrec/internal/graph"
)

// PageRank algorithm parameters.
const (
	// DampingFactor is the standard PageRank damping factor.
	DampingFactor = 0.85

	// MaxIterations caps power iteration; hitting the cap without converging
	// is a soft failure handled by the cache.
	MaxIterations = 100

	// ConvergenceTolerance is the L1 change threshold between iterations.
	ConvergenceTolerance = 1e-6
)

// Vector maps researcher ID to non-negative PageRank mass. Values sum to 1
// across the nodes of the graph snapshot they were computed from.
type Vector map[string]float64

// PageRank runs weighted power iteration over the co-service graph, treating
// each undirected edge as a symmetric pair of directed edges. The weighted
// degree is the normalization denominator; every node has degree >= 1 because
// isolated researchers are excluded at graph build time, so mass is fully
// redistributed each round and the sum-to-1 invariant holds by construction.
//
// Returns the score vector and whether iteration converged within the cap.
func PageRank(g *graph.CoServiceGraph) (Vector, bool) {
	return pageRank(g, MaxIterations)
}

func pageRank(g *graph.CoServiceGraph, maxIterations int) (Vector, bool) {
	nodes := g.Nodes()
	n := len(nodes)
	if n == 0 {
		return Vector{}, true
	}

	scores := make(Vector, n)
	initial := 1.0 / float64(n)
	for _, id := range nodes {
		scores[id] = initial
	}

	base := (1.0 - DampingFactor) / float64(n)
	for iter := 0; iter < maxIterations; iter++ {
		next := make(Vector, n)
		for _, id := range nodes {
			next[id] = base
		}

		for _, u := range nodes {
			degree := float64(g.WeightedDegree(u))
			share := scores[u] * DampingFactor / degree
			for v, w := range g.Neighbors(u) {
				next[v] += share * float64(w)
			}
		}

		delta := 0.0
		for _, id := range nodes {
			delta += math.Abs(next[id] - scores[id])
		}
		scores = next
		if delta < ConvergenceTolerance {
			return scores, true
		}
	}
	return scores, false
}

// Uniform returns the uniform distribution over the graph's nodes, used as the
// first-run fallback when power iteration fails to converge.
func Uniform(g *graph.CoServiceGraph) Vector {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return Vector{}
	}
	v := make(Vector, len(nodes))
	mass := 1.0 / float64(len(nodes))
	for _, id := range nodes {
		v[id] = mass
	}
	return v
}
