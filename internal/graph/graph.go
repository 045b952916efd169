// Package graph builds the co-service graph connecting researchers who served
// on the same program committee in the same conference edition.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/confrec/confrec/internal/store"
)

// CoServiceGraph is an undirected weighted graph over researcher IDs.
// An edge connects two researchers once per edition they jointly served, so
// edge weight is the number of shared editions. Researchers without any
// co-service edge are not nodes; they take the defined default centrality (0)
// instead of an arbitrary share of PageRank mass.
//
// The adjacency structure is keyed by stable researcher IDs rather than by
// object references, since the graph is inherently cyclic.
type CoServiceGraph struct {
	adj         map[string]map[string]int
	fingerprint string
}

// Build constructs the graph from the full membership set. It is deterministic
// and order-independent: for each (series, year) edition it enumerates all
// unordered pairs of researchers who served on it and increments the edge
// weight by one. Editions with fewer than two members contribute no edges.
func Build(memberships []store.Membership) *CoServiceGraph {
	byEdition := make(map[store.Edition][]string)
	seen := make(map[store.Edition]map[string]bool)
	for _, m := range memberships {
		ed := store.Edition{Series: m.Series, Year: m.Year}
		if seen[ed] == nil {
			seen[ed] = make(map[string]bool)
		}
		// A researcher listed twice on one edition (e.g. two roles) still
		// counts once for co-service.
		if seen[ed][m.ResearcherID] {
			continue
		}
		seen[ed][m.ResearcherID] = true
		byEdition[ed] = append(byEdition[ed], m.ResearcherID)
	}

	g := &CoServiceGraph{adj: make(map[string]map[string]int)}
	for _, ids := range byEdition {
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				g.addEdge(ids[i], ids[j])
			}
		}
	}
	g.fingerprint = g.computeFingerprint()
	return g
}

func (g *CoServiceGraph) addEdge(u, v string) {
	if u == v {
		return
	}
	if g.adj[u] == nil {
		g.adj[u] = make(map[string]int)
	}
	if g.adj[v] == nil {
		g.adj[v] = make(map[string]int)
	}
	g.adj[u][v]++
	g.adj[v][u]++
}

// Nodes returns all node IDs in ascending order.
func (g *CoServiceGraph) Nodes() []string {
	nodes := make([]string, 0, len(g.adj))
	for id := range g.adj {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return nodes
}

// NodeCount returns the number of nodes.
func (g *CoServiceGraph) NodeCount() int {
	return len(g.adj)
}

// HasNode reports whether the researcher appears in the graph.
func (g *CoServiceGraph) HasNode(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Neighbors returns the adjacency map for a node: neighbor ID to edge weight.
// The returned map is the graph's own storage and must not be modified.
func (g *CoServiceGraph) Neighbors(id string) map[string]int {
	return g.adj[id]
}

// EdgeWeight returns the number of editions two researchers jointly served,
// or 0 when no edge exists.
func (g *CoServiceGraph) EdgeWeight(u, v string) int {
	return g.adj[u][v]
}

// WeightedDegree returns the sum of incident edge weights for a node.
func (g *CoServiceGraph) WeightedDegree(id string) int {
	total := 0
	for _, w := range g.adj[id] {
		total += w
	}
	return total
}

// Fingerprint returns a stable hash of the edge set. Two graphs built from
// materially identical membership sets share a fingerprint regardless of input
// order; the centrality cache keys on it.
func (g *CoServiceGraph) Fingerprint() string {
	return g.fingerprint
}

func (g *CoServiceGraph) computeFingerprint() string {
	lines := make([]string, 0, len(g.adj))
	for u, neighbors := range g.adj {
		for v, w := range neighbors {
			if u < v {
				lines = append(lines, fmt.Sprintf("%s\x00%s\x00%d", u, v, w))
			}
		}
	}
	sort.Strings(lines)

	h := sha256.New()
	for _, line := range lines {
		h.Write([]byte(line))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
