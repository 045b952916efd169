// Package signal implements the per-component score computations that make up
// a candidate's ranking breakdown. Each signal is a pure function of the query,
// one researcher snapshot, and shared per-query aggregates; missing data yields
// the signal's defined default (0), never an error.
package signal

import (
	"github.com/confrec/confrec/internal/centrality"
	"github.com/confrec/confrec/internal/store"
)

// Signal names, also the JSON field names in the score breakdown.
const (
	NameTopicSim   = "topic_sim"
	NameSemantic   = "semantic_score"
	NamePubRecency = "pub_recency_score"
	NamePCRecency  = "pc_recency_score"
	NameImpact     = "impact_score"
	NamePageRank   = "pagerank_score"
	NameExperience = "experience_score"
	NameNewcomer   = "newcomer_score"
)

// Context carries the query parameters and the shared aggregates signals
// consult. It is built once per request by the ranking service and read-only
// afterwards, so concurrent candidate scoring needs no locking.
type Context struct {
	// Series is the conference series filter, empty when none was given.
	Series string
	// BaseYear is the resolved target year (query year, else the latest
	// edition year in the store, else the current year).
	BaseYear int
	// YearsBack is the recency window in years.
	YearsBack int
	// QueryTopics are the normalized, deduplicated query topic phrases.
	QueryTopics []string
	// QueryEmbedding is the externally computed query embedding, nil when absent.
	QueryEmbedding []float64

	// Centrality is the PageRank vector for the current co-service graph.
	Centrality centrality.Vector
	// Memberships maps researcher ID to that researcher's PC service history.
	Memberships map[string][]store.Membership
	// Publications maps researcher ID to that researcher's publications.
	Publications map[string][]store.Publication
	// Impact holds the candidate-population normalization ranges.
	Impact ImpactStats
}

// Computer is one scoring signal. Implementations are stateless; Compute
// returns a bounded value ([0,1] for every signal in this set) and treats
// data gaps as 0.
type Computer interface {
	Name() string
	Compute(r *store.Researcher, ctx *Context) float64
}

// All returns the fixed set of eight signal computers in breakdown order.
func All() []Computer {
	return []Computer{
		topicSim{},
		semantic{},
		pubRecency{},
		pcRecency{},
		impact{},
		pagerank{},
		experience{},
		newcomer{},
	}
}
