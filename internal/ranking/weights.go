// Package ranking selects, scores, sorts, and explains program-committee
// candidate recommendations for a query.
package ranking

import (
	"github.com/confrec/confrec/internal/signal"
)

// WeightsVersion identifies the weighting scheme. Bump it whenever the default
// weights or the aggregation formula change so stored explanations stay
// comparable within a deployment.
const WeightsVersion = "v1"

// Weights is the per-signal weight vector used to combine a breakdown into a
// total score. Weights need not sum to 1; every signal value is already
// bounded to [0, 1].
type Weights struct {
	Topic      float64 `json:"topic"`       // topic overlap (default 0.30)
	Semantic   float64 `json:"semantic"`    // embedding similarity (default 0.25)
	PubRecency float64 `json:"pub_recency"` // recent publication activity (default 0.12)
	PCRecency  float64 `json:"pc_recency"`  // recent PC service (default 0.18)
	Impact     float64 `json:"impact"`      // scientometric impact (default 0.10)
	PageRank   float64 `json:"pagerank"`    // co-service graph centrality (default 0.03)
	Experience float64 `json:"experience"`  // breadth of PC service (default 0.02)
	Newcomer   float64 `json:"newcomer"`    // relevance-gated newcomer boost (default 0.05)
}

// DefaultWeights returns the default weight configuration. Topical fit
// dominates, recency of engagement comes next, and the structural signals
// (centrality, experience, newcomer boost) act as mild tie-breakers.
func DefaultWeights() *Weights {
	return &Weights{
		Topic:      0.30,
		Semantic:   0.25,
		PubRecency: 0.12,
		PCRecency:  0.18,
		Impact:     0.10,
		PageRank:   0.03,
		Experience: 0.02,
		Newcomer:   0.05,
	}
}

// Breakdown is the itemized per-signal score record returned with every
// result. It is derived per query per candidate and never persisted.
type Breakdown struct {
	TopicSim   float64 `json:"topic_sim"`
	Semantic   float64 `json:"semantic_score"`
	PubRecency float64 `json:"pub_recency_score"`
	PCRecency  float64 `json:"pc_recency_score"`
	Impact     float64 `json:"impact_score"`
	PageRank   float64 `json:"pagerank_score"`
	Experience float64 `json:"experience_score"`
	Newcomer   float64 `json:"newcomer_score"`
}

// set assigns a signal value by its breakdown field name.
func (b *Breakdown) set(name string, value float64) {
	switch name {
	case signal.NameTopicSim:
		b.TopicSim = value
	case signal.NameSemantic:
		b.Semantic = value
	case signal.NamePubRecency:
		b.PubRecency = value
	case signal.NamePCRecency:
		b.PCRecency = value
	case signal.NameImpact:
		b.Impact = value
	case signal.NamePageRank:
		b.PageRank = value
	case signal.NameExperience:
		b.Experience = value
	case signal.NameNewcomer:
		b.Newcomer = value
	}
}

// Aggregate combines a breakdown into a total score using the given weights.
// Every returned total is reproducible by recombining the breakdown fields
// with the published weights, and this function is the only place that
// recombination lives.
func Aggregate(b Breakdown, w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	return w.Topic*b.TopicSim +
		w.Semantic*b.Semantic +
		w.PubRecency*b.PubRecency +
		w.PCRecency*b.PCRecency +
		w.Impact*b.Impact +
		w.PageRank*b.PageRank +
		w.Experience*b.Experience +
		w.Newcomer*b.Newcomer
}
