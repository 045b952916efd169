package ranking

import (
	"github.com/confrec/confrec/internal/signal"
	"github.com/confrec/confrec/internal/store"
)

// TopicPolicy controls how query topics narrow the candidate set before
// scoring.
type TopicPolicy string

const (
	// TopicPolicySoft keeps every candidate and lets the topic signals do the
	// ordering. Researchers with no topical overlap simply score 0 on the
	// topic components.
	TopicPolicySoft TopicPolicy = "soft"

	// TopicPolicyHardFallback keeps only candidates with some topical overlap
	// with the query, but falls back to the unfiltered set when the filter
	// would leave nothing, so a niche query still gets an answer.
	TopicPolicyHardFallback TopicPolicy = "hard-fallback"
)

// Valid reports whether p is a recognized policy.
func (p TopicPolicy) Valid() bool {
	return p == TopicPolicySoft || p == TopicPolicyHardFallback
}

// selectCandidates narrows the roster per the query. The series filter is
// exact: when a series is given only researchers with at least one membership
// in that series remain, and no matches means an explicitly empty result, not
// a fallback to everyone. The topic filter then applies per the policy.
func selectCandidates(
	researchers []store.Researcher,
	memberships map[string][]store.Membership,
	series string,
	queryTopics []string,
	policy TopicPolicy,
) []store.Researcher {
	pool := researchers
	if series != "" {
		pool = nil
		for _, r := range researchers {
			for _, m := range memberships[r.ID] {
				if signal.NormalizeText(m.Series) == series {
					pool = append(pool, r)
					break
				}
			}
		}
		if pool == nil {
			pool = []store.Researcher{}
		}
	}

	if policy != TopicPolicyHardFallback || len(queryTopics) == 0 {
		return pool
	}

	var matched []store.Researcher
	for i := range pool {
		if signal.TopicSimilarity(&pool[i], queryTopics) > 0 {
			matched = append(matched, pool[i])
		}
	}
	if len(matched) == 0 {
		return pool
	}
	return matched
}
