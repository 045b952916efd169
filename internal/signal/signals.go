package signal

import (
	"math"

	"github.com/confrec/confrec/internal/store"
)

// Decay rates for the recency signals. Both curves are exponential in the age
// (years before the base year) of the most relevant activity.
const (
	pubDecayRate = 0.45
	pcDecayRate  = 0.55

	// pubActivityCap is the weighted recent-works magnitude treated as "very
	// strong" when log-normalizing publication recency.
	pubActivityCap = 50.0

	// experienceSaturation is the membership count at which the experience
	// signal maxes out.
	experienceSaturation = 10.0

	// newcomerHorizon is the membership count beyond which a researcher no
	// longer counts as a newcomer at all.
	newcomerHorizon = 8.0

	// pcServiceBonus is the per-extra-service bonus applied to PC recency
	// inside the window, breaking ties among researchers who served the same
	// most-recent year.
	pcServiceBonus = 0.12
)

// topicSim is the normalized topic overlap between query and researcher.
type topicSim struct{}

func (topicSim) Name() string { return NameTopicSim }

func (topicSim) Compute(r *store.Researcher, ctx *Context) float64 {
	return topicSimilarity(r, ctx)
}

// semantic is the embedding similarity between query and researcher profile.
type semantic struct{}

func (semantic) Name() string { return NameSemantic }

func (semantic) Compute(r *store.Researcher, ctx *Context) float64 {
	return semanticScore(r, ctx)
}

// pubRecency rewards recent publication activity inside the query window.
// It prefers the enrichment job's per-year activity counts and falls back to
// the publications table when those are absent.
type pubRecency struct{}

func (pubRecency) Name() string { return NamePubRecency }

func (pubRecency) Compute(r *store.Researcher, ctx *Context) float64 {
	startYear := ctx.BaseYear - ctx.YearsBack

	var weighted float64
	if len(r.CountsByYear) > 0 {
		for _, c := range r.CountsByYear {
			if c.Year < startYear || c.Year > ctx.BaseYear {
				continue
			}
			age := float64(ctx.BaseYear - c.Year)
			weighted += float64(c.WorksCount) * math.Exp(-pubDecayRate*age)
		}
	} else {
		for _, p := range ctx.Publications[r.ID] {
			if p.Year < startYear || p.Year > ctx.BaseYear {
				continue
			}
			age := float64(ctx.BaseYear - p.Year)
			weighted += math.Exp(-pubDecayRate * age)
		}
	}
	return logNorm(weighted, pubActivityCap)
}

// pcRecency decays from the researcher's most recent PC service year, with a
// small bonus for repeated service inside the window. Service outside the
// window still decays from the most recent year overall rather than dropping
// to zero.
type pcRecency struct{}

func (pcRecency) Name() string { return NamePCRecency }

func (pcRecency) Compute(r *store.Researcher, ctx *Context) float64 {
	memberships := ctx.Memberships[r.ID]
	if len(memberships) == 0 {
		return 0
	}

	startYear := ctx.BaseYear - ctx.YearsBack
	mostRecent := 0
	inWindow := 0
	mostRecentInWindow := 0
	for _, m := range memberships {
		if m.Year > mostRecent {
			mostRecent = m.Year
		}
		if m.Year >= startYear && m.Year <= ctx.BaseYear {
			inWindow++
			if m.Year > mostRecentInWindow {
				mostRecentInWindow = m.Year
			}
		}
	}
	if mostRecent == 0 {
		return 0
	}

	if inWindow == 0 {
		age := float64(ctx.BaseYear - mostRecent)
		if age < 0 {
			age = 0
		}
		return clamp01(math.Exp(-pcDecayRate * age))
	}

	age := float64(ctx.BaseYear - mostRecentInWindow)
	if age < 0 {
		age = 0
	}
	base := math.Exp(-pcDecayRate * age)
	bonus := 1.0 + pcServiceBonus*float64(inWindow-1)
	return clamp01(base * bonus)
}

// impact normalizes the researcher's scientometric snapshot against the
// current candidate population; see ImpactStats.
type impact struct{}

func (impact) Name() string { return NameImpact }

func (impact) Compute(r *store.Researcher, ctx *Context) float64 {
	return ctx.Impact.Score(r)
}

// pagerank reads the researcher's mass from the centrality vector.
// Researchers absent from the co-service graph score 0.
type pagerank struct{}

func (pagerank) Name() string { return NamePageRank }

func (pagerank) Compute(r *store.Researcher, ctx *Context) float64 {
	return ctx.Centrality[r.ID]
}

// experience is breadth of PC service, capped-linear so it saturates instead
// of growing unbounded. With a series filter, only service in that series counts.
type experience struct{}

func (experience) Name() string { return NameExperience }

func (experience) Compute(r *store.Researcher, ctx *Context) float64 {
	memberships := ctx.Memberships[r.ID]
	if len(memberships) == 0 {
		return 0
	}

	count := 0
	if ctx.Series != "" {
		for _, m := range memberships {
			if NormalizeText(m.Series) == ctx.Series {
				count++
			}
		}
	} else {
		count = len(memberships)
	}
	return clamp01(float64(count) / experienceSaturation)
}

// newcomer rewards researchers with little PC history, gated by topical or
// semantic relevance so unrelated newcomers do not float up. It is not the
// complement of experience: a relevant veteran scores low on both newcomer and
// high experience, while an irrelevant newcomer scores 0 here despite an empty
// service record.
type newcomer struct{}

func (newcomer) Name() string { return NameNewcomer }

func (newcomer) Compute(r *store.Researcher, ctx *Context) float64 {
	fresh := clamp01(1.0 - math.Min(1.0, float64(len(ctx.Memberships[r.ID]))/newcomerHorizon))
	relevance := math.Max(topicSimilarity(r, ctx), semanticScore(r, ctx))
	return clamp01(fresh * relevance)
}
