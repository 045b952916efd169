package signal

import (
	"math"

	"github.com/confrec/confrec/internal/store"
)

// Component weights for the combined impact score. Citations and h-index
// dominate; works count is a mild signal.
const (
	impactCitationWeight = 0.50
	impactHIndexWeight   = 0.35
	impactWorksWeight    = 0.15
)

// ImpactStats holds per-component normalization ranges computed over the
// current candidate set. Citation and works counts are log1p-scaled before
// range-normalizing because they span orders of magnitude; h-index is taken
// raw. Normalizing against the candidate population rather than fixed global
// caps keeps the signal meaningful across fields with very different absolute
// citation volumes.
type ImpactStats struct {
	citedMin, citedMax float64
	hMin, hMax         float64
	worksMin, worksMax float64
}

// NewImpactStats computes normalization ranges over the candidate set.
func NewImpactStats(candidates []store.Researcher) ImpactStats {
	s := ImpactStats{
		citedMin: math.Inf(1), citedMax: math.Inf(-1),
		hMin: math.Inf(1), hMax: math.Inf(-1),
		worksMin: math.Inf(1), worksMax: math.Inf(-1),
	}
	for i := range candidates {
		cited, h, works := impactComponents(&candidates[i])
		s.citedMin = math.Min(s.citedMin, cited)
		s.citedMax = math.Max(s.citedMax, cited)
		s.hMin = math.Min(s.hMin, h)
		s.hMax = math.Max(s.hMax, h)
		s.worksMin = math.Min(s.worksMin, works)
		s.worksMax = math.Max(s.worksMax, works)
	}
	return s
}

// Score combines the researcher's range-normalized components. A component
// that is constant across the candidate set contributes 0, which also keeps a
// single-candidate population from scoring a flat 1.0.
func (s ImpactStats) Score(r *store.Researcher) float64 {
	cited, h, works := impactComponents(r)
	score := impactCitationWeight*rangeNorm(cited, s.citedMin, s.citedMax) +
		impactHIndexWeight*rangeNorm(h, s.hMin, s.hMax) +
		impactWorksWeight*rangeNorm(works, s.worksMin, s.worksMax)
	return clamp01(score)
}

func impactComponents(r *store.Researcher) (cited, h, works float64) {
	return math.Log1p(float64(r.CitedByCount)),
		float64(r.HIndex),
		math.Log1p(float64(r.WorksCount))
}

// rangeNorm min-max normalizes into [0,1]; a degenerate range maps to 0.
func rangeNorm(x, min, max float64) float64 {
	if math.IsInf(min, 1) || max-min <= 1e-12 {
		return 0
	}
	return clamp01((x - min) / (max - min))
}
