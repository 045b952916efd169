package signal

import (
	"math"
	"regexp"
	"strings"

	"github.com/confrec/confrec/internal/store"
)

var (
	nonAlnumRe   = regexp.MustCompile(`[^a-z0-9\s\-_/]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	tokenSplitRe = regexp.MustCompile(`[\s\-/_,;]+`)
)

// NormalizeText lowercases a phrase, strips punctuation, and collapses
// whitespace so topic labels and free-text interests compare consistently.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Tokenize splits a normalized phrase into meaningful tokens, dropping
// one-character noise.
func Tokenize(s string) []string {
	s = NormalizeText(s)
	if s == "" {
		return nil
	}
	var toks []string
	for _, t := range tokenSplitRe.Split(s, -1) {
		if len(t) >= 2 {
			toks = append(toks, t)
		}
	}
	return toks
}

// phraseSimilarity is the Sørensen–Dice token overlap between two phrases,
// in [0,1]. Dice behaves better than Jaccard for short topic phrases.
func phraseSimilarity(a, b string) float64 {
	ta := tokenSet(Tokenize(a))
	tb := tokenSet(Tokenize(b))
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	if inter == 0 {
		return 0
	}
	return (2.0 * float64(inter)) / float64(len(ta)+len(tb))
}

func tokenSet(toks []string) map[string]bool {
	set := make(map[string]bool, len(toks))
	for _, t := range toks {
		set[t] = true
	}
	return set
}

// TopicPhrases collects a researcher's topic-like phrases: fragments of the
// free-text interests field (split on ;,/) plus linked topic labels, all
// normalized, deduplicated preserving order.
func TopicPhrases(r *store.Researcher) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(raw string) {
		t := NormalizeText(raw)
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	if r.Interests != "" {
		for _, part := range strings.FieldsFunc(r.Interests, func(c rune) bool {
			return c == ';' || c == ',' || c == '/'
		}) {
			add(part)
		}
	}
	for _, t := range r.Topics {
		add(t)
	}
	return out
}

// topicSimilarity matches every query phrase against the researcher's best
// phrase and averages the per-phrase Dice scores, weighting longer (more
// specific) query phrases slightly higher. 0 when either side has no phrases;
// 1 for identical phrase sets.
func topicSimilarity(r *store.Researcher, ctx *Context) float64 {
	if len(ctx.QueryTopics) == 0 {
		return 0
	}
	candidate := TopicPhrases(r)
	if len(candidate) == 0 {
		return 0
	}

	var totalWeight, totalScore float64
	for _, qp := range ctx.QueryTopics {
		tokens := Tokenize(qp)
		if len(tokens) == 0 {
			continue
		}
		weight := 1.0 + 0.15*float64(len(tokens)-1)
		best := 0.0
		for _, cp := range candidate {
			if s := phraseSimilarity(qp, cp); s > best {
				best = s
				if best >= 0.95 {
					break
				}
			}
		}
		totalWeight += weight
		totalScore += weight * best
	}
	if totalWeight <= 0 {
		return 0
	}
	return clamp01(totalScore / totalWeight)
}

// semanticScore maps the cosine similarity between the query embedding and the
// researcher's profile embedding from [-1,1] onto [0,1]. Either embedding
// missing (or dimensions disagreeing) is a data gap, not an error: score 0.
func semanticScore(r *store.Researcher, ctx *Context) float64 {
	if len(ctx.QueryEmbedding) == 0 || len(r.Embedding) == 0 {
		return 0
	}
	if len(ctx.QueryEmbedding) != len(r.Embedding) {
		return 0
	}
	cos := cosine(ctx.QueryEmbedding, r.Embedding)
	return clamp01((cos + 1.0) / 2.0)
}

// cosine computes cosine similarity between two equal-length vectors.
func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den <= 0 {
		return 0
	}
	return dot / den
}

// clamp01 clamps a score into [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// logNorm is log1p(x) normalized by log1p(cap), clamped to [0,1]. cap is a
// "very strong" reference magnitude for the quantity being scaled.
func logNorm(x, cap float64) float64 {
	if x <= 0 {
		return 0
	}
	den := math.Log1p(math.Max(1, cap))
	if den <= 0 {
		return 0
	}
	return clamp01(math.Log1p(x) / den)
}

// TopicSimilarity computes the topic overlap value for a researcher against a
// set of normalized query phrases. Exported for candidate pre-filtering, which
// needs the same matching semantics as the topic signal itself.
func TopicSimilarity(r *store.Researcher, queryTopics []string) float64 {
	return topicSimilarity(r, &Context{QueryTopics: queryTopics})
}
