package ranking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/confrec/confrec/internal/centrality"
	"github.com/confrec/confrec/internal/graph"
	"github.com/confrec/confrec/internal/signal"
	"github.com/confrec/confrec/internal/store"
	"github.com/confrec/confrec/internal/tracing"
)

// ErrInvalidQuery marks request validation failures. The wrapped message says
// which field was rejected.
var ErrInvalidQuery = errors.New("invalid query")

// DefaultYearsBack is the recency window applied when the query omits one.
const DefaultYearsBack = 3

// DefaultWorkers is the scoring fan-out used when the service config leaves
// Workers unset.
const DefaultWorkers = 8

// Query is a recommendation request.
type Query struct {
	// ConferenceSeries restricts candidates to past PC members of this
	// series. Empty means the whole roster.
	ConferenceSeries string `json:"conference_series,omitempty"`
	// Year is the target edition year; 0 resolves to the latest known
	// edition year, falling back to the current calendar year.
	Year int `json:"year,omitempty"`
	// Topics are the query topic phrases.
	Topics []string `json:"topics"`
	// YearsBack is the recency window; 0 means DefaultYearsBack, negative is
	// rejected.
	YearsBack int `json:"years_back,omitempty"`
	// QueryEmbedding is an externally computed embedding of the query text.
	QueryEmbedding []float64 `json:"query_embedding,omitempty"`
	// Limit truncates the ranked list; 0 means no truncation.
	Limit int `json:"limit,omitempty"`
}

// ResearcherSummary is the candidate identity echoed with each result,
// including the impact snapshot and topic labels so callers can render a
// result row without a second fetch. citation_count mirrors cited_by_count
// for callers still reading the older field name.
type ResearcherSummary struct {
	ID            string   `json:"id"`
	FullName      string   `json:"full_name"`
	Affiliation   string   `json:"affiliation,omitempty"`
	Country       string   `json:"country,omitempty"`
	ProfileURL    string   `json:"profile_url,omitempty"`
	WorksCount    int      `json:"works_count,omitempty"`
	CitedByCount  int      `json:"cited_by_count,omitempty"`
	CitationCount int      `json:"citation_count,omitempty"`
	HIndex        int      `json:"h_index,omitempty"`
	Topics        []string `json:"topics"`
}

// Result is one ranked candidate with its score and itemized breakdown.
type Result struct {
	Researcher ResearcherSummary `json:"researcher"`
	Score      float64           `json:"score"`
	Breakdown  Breakdown         `json:"score_breakdown"`
}

// Response is the full answer to a recommendation query. Query echoes the
// request back in normalized, defaulted form: series lowercased, year and
// years_back resolved, topics deduplicated.
type Response struct {
	Query          Query    `json:"query"`
	WeightsVersion string   `json:"weights_version"`
	Results        []Result `json:"results"`
}

// ServiceConfig configures a ranking Service.
type ServiceConfig struct {
	// Weights is the calibrated weight vector; nil means defaults.
	Weights *Weights
	// TopicPolicy controls topic-based candidate filtering; empty means soft.
	TopicPolicy TopicPolicy
	// Workers bounds the concurrent per-candidate scoring fan-out.
	Workers int
	// Logger receives request-scoped diagnostics; nil means slog.Default().
	Logger *slog.Logger
}

// Service answers recommendation queries against a store.Reader, using a
// shared centrality cache for the expensive graph computation.
type Service struct {
	store   store.Reader
	cache   *centrality.Cache
	weights *Weights
	policy  TopicPolicy
	workers int
	logger  *slog.Logger
}

// NewService builds a ranking service. Zero-value config fields get the
// documented defaults.
func NewService(st store.Reader, cache *centrality.Cache, cfg ServiceConfig) *Service {
	w := cfg.Weights
	if w == nil {
		w = DefaultWeights()
	}
	policy := cfg.TopicPolicy
	if policy == "" {
		policy = TopicPolicySoft
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   st,
		cache:   cache,
		weights: w,
		policy:  policy,
		workers: workers,
		logger:  logger,
	}
}

// Weights returns the weight vector the service scores with.
func (s *Service) Weights() *Weights {
	w := *s.weights
	return &w
}

// Recommend executes the full pipeline: validate, select candidates, obtain
// centrality, score each candidate across all signals, aggregate, and sort.
// The ordering is deterministic: descending score, then ascending researcher
// ID for exact ties.
func (s *Service) Recommend(ctx context.Context, q Query) (_ *Response, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "recommend")
	defer func() { endSpan(err) }()

	if q.YearsBack < 0 {
		return nil, fmt.Errorf("%w: years_back must not be negative", ErrInvalidQuery)
	}
	if q.Limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", ErrInvalidQuery)
	}
	yearsBack := q.YearsBack
	if yearsBack == 0 {
		yearsBack = DefaultYearsBack
	}
	topics := normalizeTopics(q.Topics)
	series := signal.NormalizeText(q.ConferenceSeries)

	researchers, err := s.store.ListResearchers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list researchers: %w", err)
	}
	allMemberships, err := s.store.ListMemberships(ctx)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	allPublications, err := s.store.ListPublications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list publications: %w", err)
	}

	baseYear := q.Year
	if baseYear <= 0 {
		latest, err := s.store.LatestEditionYear(ctx)
		if err != nil {
			return nil, fmt.Errorf("latest edition year: %w", err)
		}
		if latest > 0 {
			baseYear = latest
		} else {
			baseYear = time.Now().Year()
		}
	}

	membershipsByID := make(map[string][]store.Membership)
	for _, m := range allMemberships {
		membershipsByID[m.ResearcherID] = append(membershipsByID[m.ResearcherID], m)
	}
	publicationsByID := make(map[string][]store.Publication)
	for _, p := range allPublications {
		publicationsByID[p.ResearcherID] = append(publicationsByID[p.ResearcherID], p)
	}

	candidates := selectCandidates(researchers, membershipsByID, series, topics, s.policy)

	g := graph.Build(allMemberships)
	cent := s.cache.Get(g)
	if cent.Stale {
		s.logger.WarnContext(ctx, "serving stale centrality scores",
			"fingerprint", cent.Fingerprint)
	}

	sctx := &signal.Context{
		Series:         series,
		BaseYear:       baseYear,
		YearsBack:      yearsBack,
		QueryTopics:    topics,
		QueryEmbedding: q.QueryEmbedding,
		Centrality:     cent.Scores,
		Memberships:    membershipsByID,
		Publications:   publicationsByID,
		Impact:         signal.NewImpactStats(candidates),
	}

	results, err := s.scoreAll(ctx, candidates, sctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Researcher.ID < results[j].Researcher.ID
	})
	if q.Limit > 0 && q.Limit < len(results) {
		results = results[:q.Limit]
	}

	s.logger.InfoContext(ctx, "recommendation computed",
		"series", series,
		"base_year", baseYear,
		"topics", len(topics),
		"candidates", len(candidates),
		"results", len(results))

	return &Response{
		Query: Query{
			ConferenceSeries: series,
			Year:             baseYear,
			Topics:           topics,
			YearsBack:        yearsBack,
			QueryEmbedding:   q.QueryEmbedding,
			Limit:            q.Limit,
		},
		WeightsVersion: WeightsVersion,
		Results:        results,
	}, nil
}

// scoreAll fans candidate scoring out over a bounded worker pool. Each result
// lands in its candidate's slot, so no ordering is lost to scheduling.
func (s *Service) scoreAll(ctx context.Context, candidates []store.Researcher, sctx *signal.Context) ([]Result, error) {
	results := make([]Result, len(candidates))
	computers := signal.All()

	workers := s.workers
	if workers > len(candidates) {
		workers = len(candidates)
	}
	if workers < 1 {
		return results, nil
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = s.scoreOne(&candidates[i], sctx, computers)
			}
		}()
	}

feed:
	for i := range candidates {
		select {
		case indexes <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(indexes)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// scoreOne computes the full breakdown for a single candidate and aggregates
// it into the total.
func (s *Service) scoreOne(r *store.Researcher, sctx *signal.Context, computers []signal.Computer) Result {
	var b Breakdown
	for _, c := range computers {
		b.set(c.Name(), c.Compute(r, sctx))
	}
	return Result{
		Researcher: ResearcherSummary{
			ID:            r.ID,
			FullName:      r.FullName,
			Affiliation:   r.Affiliation,
			Country:       r.Country,
			ProfileURL:    r.ProfileURL,
			WorksCount:    r.WorksCount,
			CitedByCount:  r.CitedByCount,
			CitationCount: r.CitedByCount,
			HIndex:        r.HIndex,
			Topics:        r.Topics,
		},
		Score:     Aggregate(b, s.weights),
		Breakdown: b,
	}
}

// normalizeTopics normalizes and deduplicates the query topic phrases,
// preserving first-seen order and dropping empties.
func normalizeTopics(topics []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range topics {
		n := signal.NormalizeText(t)
		if n != "" && !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
