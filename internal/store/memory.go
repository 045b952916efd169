package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of Reader.
// Used for testing and for development without a database. Thread-safe.
type MemoryStore struct {
	mu           sync.RWMutex
	researchers  map[string]*Researcher
	memberships  []Membership
	publications []Publication
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		researchers: make(map[string]*Researcher),
	}
}

// AddResearcher inserts or replaces a researcher record.
func (s *MemoryStore) AddResearcher(r Researcher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rc := copyResearcher(&r)
	s.researchers[r.ID] = rc
}

// AddMembership appends a PC membership record.
func (s *MemoryStore) AddMembership(m Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memberships = append(s.memberships, m)
}

// AddPublication appends a publication record.
func (s *MemoryStore) AddPublication(p Publication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publications = append(s.publications, p)
}

// ListResearchers returns all researchers ordered by ID.
func (s *MemoryStore) ListResearchers(ctx context.Context) ([]Researcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Researcher, 0, len(s.researchers))
	for _, r := range s.researchers {
		out = append(out, *copyResearcher(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetResearcher returns one researcher by ID, or ErrResearcherNotFound.
func (s *MemoryStore) GetResearcher(ctx context.Context, id string) (*Researcher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.researchers[id]
	if !ok {
		return nil, ErrResearcherNotFound
	}
	return copyResearcher(r), nil
}

// ListMemberships returns every PC membership record.
func (s *MemoryStore) ListMemberships(ctx context.Context) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Membership, len(s.memberships))
	copy(out, s.memberships)
	return out, nil
}

// ListMembershipsByResearcher returns a researcher's PC service history.
func (s *MemoryStore) ListMembershipsByResearcher(ctx context.Context, id string) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Membership
	for _, m := range s.memberships {
		if m.ResearcherID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListPublications returns every publication record.
func (s *MemoryStore) ListPublications(ctx context.Context) ([]Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Publication, len(s.publications))
	copy(out, s.publications)
	return out, nil
}

// ListPublicationsByResearcher returns a researcher's publications, most recent first.
func (s *MemoryStore) ListPublicationsByResearcher(ctx context.Context, id string) ([]Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Publication
	for _, p := range s.publications {
		if p.ResearcherID == id {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out, nil
}

// LatestEditionYear returns the most recent edition year seen in memberships.
func (s *MemoryStore) LatestEditionYear(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	max := 0
	for _, m := range s.memberships {
		if m.Year > max {
			max = m.Year
		}
	}
	return max, nil
}

// copyResearcher deep-copies a researcher so callers cannot mutate stored state.
func copyResearcher(r *Researcher) *Researcher {
	rc := *r
	if r.Topics != nil {
		rc.Topics = append([]string(nil), r.Topics...)
	}
	if r.CountsByYear != nil {
		rc.CountsByYear = append([]YearActivity(nil), r.CountsByYear...)
	}
	if r.Embedding != nil {
		rc.Embedding = append([]float64(nil), r.Embedding...)
	}
	return &rc
}
