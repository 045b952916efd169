package store

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemoryStore_ImplementsReader(t *testing.T) {
	var _ Reader = (*MemoryStore)(nil)
}

func TestMemoryStore_Researchers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.AddResearcher(Researcher{ID: "r2", FullName: "Beta", Topics: []string{"fuzzing"}})
	s.AddResearcher(Researcher{ID: "r1", FullName: "Alpha", HIndex: 12})

	t.Run("list ordered by ID", func(t *testing.T) {
		all, err := s.ListResearchers(ctx)
		if err != nil {
			t.Fatalf("ListResearchers() error: %v", err)
		}
		if len(all) != 2 {
			t.Fatalf("len = %d, want 2", len(all))
		}
		if all[0].ID != "r1" || all[1].ID != "r2" {
			t.Errorf("order = [%s %s], want [r1 r2]", all[0].ID, all[1].ID)
		}
	})

	t.Run("get by ID", func(t *testing.T) {
		r, err := s.GetResearcher(ctx, "r1")
		if err != nil {
			t.Fatalf("GetResearcher() error: %v", err)
		}
		if r.FullName != "Alpha" || r.HIndex != 12 {
			t.Errorf("got %+v", r)
		}
	})

	t.Run("missing ID returns ErrResearcherNotFound", func(t *testing.T) {
		_, err := s.GetResearcher(ctx, "nope")
		if !errors.Is(err, ErrResearcherNotFound) {
			t.Errorf("error = %v, want ErrResearcherNotFound", err)
		}
	})

	t.Run("add replaces existing record", func(t *testing.T) {
		s.AddResearcher(Researcher{ID: "r1", FullName: "Alpha Prime"})
		r, err := s.GetResearcher(ctx, "r1")
		if err != nil {
			t.Fatalf("GetResearcher() error: %v", err)
		}
		if r.FullName != "Alpha Prime" {
			t.Errorf("FullName = %q, want replacement", r.FullName)
		}
	})
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.AddResearcher(Researcher{ID: "r1", Topics: []string{"testing"}, Embedding: []float64{0.5}})

	got, err := s.GetResearcher(ctx, "r1")
	if err != nil {
		t.Fatalf("GetResearcher() error: %v", err)
	}
	got.Topics[0] = "mutated"
	got.Embedding[0] = -1

	fresh, _ := s.GetResearcher(ctx, "r1")
	if fresh.Topics[0] != "testing" {
		t.Error("caller mutation leaked into stored topics")
	}
	if fresh.Embedding[0] != 0.5 {
		t.Error("caller mutation leaked into stored embedding")
	}
}

func TestMemoryStore_Memberships(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.AddMembership(Membership{ResearcherID: "a", Series: "icse", Year: 2023, Role: "pc-member"})
	s.AddMembership(Membership{ResearcherID: "a", Series: "icse", Year: 2024, Role: "pc-member"})
	s.AddMembership(Membership{ResearcherID: "b", Series: "fse", Year: 2022, Role: "area-chair"})

	all, err := s.ListMemberships(ctx)
	if err != nil {
		t.Fatalf("ListMemberships() error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}

	forA, err := s.ListMembershipsByResearcher(ctx, "a")
	if err != nil {
		t.Fatalf("ListMembershipsByResearcher() error: %v", err)
	}
	if len(forA) != 2 {
		t.Errorf("len for a = %d, want 2", len(forA))
	}

	forNone, err := s.ListMembershipsByResearcher(ctx, "ghost")
	if err != nil {
		t.Fatalf("ListMembershipsByResearcher() error: %v", err)
	}
	if len(forNone) != 0 {
		t.Errorf("len for unknown researcher = %d, want 0", len(forNone))
	}

	year, err := s.LatestEditionYear(ctx)
	if err != nil {
		t.Fatalf("LatestEditionYear() error: %v", err)
	}
	if year != 2024 {
		t.Errorf("LatestEditionYear() = %d, want 2024", year)
	}
}

func TestMemoryStore_LatestEditionYear_Empty(t *testing.T) {
	year, err := NewMemoryStore().LatestEditionYear(context.Background())
	if err != nil {
		t.Fatalf("LatestEditionYear() error: %v", err)
	}
	if year != 0 {
		t.Errorf("LatestEditionYear() = %d, want 0 for empty store", year)
	}
}

func TestMemoryStore_Publications(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.AddPublication(Publication{ResearcherID: "a", Title: "Old", Year: 2019})
	s.AddPublication(Publication{ResearcherID: "a", Title: "New", Year: 2024})
	s.AddPublication(Publication{ResearcherID: "b", Title: "Other", Year: 2023})

	all, err := s.ListPublications(ctx)
	if err != nil {
		t.Fatalf("ListPublications() error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len = %d, want 3", len(all))
	}

	forA, err := s.ListPublicationsByResearcher(ctx, "a")
	if err != nil {
		t.Fatalf("ListPublicationsByResearcher() error: %v", err)
	}
	if len(forA) != 2 {
		t.Fatalf("len for a = %d, want 2", len(forA))
	}
	if forA[0].Year != 2024 || forA[1].Year != 2019 {
		t.Errorf("order = [%d %d], want most recent first", forA[0].Year, forA[1].Year)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			s.AddResearcher(Researcher{ID: id})
			s.AddMembership(Membership{ResearcherID: id, Series: "icse", Year: 2020 + i})
			if _, err := s.ListResearchers(ctx); err != nil {
				t.Errorf("ListResearchers() error: %v", err)
			}
			if _, err := s.ListMemberships(ctx); err != nil {
				t.Errorf("ListMemberships() error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	all, _ := s.ListResearchers(ctx)
	if len(all) != 8 {
		t.Errorf("len = %d, want 8", len(all))
	}
}
