package store

import (
	"context"
	"errors"
)

// Common errors for store operations.
var (
	// ErrResearcherNotFound is returned when a researcher ID has no record.
	ErrResearcherNotFound = errors.New("researcher not found")

	// ErrUnavailable indicates the backing store could not be reached.
	// Callers use it to distinguish "no candidates" from "could not retrieve
	// candidates"; requests that hit it fail as a whole.
	ErrUnavailable = errors.New("store unavailable")
)

// Reader is the read API the ranking engine requires over entity records.
// Implementations must return consistent snapshots: a single call never mixes
// state from before and after an ingestion write.
type Reader interface {
	// ListResearchers returns all known researchers with their topic labels,
	// scientometric snapshot, and embedding (nil when absent).
	ListResearchers(ctx context.Context) ([]Researcher, error)

	// GetResearcher returns one researcher by ID, or ErrResearcherNotFound.
	GetResearcher(ctx context.Context, id string) (*Researcher, error)

	// ListMemberships returns every PC membership across all editions.
	ListMemberships(ctx context.Context) ([]Membership, error)

	// ListMembershipsByResearcher returns a researcher's PC service history.
	ListMembershipsByResearcher(ctx context.Context, id string) ([]Membership, error)

	// ListPublications returns every publication across all researchers.
	ListPublications(ctx context.Context) ([]Publication, error)

	// ListPublicationsByResearcher returns a researcher's publications,
	// most recent first.
	ListPublicationsByResearcher(ctx context.Context, id string) ([]Publication, error)

	// LatestEditionYear returns the most recent conference edition year known
	// to the store, or 0 when no editions exist.
	LatestEditionYear(ctx context.Context) (int, error)
}
