package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/confrec/confrec/internal/middleware"
	"github.com/confrec/confrec/internal/store"
)

// maxRecentPublications bounds the publication list in the detail view.
const maxRecentPublications = 20

// ResearcherHandlers holds dependencies for researcher detail endpoints.
type ResearcherHandlers struct {
	store store.Reader
}

// NewResearcherHandlers creates a new ResearcherHandlers instance.
func NewResearcherHandlers(st store.Reader) *ResearcherHandlers {
	return &ResearcherHandlers{store: st}
}

// ResearcherDetailResponse is the full profile view of one researcher,
// including PC service history and recent publications.
type ResearcherDetailResponse struct {
	ID           string               `json:"id"`
	FullName     string               `json:"full_name"`
	Affiliation  string               `json:"affiliation,omitempty"`
	Country      string               `json:"country,omitempty"`
	ProfileURL   string               `json:"profile_url,omitempty"`
	Interests    string               `json:"interests,omitempty"`
	Topics       []string             `json:"topics,omitempty"`
	WorksCount   int                  `json:"works_count"`
	CitedByCount int                  `json:"cited_by_count"`
	HIndex       int                  `json:"h_index"`
	PCService    []PCServiceEntry     `json:"pc_service"`
	Publications []PublicationEntry   `json:"publications"`
	CountsByYear []store.YearActivity `json:"counts_by_year,omitempty"`
}

// PCServiceEntry is one edition of PC service in the detail view.
type PCServiceEntry struct {
	Series string `json:"conference_series"`
	Year   int    `json:"year"`
	Role   string `json:"role,omitempty"`
}

// PublicationEntry is one publication in the detail view.
type PublicationEntry struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	Venue string `json:"venue,omitempty"`
}

// GetResearcher handles GET /researchers/{id} - returns one researcher's
// profile with PC service history and recent publications.
func (h *ResearcherHandlers) GetResearcher(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/researchers/")
	if id == "" || strings.Contains(id, "/") {
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeBadRequest)
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Researcher ID is required")
		return
	}

	researcher, err := h.store.GetResearcher(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrResearcherNotFound):
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeNotFound)
			WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Researcher not found")
		case errors.Is(err, store.ErrUnavailable):
			slog.ErrorContext(r.Context(), "store unavailable fetching researcher", "error", err, "researcher_id", id)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeStoreUnavailable)
			WriteError(w, ctx, http.StatusServiceUnavailable, ErrCodeStoreUnavailable, "Backing store is unavailable")
		default:
			slog.ErrorContext(r.Context(), "failed to fetch researcher", "error", err, "researcher_id", id)
			ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
			WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch researcher")
		}
		return
	}

	memberships, err := h.store.ListMembershipsByResearcher(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to fetch PC service history", "error", err, "researcher_id", id)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch PC service history")
		return
	}
	publications, err := h.store.ListPublicationsByResearcher(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to fetch publications", "error", err, "researcher_id", id)
		ctx := middleware.SetErrorCode(r.Context(), ErrCodeInternal)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "Failed to fetch publications")
		return
	}

	resp := buildResearcherDetail(researcher, memberships, publications)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode researcher response", "error", err)
	}
}

// buildResearcherDetail assembles the detail view: service history newest
// first, publications newest first and capped.
func buildResearcherDetail(r *store.Researcher, memberships []store.Membership, publications []store.Publication) ResearcherDetailResponse {
	service := make([]PCServiceEntry, 0, len(memberships))
	for _, m := range memberships {
		service = append(service, PCServiceEntry{Series: m.Series, Year: m.Year, Role: m.Role})
	}
	sort.Slice(service, func(i, j int) bool {
		if service[i].Year != service[j].Year {
			return service[i].Year > service[j].Year
		}
		return service[i].Series < service[j].Series
	})

	pubs := make([]PublicationEntry, 0, len(publications))
	for _, p := range publications {
		pubs = append(pubs, PublicationEntry{Title: p.Title, Year: p.Year, Venue: p.Venue})
	}
	sort.Slice(pubs, func(i, j int) bool {
		if pubs[i].Year != pubs[j].Year {
			return pubs[i].Year > pubs[j].Year
		}
		return pubs[i].Title < pubs[j].Title
	})
	if len(pubs) > maxRecentPublications {
		pubs = pubs[:maxRecentPublications]
	}

	return ResearcherDetailResponse{
		ID:           r.ID,
		FullName:     r.FullName,
		Affiliation:  r.Affiliation,
		Country:      r.Country,
		ProfileURL:   r.ProfileURL,
		Interests:    r.Interests,
		Topics:       r.Topics,
		WorksCount:   r.WorksCount,
		CitedByCount: r.CitedByCount,
		HIndex:       r.HIndex,
		PCService:    service,
		Publications: pubs,
		CountsByYear: r.CountsByYear,
	}
}
