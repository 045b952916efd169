// Package store provides read-only access to researcher, conference, membership,
// and publication records. The ranking engine depends on the Reader interface
// only; ingestion and enrichment own all writes.
package store

// Researcher is one researcher record as produced by ingestion and enrichment.
// The ranking engine treats it as immutable.
type Researcher struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Affiliation string `json:"affiliation,omitempty"`
	Country     string `json:"country,omitempty"`
	ProfileURL  string `json:"person_profile_url,omitempty"`

	// Interests is the free-text research interests field from ingestion.
	// Topic phrases are derived from it alongside the linked topic labels.
	Interests string   `json:"research_interests,omitempty"`
	Topics    []string `json:"topics"`

	// Scientometric snapshot written by the enrichment job.
	WorksCount   int            `json:"works_count,omitempty"`
	CitedByCount int            `json:"cited_by_count,omitempty"`
	HIndex       int            `json:"h_index,omitempty"`
	CountsByYear []YearActivity `json:"counts_by_year,omitempty"`

	// Embedding is the precomputed profile embedding, nil when the embedding
	// job has not run for this researcher yet.
	Embedding []float64 `json:"-"`
}

// YearActivity records publication activity for a single year.
type YearActivity struct {
	Year       int `json:"year"`
	WorksCount int `json:"works_count"`
}

// Edition identifies one instance of a recurring conference.
type Edition struct {
	Series string `json:"series"`
	Year   int    `json:"year"`
}

// Membership records that a researcher served on one edition's committee.
type Membership struct {
	ResearcherID string `json:"researcher_id"`
	Series       string `json:"series"`
	Year         int    `json:"year"`
	Role         string `json:"role"`
}

// Publication is one publication attributed to a researcher.
type Publication struct {
	ResearcherID string `json:"researcher_id"`
	Title        string `json:"title"`
	Year         int    `json:"year,omitempty"`
	Venue        string `json:"venue,omitempty"`
}
