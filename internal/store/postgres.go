package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confrec/confrec/internal/tracing"
)

// PostgresStore implements Reader over the ingestion schema in PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a PostgresStore over an open database handle.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// unavailable wraps a database error as ErrUnavailable so callers can treat
// the whole request as failed rather than as an empty result.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}

// ListResearchers returns all researchers with topics merged in, ordered by ID.
func (s *PostgresStore) ListResearchers(ctx context.Context) ([]Researcher, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "researchers", tracing.DBOperationQuery)
	var spanErr error
	defer func() { endSpan(spanErr) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, full_name,
		       COALESCE(affiliation, ''), COALESCE(country, ''),
		       COALESCE(person_profile_url, ''), COALESCE(research_interests, ''),
		       COALESCE(works_count, 0), COALESCE(cited_by_count, 0),
		       COALESCE(h_index, 0),
		       COALESCE(counts_by_year, ''), COALESCE(embedding, '')
		FROM researchers
		ORDER BY id ASC`)
	if err != nil {
		spanErr = err
		return nil, unavailable("list researchers", err)
	}
	defer rows.Close()

	var out []Researcher
	index := make(map[string]int)
	for rows.Next() {
		var r Researcher
		var countsJSON, embeddingJSON string
		if err := rows.Scan(&r.ID, &r.FullName, &r.Affiliation, &r.Country,
			&r.ProfileURL, &r.Interests, &r.WorksCount, &r.CitedByCount,
			&r.HIndex, &countsJSON, &embeddingJSON); err != nil {
			spanErr = err
			return nil, unavailable("scan researcher", err)
		}
		r.CountsByYear = parseCountsByYear(countsJSON, s.logger, r.ID)
		r.Embedding = parseEmbedding(embeddingJSON, s.logger, r.ID)
		index[r.ID] = len(out)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		spanErr = err
		return nil, unavailable("list researchers", err)
	}

	topicRows, err := s.db.QueryContext(ctx, `
		SELECT rt.researcher_id, t.name
		FROM researcher_topics rt
		JOIN topics t ON t.id = rt.topic_id
		ORDER BY rt.researcher_id, t.name`)
	if err != nil {
		spanErr = err
		return nil, unavailable("list researcher topics", err)
	}
	defer topicRows.Close()

	for topicRows.Next() {
		var researcherID, name string
		if err := topicRows.Scan(&researcherID, &name); err != nil {
			spanErr = err
			return nil, unavailable("scan researcher topic", err)
		}
		if i, ok := index[researcherID]; ok {
			out[i].Topics = append(out[i].Topics, name)
		}
	}
	if err := topicRows.Err(); err != nil {
		spanErr = err
		return nil, unavailable("list researcher topics", err)
	}

	return out, nil
}

// GetResearcher returns one researcher by ID, or ErrResearcherNotFound.
func (s *PostgresStore) GetResearcher(ctx context.Context, id string) (*Researcher, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "researchers", tracing.DBOperationQuery)
	var spanErr error
	defer func() { endSpan(spanErr) }()

	var r Researcher
	var countsJSON, embeddingJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, full_name,
		       COALESCE(affiliation, ''), COALESCE(country, ''),
		       COALESCE(person_profile_url, ''), COALESCE(research_interests, ''),
		       COALESCE(works_count, 0), COALESCE(cited_by_count, 0),
		       COALESCE(h_index, 0),
		       COALESCE(counts_by_year, ''), COALESCE(embedding, '')
		FROM researchers
		WHERE id = $1`, id).
		Scan(&r.ID, &r.FullName, &r.Affiliation, &r.Country,
			&r.ProfileURL, &r.Interests, &r.WorksCount, &r.CitedByCount,
			&r.HIndex, &countsJSON, &embeddingJSON)
	if err == sql.ErrNoRows {
		return nil, ErrResearcherNotFound
	}
	if err != nil {
		spanErr = err
		return nil, unavailable("get researcher", err)
	}
	r.CountsByYear = parseCountsByYear(countsJSON, s.logger, r.ID)
	r.Embedding = parseEmbedding(embeddingJSON, s.logger, r.ID)

	topicRows, err := s.db.QueryContext(ctx, `
		SELECT t.name
		FROM researcher_topics rt
		JOIN topics t ON t.id = rt.topic_id
		WHERE rt.researcher_id = $1
		ORDER BY t.name`, id)
	if err != nil {
		spanErr = err
		return nil, unavailable("get researcher topics", err)
	}
	defer topicRows.Close()

	for topicRows.Next() {
		var name string
		if err := topicRows.Scan(&name); err != nil {
			spanErr = err
			return nil, unavailable("scan researcher topic", err)
		}
		r.Topics = append(r.Topics, name)
	}
	if err := topicRows.Err(); err != nil {
		spanErr = err
		return nil, unavailable("get researcher topics", err)
	}

	return &r, nil
}

// ListMemberships returns every PC membership joined with its edition.
func (s *PostgresStore) ListMemberships(ctx context.Context) ([]Membership, error) {
	return s.queryMemberships(ctx, `
		SELECT m.researcher_id, c.series, c.year, m.role
		FROM pc_memberships m
		JOIN conference_editions c ON c.id = m.conference_id
		ORDER BY m.researcher_id, c.series, c.year`)
}

// ListMembershipsByResearcher returns a researcher's PC service history.
func (s *PostgresStore) ListMembershipsByResearcher(ctx context.Context, id string) ([]Membership, error) {
	return s.queryMemberships(ctx, `
		SELECT m.researcher_id, c.series, c.year, m.role
		FROM pc_memberships m
		JOIN conference_editions c ON c.id = m.conference_id
		WHERE m.researcher_id = $1
		ORDER BY c.year DESC, c.series`, id)
}

func (s *PostgresStore) queryMemberships(ctx context.Context, query string, args ...any) ([]Membership, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "pc_memberships", tracing.DBOperationQuery)
	var spanErr error
	defer func() { endSpan(spanErr) }()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		spanErr = err
		return nil, unavailable("list memberships", err)
	}
	defer rows.Close()

	var out []Membership
	for rows.Next() {
		var m Membership
		if err := rows.Scan(&m.ResearcherID, &m.Series, &m.Year, &m.Role); err != nil {
			spanErr = err
			return nil, unavailable("scan membership", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		spanErr = err
		return nil, unavailable("list memberships", err)
	}
	return out, nil
}

// ListPublications returns every publication record.
func (s *PostgresStore) ListPublications(ctx context.Context) ([]Publication, error) {
	return s.queryPublications(ctx, `
		SELECT researcher_id, title, COALESCE(year, 0), COALESCE(venue, '')
		FROM publications
		ORDER BY researcher_id, year DESC`)
}

// ListPublicationsByResearcher returns a researcher's publications, most recent first.
func (s *PostgresStore) ListPublicationsByResearcher(ctx context.Context, id string) ([]Publication, error) {
	return s.queryPublications(ctx, `
		SELECT researcher_id, title, COALESCE(year, 0), COALESCE(venue, '')
		FROM publications
		WHERE researcher_id = $1
		ORDER BY year DESC`, id)
}

func (s *PostgresStore) queryPublications(ctx context.Context, query string, args ...any) ([]Publication, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "publications", tracing.DBOperationQuery)
	var spanErr error
	defer func() { endSpan(spanErr) }()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		spanErr = err
		return nil, unavailable("list publications", err)
	}
	defer rows.Close()

	var out []Publication
	for rows.Next() {
		var p Publication
		if err := rows.Scan(&p.ResearcherID, &p.Title, &p.Year, &p.Venue); err != nil {
			spanErr = err
			return nil, unavailable("scan publication", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		spanErr = err
		return nil, unavailable("list publications", err)
	}
	return out, nil
}

// LatestEditionYear returns the most recent edition year, or 0 when none exist.
func (s *PostgresStore) LatestEditionYear(ctx context.Context) (int, error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "conference_editions", tracing.DBOperationQuery)
	var spanErr error
	defer func() { endSpan(spanErr) }()

	var year int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(year), 0) FROM conference_editions`).Scan(&year); err != nil {
		spanErr = err
		return 0, unavailable("latest edition year", err)
	}
	return year, nil
}

// parseCountsByYear decodes the counts_by_year JSON column. Enrichment writes
// a list of {"year", "works_count"} objects; malformed payloads are logged and
// treated as absent rather than failing the read.
func parseCountsByYear(raw string, logger *slog.Logger, researcherID string) []YearActivity {
	if raw == "" {
		return nil
	}
	var counts []YearActivity
	if err := json.Unmarshal([]byte(raw), &counts); err != nil {
		logger.Warn("malformed counts_by_year, ignoring",
			"researcher_id", researcherID, "error", err)
		return nil
	}
	return counts
}

// parseEmbedding decodes the embedding JSON column written by the embedding job.
func parseEmbedding(raw string, logger *slog.Logger, researcherID string) []float64 {
	if raw == "" {
		return nil
	}
	var vec []float64
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		logger.Warn("malformed embedding, ignoring",
			"researcher_id", researcherID, "error", err)
		return nil
	}
	return vec
}
