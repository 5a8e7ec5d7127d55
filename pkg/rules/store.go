package rules

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the read-only lookup of resolution rules backed by Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and verifies connectivity.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// FindResolveRule returns the first active RESOLVE rule whose keywords are
// both contained in the given fields, or nil when no rule matches.
//
// Candidates are ordered by ascending id, which makes the "first match"
// tie-break explicit instead of leaving it to storage-engine row order. The
// containment check runs in-process (Rule.Matches) so the semantics live in
// one place; the active rule set is small enough that loading it per lookup
// is cheap.
func (s *Store) FindResolveRule(ctx context.Context, shortDescription, description string) (*Rule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, is_active, action_type, short_description_keyword, description_keyword,
		       COALESCE(closure_note, ''), COALESCE(work_notes, ''),
		       COALESCE(jira_reference, ''), COALESCE(parent_incident, ''), COALESCE(kb_article, '')
		FROM incident_sop_rules
		WHERE is_active = true AND action_type = $1
		ORDER BY id`, ActionResolve)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.ID, &r.IsActive, &r.ActionType, &r.ShortDescriptionKeyword, &r.DescriptionKeyword,
			&r.ClosureNote, &r.WorkNotes, &r.JiraReference, &r.ParentIncident, &r.KBArticle); err != nil {
			return nil, err
		}
		if r.Matches(shortDescription, description) {
			return &r, nil
		}
	}
	return nil, rows.Err()
}
