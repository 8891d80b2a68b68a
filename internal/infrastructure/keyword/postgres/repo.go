// Package postgres provides the full-text keyword backend and the
// announcement store on top of Postgres.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/officebrain/concierge/internal/core/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026081501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	scope_id TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	search_tsv TSVECTOR GENERATED ALWAYS AS (
		setweight(to_tsvector('english', coalesce(title, '')), 'A') ||
		setweight(to_tsvector('english', coalesce(body, '')), 'B')
	) STORED,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_scope ON documents(scope_id);
CREATE INDEX IF NOT EXISTS idx_documents_tsv ON documents USING GIN(search_tsv);

CREATE TABLE IF NOT EXISTS announcements (
	id TEXT PRIMARY KEY,
	scope_id TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL,
	search_tsv TSVECTOR GENERATED ALWAYS AS (
		setweight(to_tsvector('english', coalesce(title, '')), 'A') ||
		setweight(to_tsvector('english', coalesce(body, '')), 'B')
	) STORED,
	posted_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_announcements_scope ON announcements(scope_id);
CREATE INDEX IF NOT EXISTS idx_announcements_tsv ON announcements USING GIN(search_tsv);
CREATE INDEX IF NOT EXISTS idx_announcements_posted_at ON announcements(posted_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Search runs a ranked full-text query scoped to one tenant scope.
func (r *Repository) Search(ctx context.Context, query, scopeID string, limit, offset int) ([]domain.KeywordHit, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, body, ts_rank(search_tsv, plainto_tsquery('english', $1)) AS rank, created_at
FROM documents
WHERE scope_id = $2 AND search_tsv @@ plainto_tsquery('english', $1)
ORDER BY rank DESC, created_at DESC
LIMIT $3 OFFSET $4
`, query, scopeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var hits []domain.KeywordHit
	for rows.Next() {
		var hit domain.KeywordHit
		if err := rows.Scan(&hit.ID, &hit.Title, &hit.Body, &hit.Rank, &hit.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan keyword hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword hits: %w", err)
	}
	return hits, nil
}

func (r *Repository) SearchAnnouncements(ctx context.Context, query, scopeID string, limit int) ([]domain.Announcement, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, scope_id, title, body, posted_at
FROM announcements
WHERE scope_id = $2 AND search_tsv @@ plainto_tsquery('english', $1)
ORDER BY ts_rank(search_tsv, plainto_tsquery('english', $1)) DESC, posted_at DESC
LIMIT $3
`, query, scopeID, limit)
	if err != nil {
		return nil, fmt.Errorf("announcement search: %w", err)
	}
	defer rows.Close()

	var announcements []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.ScopeID, &a.Title, &a.Body, &a.PostedAt); err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		announcements = append(announcements, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate announcements: %w", err)
	}
	return announcements, nil
}

func (r *Repository) UpsertAnnouncement(ctx context.Context, a domain.Announcement) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO announcements (id, scope_id, title, body, posted_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE
SET scope_id = EXCLUDED.scope_id, title = EXCLUDED.title, body = EXCLUDED.body, posted_at = EXCLUDED.posted_at
`, a.ID, a.ScopeID, a.Title, a.Body, a.PostedAt)
	if err != nil {
		return fmt.Errorf("upsert announcement: %w", err)
	}
	return nil
}
