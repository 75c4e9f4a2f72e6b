package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"marketbrief/dedup"
	"marketbrief/types"
)

// Postgres implements Store on a Postgres database.
type Postgres struct {
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres opens a connection pool and verifies connectivity.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close closes the underlying pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// EnsureSchema creates the articles table when absent.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS articles (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		url           TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		content       TEXT NOT NULL DEFAULT '',
		summary       TEXT NOT NULL DEFAULT '',
		author        TEXT NOT NULL DEFAULT '',
		published_at  TIMESTAMPTZ NOT NULL,
		fetched_at    TIMESTAMPTZ NOT NULL,
		type          TEXT NOT NULL,
		importance    INT NOT NULL,
		composite_key TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS articles_created_at_idx ON articles (created_at);
	CREATE INDEX IF NOT EXISTS articles_composite_key_idx ON articles (composite_key)`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// QueryRecentComposites returns normalized url|title keys persisted within
// the lookback window.
func (p *Postgres) QueryRecentComposites(ctx context.Context, window time.Duration) (map[string]struct{}, error) {
	const query = `SELECT composite_key FROM articles WHERE created_at > $1`

	rows, err := p.db.QueryContext(ctx, query, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("query recent composites: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan composite key: %w", err)
		}
		result[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

// Persist inserts the articles. A conflicting ID means the article is
// already stored; the insert is skipped rather than failing the batch.
func (p *Postgres) Persist(ctx context.Context, articles []types.ClassifiedArticle) error {
	if len(articles) == 0 {
		return nil
	}

	const query = `INSERT INTO articles
		(id, title, url, category, content, summary, author, published_at, fetched_at, type, importance, composite_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`

	for _, a := range articles {
		_, err := p.db.ExecContext(ctx, query,
			a.ID,
			a.Title,
			a.URL,
			a.Category,
			a.Content,
			a.Summary,
			a.Author,
			a.PublishedAt,
			a.FetchedAt,
			string(a.Type),
			a.Importance,
			dedup.Key(a.URL, a.Title),
		)
		if err != nil {
			return fmt.Errorf("persist article %s: %w", a.ID, err)
		}
	}
	return nil
}

// PurgeRecent deletes everything persisted within the window. Used only by
// the forced-refresh flow; it knowingly discards dedup memory.
func (p *Postgres) PurgeRecent(ctx context.Context, window time.Duration) error {
	const query = `DELETE FROM articles WHERE created_at > $1`

	if _, err := p.db.ExecContext(ctx, query, time.Now().Add(-window)); err != nil {
		return fmt.Errorf("purge recent articles: %w", err)
	}
	return nil
}

// RecentArticles returns the newest persisted articles, publish time
// descending.
func (p *Postgres) RecentArticles(ctx context.Context, limit int) ([]types.ClassifiedArticle, error) {
	if limit <= 0 {
		limit = 20
	}

	const query = `SELECT id, title, url, category, content, summary, author,
		published_at, fetched_at, type, importance
		FROM articles ORDER BY published_at DESC LIMIT $1`

	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent articles: %w", err)
	}
	defer rows.Close()

	var articles []types.ClassifiedArticle
	for rows.Next() {
		var a types.ClassifiedArticle
		var articleType string
		if err := rows.Scan(&a.ID, &a.Title, &a.URL, &a.Category, &a.Content, &a.Summary,
			&a.Author, &a.PublishedAt, &a.FetchedAt, &articleType, &a.Importance); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		a.Type = types.ArticleType(articleType)
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

// SetSummary attaches a generated summary to a stored article.
func (p *Postgres) SetSummary(ctx context.Context, id, summary string) error {
	const query = `UPDATE articles SET summary = $2 WHERE id = $1`

	if _, err := p.db.ExecContext(ctx, query, id, summary); err != nil {
		return fmt.Errorf("set summary for %s: %w", id, err)
	}
	return nil
}
