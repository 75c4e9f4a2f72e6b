// Package store persists classified articles and answers duplicate lookups
// over a bounded recent window. Postgres is the durable authority; the S3
// archiver is an optional secondary sink.
package store

import (
	"context"
	"time"

	"marketbrief/types"
)

// Store is the durable persistence surface the pipeline depends on.
type Store interface {
	// QueryRecentComposites returns the normalized composite keys of
	// articles persisted within the lookback window.
	QueryRecentComposites(ctx context.Context, window time.Duration) (map[string]struct{}, error)

	// Persist writes the articles. Idempotent per article ID.
	Persist(ctx context.Context, articles []types.ClassifiedArticle) error

	// PurgeRecent deletes articles persisted within the window. Destructive;
	// only the forced-refresh flow calls it.
	PurgeRecent(ctx context.Context, window time.Duration) error

	// RecentArticles returns the newest persisted articles for the read API.
	RecentArticles(ctx context.Context, limit int) ([]types.ClassifiedArticle, error)

	// SetSummary attaches a generated summary to a persisted article.
	SetSummary(ctx context.Context, id, summary string) error
}
