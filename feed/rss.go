package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"marketbrief/types"
)

// RSSSource parses an RSS/Atom feed for providers that expose one.
type RSSSource struct {
	parser  *gofeed.Parser
	feedURL string
}

// NewRSSSource builds a source for the given feed URL.
func NewRSSSource(feedURL string) *RSSSource {
	return &RSSSource{parser: gofeed.NewParser(), feedURL: feedURL}
}

var _ Source = (*RSSSource)(nil)

// FetchItems retrieves and parses the feed, preserving item order.
func (r *RSSSource) FetchItems(ctx context.Context) ([]types.RawFeedItem, error) {
	parsed, err := r.parser.ParseURLWithContext(r.feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	now := time.Now().UTC()
	items := make([]types.RawFeedItem, 0, len(parsed.Items))

	for _, entry := range parsed.Items {
		item := types.RawFeedItem{
			Title:     entry.Title,
			URL:       entry.Link,
			Summary:   entry.Description,
			FetchedAt: now,
		}
		if item.Summary == "" {
			item.Summary = entry.Content
		}
		if entry.Author != nil {
			item.Author = entry.Author.Name
		}
		if len(entry.Categories) > 0 {
			item.Category = entry.Categories[0]
		}
		if entry.PublishedParsed != nil {
			item.PublishedAt = entry.PublishedParsed.UTC()
		} else if entry.UpdatedParsed != nil {
			item.PublishedAt = entry.UpdatedParsed.UTC()
		}

		items = append(items, item)
	}

	return items, nil
}
