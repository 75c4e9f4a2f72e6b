// Package feed pulls raw items from the upstream news provider, either by
// scraping its stream page or by parsing an RSS feed.
package feed

import (
	"context"
	"fmt"
	"log"
	"time"

	"marketbrief/types"
)

// Source pulls the current batch of raw items from the upstream provider.
type Source interface {
	FetchItems(ctx context.Context) ([]types.RawFeedItem, error)
}

// FetchWithRetry calls the source up to attempts times with a fixed delay
// between failures. The last error is surfaced once all attempts fail.
func FetchWithRetry(ctx context.Context, src Source, attempts int, delay time.Duration) ([]types.RawFeedItem, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		items, err := src.FetchItems(ctx)
		if err == nil {
			return items, nil
		}
		lastErr = err
		log.Printf("Warning: feed fetch attempt %d/%d failed: %v", i+1, attempts, err)

		if i == attempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("feed fetch failed after %d attempts: %w", attempts, lastErr)
}
