// Package cache provides the shared fast-cache abstraction used for dedup
// history, watermarks, and cross-process locking.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// Cache is the minimal key-value surface the ingestion core needs from the
// shared fast cache. Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error

	// AcquireLock attempts a set-if-not-exists with expiry. It returns false
	// without error when another holder already owns the lock.
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}
