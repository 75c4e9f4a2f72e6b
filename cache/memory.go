package cache

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Cache used as the degraded fallback when Redis is
// unreachable, and as a drop-in fake in tests. Entries expire lazily on read.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewMemory returns an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", ErrMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(m.entries, key)
		return "", ErrMiss
	}
	return entry.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if ok && (entry.expiresAt.IsZero() || time.Now().Before(entry.expiresAt)) {
		return false, nil
	}

	e := memoryEntry{value: "1"}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = e
	return true, nil
}

func (m *Memory) ReleaseLock(ctx context.Context, key string) error {
	return m.Del(ctx, key)
}
