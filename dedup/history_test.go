package dedup

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"marketbrief/cache"
)

// brokenCache fails every operation, simulating an unreachable backend.
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("connection refused")
}

func (brokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCache) Del(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func (brokenCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func (brokenCache) ReleaseLock(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func TestHistoryStoreSeenAndRecord(t *testing.T) {
	ctx := context.Background()
	h := NewHistoryStore(cache.NewMemory(), 0)

	if h.Seen(ctx, "a|b") {
		t.Fatal("fresh store should not report fingerprints as seen")
	}

	h.RecordSeen(ctx, []string{"a|b", "c|d"})

	if !h.Seen(ctx, "a|b") || !h.Seen(ctx, "c|d") {
		t.Fatal("recorded fingerprints should be reported as seen")
	}
	if h.Seen(ctx, "e|f") {
		t.Fatal("unrecorded fingerprint reported as seen")
	}
}

func TestHistoryStoreFIFOEviction(t *testing.T) {
	ctx := context.Background()
	const capacity = 5
	h := NewHistoryStore(cache.NewMemory(), capacity)

	fingerprints := make([]string, capacity+3)
	for i := range fingerprints {
		fingerprints[i] = fmt.Sprintf("url-%d|title-%d", i, i)
	}
	h.RecordSeen(ctx, fingerprints)

	// The first three entries fell off the front.
	for i := 0; i < 3; i++ {
		if h.Seen(ctx, fingerprints[i]) {
			t.Errorf("fingerprint %d should have been evicted", i)
		}
	}
	for i := 3; i < len(fingerprints); i++ {
		if !h.Seen(ctx, fingerprints[i]) {
			t.Errorf("fingerprint %d should still be present", i)
		}
	}
}

func TestHistoryStoreDuplicateRecordKeepsPosition(t *testing.T) {
	ctx := context.Background()
	h := NewHistoryStore(cache.NewMemory(), 3)

	h.RecordSeen(ctx, []string{"a", "b"})
	h.RecordSeen(ctx, []string{"a", "c", "d"})

	// "a" was not re-appended, so it is the oldest entry and the first out.
	if h.Seen(ctx, "a") {
		t.Fatal("oldest duplicate should have been evicted")
	}
	for _, fp := range []string{"b", "c", "d"} {
		if !h.Seen(ctx, fp) {
			t.Fatalf("fingerprint %q should still be present", fp)
		}
	}
}

func TestHistoryStoreDegradesToMemory(t *testing.T) {
	ctx := context.Background()
	h := NewHistoryStore(brokenCache{}, 0)

	if h.Degraded() {
		t.Fatal("store should not start degraded")
	}

	h.RecordSeen(ctx, []string{"a|b"})

	if !h.Degraded() {
		t.Fatal("store should degrade after a backend failure")
	}
	// Dedup keeps working against the in-process fallback.
	if !h.Seen(ctx, "a|b") {
		t.Fatal("degraded store lost a recorded fingerprint")
	}
}

func TestHistoryStoreWatermark(t *testing.T) {
	ctx := context.Background()
	h := NewHistoryStore(cache.NewMemory(), 0)

	if _, ok := h.Watermark(ctx); ok {
		t.Fatal("fresh store should have no watermark")
	}

	newer := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	h.SetWatermark(ctx, newer)
	got, ok := h.Watermark(ctx)
	if !ok || !got.Equal(newer) {
		t.Fatalf("Watermark() = %v, %v; want %v, true", got, ok, newer)
	}

	// A stale write must not move the watermark backwards.
	h.SetWatermark(ctx, older)
	got, _ = h.Watermark(ctx)
	if !got.Equal(newer) {
		t.Fatalf("watermark moved backwards to %v", got)
	}
}

func TestHistoryStoreClear(t *testing.T) {
	ctx := context.Background()
	h := NewHistoryStore(cache.NewMemory(), 0)

	h.RecordSeen(ctx, []string{"a|b"})
	h.SetWatermark(ctx, time.Now())
	h.Clear(ctx)

	if h.Seen(ctx, "a|b") {
		t.Fatal("Clear should drop the fingerprint history")
	}
	if _, ok := h.Watermark(ctx); ok {
		t.Fatal("Clear should drop the watermark")
	}
}
