package dedup

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"marketbrief/cache"
)

const (
	fingerprintsKey = "marketbrief:news:fingerprints"
	watermarkKey    = "marketbrief:news:watermark"

	// Sliding retention on the cache tier. The durable store remains the
	// authority for anything older.
	historyTTL = 24 * time.Hour
)

// DefaultCapacity bounds the cached fingerprint history.
const DefaultCapacity = 1000

// HistoryStore is the cache-tier dedup memory: a capped, FIFO-evicted list
// of fingerprints plus the last-accepted-publish-time watermark. All state
// lives in the shared fast cache so process restarts and sibling instances
// see the same history. If the cache backend fails, the store degrades to an
// in-process map for the remainder of the process lifetime; it never
// surfaces a cache error to the caller.
type HistoryStore struct {
	mu       sync.Mutex
	cache    cache.Cache
	fallback *cache.Memory
	degraded bool
	capacity int
}

// NewHistoryStore wraps the given cache. capacity <= 0 uses DefaultCapacity.
func NewHistoryStore(c cache.Cache, capacity int) *HistoryStore {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &HistoryStore{
		cache:    c,
		fallback: cache.NewMemory(),
		capacity: capacity,
	}
}

// Degraded reports whether the store has fallen back to in-process memory.
func (h *HistoryStore) Degraded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.degraded
}

// Seen reports whether the fingerprint is present in the cached history.
// This is the soft tier only; callers also consult the durable store's
// recent window.
func (h *HistoryStore) Seen(ctx context.Context, fingerprint string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, fp := range h.loadLocked(ctx) {
		if fp == fingerprint {
			return true
		}
	}
	return false
}

// RecordSeen appends fingerprints to the history, evicting the oldest
// entries beyond capacity. Duplicate fingerprints are not re-appended.
func (h *HistoryStore) RecordSeen(ctx context.Context, fingerprints []string) {
	if len(fingerprints) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	history := h.loadLocked(ctx)
	known := make(map[string]struct{}, len(history))
	for _, fp := range history {
		known[fp] = struct{}{}
	}

	for _, fp := range fingerprints {
		if _, ok := known[fp]; ok {
			continue
		}
		known[fp] = struct{}{}
		history = append(history, fp)
	}

	if len(history) > h.capacity {
		history = history[len(history)-h.capacity:]
	}

	h.saveLocked(ctx, history)
}

// Watermark returns the newest accepted publish time, or ok=false when none
// has been recorded.
func (h *HistoryStore) Watermark(ctx context.Context) (time.Time, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	raw, err := h.getLocked(ctx, watermarkKey)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// SetWatermark records the newest accepted publish time, last writer wins.
// Non-monotonic writes are refused so a pass that raced an instance with
// newer data cannot move the watermark backwards.
func (h *HistoryStore) SetWatermark(ctx context.Context, t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if raw, err := h.getLocked(ctx, watermarkKey); err == nil {
		if prev, perr := time.Parse(time.RFC3339, raw); perr == nil && t.Before(prev) {
			return
		}
	}
	h.setLocked(ctx, watermarkKey, t.UTC().Format(time.RFC3339), 0)
}

// Clear resets the cache-tier history and watermark. It does not touch the
// durable store; callers wanting a full reset must purge that separately.
func (h *HistoryStore) Clear(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.delLocked(ctx, fingerprintsKey)
	h.delLocked(ctx, watermarkKey)
}

func (h *HistoryStore) loadLocked(ctx context.Context) []string {
	raw, err := h.getLocked(ctx, fingerprintsKey)
	if err != nil {
		return nil
	}

	var history []string
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		log.Printf("Warning: discarding unreadable fingerprint history: %v", err)
		return nil
	}
	return history
}

func (h *HistoryStore) saveLocked(ctx context.Context, history []string) {
	raw, err := json.Marshal(history)
	if err != nil {
		log.Printf("Warning: failed to encode fingerprint history: %v", err)
		return
	}
	h.setLocked(ctx, fingerprintsKey, string(raw), historyTTL)
}

// getLocked reads through the active tier, flipping to the fallback on a
// backend error. cache.ErrMiss is a normal miss, not a degradation signal.
func (h *HistoryStore) getLocked(ctx context.Context, key string) (string, error) {
	if !h.degraded {
		val, err := h.cache.Get(ctx, key)
		if err == nil || err == cache.ErrMiss {
			return val, err
		}
		h.degradeLocked(err)
	}
	return h.fallback.Get(ctx, key)
}

func (h *HistoryStore) setLocked(ctx context.Context, key, value string, ttl time.Duration) {
	if !h.degraded {
		err := h.cache.Set(ctx, key, value, ttl)
		if err == nil {
			return
		}
		h.degradeLocked(err)
	}
	_ = h.fallback.Set(ctx, key, value, ttl)
}

func (h *HistoryStore) delLocked(ctx context.Context, key string) {
	if !h.degraded {
		err := h.cache.Del(ctx, key)
		if err == nil {
			return
		}
		h.degradeLocked(err)
	}
	_ = h.fallback.Del(ctx, key)
}

func (h *HistoryStore) degradeLocked(err error) {
	h.degraded = true
	log.Printf("Warning: fast cache unreachable, dedup history degraded to in-process memory: %v", err)
}
