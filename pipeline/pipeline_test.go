package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketbrief/cache"
	"marketbrief/config"
	"marketbrief/dedup"
	"marketbrief/types"
)

type fakeSource struct {
	mu      sync.Mutex
	items   []types.RawFeedItem
	err     error
	calls   int
	blockCh chan struct{} // when set, FetchItems waits until closed
}

func (f *fakeSource) FetchItems(ctx context.Context) ([]types.RawFeedItem, error) {
	f.mu.Lock()
	f.calls++
	block := f.blockCh
	items, err := f.items, f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

type fakeStore struct {
	mu         sync.Mutex
	persisted  []types.ClassifiedArticle
	recents    map[string]struct{}
	purged     bool
	persistErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{recents: make(map[string]struct{})}
}

func (f *fakeStore) QueryRecentComposites(ctx context.Context, window time.Duration) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]struct{}, len(f.recents))
	for k := range f.recents {
		out[k] = struct{}{}
	}
	return out, nil
}

func (f *fakeStore) Persist(ctx context.Context, articles []types.ClassifiedArticle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.persistErr != nil {
		return f.persistErr
	}
	f.persisted = append(f.persisted, articles...)
	for _, a := range articles {
		f.recents[dedup.Key(a.URL, a.Title)] = struct{}{}
	}
	return nil
}

func (f *fakeStore) PurgeRecent(ctx context.Context, window time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purged = true
	f.recents = make(map[string]struct{})
	return nil
}

func (f *fakeStore) RecentArticles(ctx context.Context, limit int) ([]types.ClassifiedArticle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.ClassifiedArticle{}, f.persisted...), nil
}

func (f *fakeStore) SetSummary(ctx context.Context, id, summary string) error { return nil }

func (f *fakeStore) persistedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.persisted)
}

// failingCache simulates an unreachable fast-cache backend.
type failingCache struct{}

func (failingCache) Get(ctx context.Context, key string) (string, error) {
	return "", errors.New("connection refused")
}

func (failingCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (failingCache) Del(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func (failingCache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingCache) ReleaseLock(ctx context.Context, key string) error {
	return errors.New("connection refused")
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		HistoryCap:    100,
		RecentWindow:  time.Hour,
		FetchAttempts: 1,
		LockTTL:       time.Minute,
	}
}

func newTestPipeline(src *fakeSource, st *fakeStore) (*Pipeline, *dedup.HistoryStore, cache.Cache) {
	mem := cache.NewMemory()
	history := dedup.NewHistoryStore(mem, 100)
	return New(src, history, st, mem, testConfig()), history, mem
}

func item(title, url string, published time.Time) types.RawFeedItem {
	return types.RawFeedItem{
		Title:       title,
		URL:         url,
		PublishedAt: published,
		FetchedAt:   time.Now(),
	}
}

func TestRunEndToEnd(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{items: []types.RawFeedItem{
		item("US Inflation Slows to 2.9%", "https://example.com/inflation", base),
		item("CPI", "https://example.com/cpi", base.Add(time.Minute)), // too short, filtered
		item("Fed Holds Rates Steady at Meeting", "https://example.com/fed", base.Add(2*time.Minute)),
	}}
	st := newFakeStore()
	p, _, _ := newTestPipeline(src, st)

	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if got := st.persistedCount(); got != 2 {
		t.Fatalf("persisted %d articles; want 2", got)
	}

	// Sorted newest first.
	if st.persisted[0].Title != "Fed Holds Rates Steady at Meeting" {
		t.Fatalf("first persisted = %q; want newest item", st.persisted[0].Title)
	}
	if st.persisted[0].Type != types.TypeCentralBank {
		t.Fatalf("first persisted type = %v; want central_bank", st.persisted[0].Type)
	}

	status := p.Status()
	if status.Stage != StageDone || status.Running {
		t.Fatalf("status = %+v; want done, not running", status)
	}
	if status.ItemsFound != 3 || status.ItemsAccepted != 2 {
		t.Fatalf("counts = %d found, %d accepted; want 3, 2", status.ItemsFound, status.ItemsAccepted)
	}
}

func TestRunIsIdempotentAcrossPasses(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{items: []types.RawFeedItem{
		item("US Inflation Slows to 2.9%", "https://example.com/inflation", base),
	}}
	st := newFakeStore()
	p, _, _ := newTestPipeline(src, st)

	for i := 0; i < 2; i++ {
		if err := p.Run(context.Background(), false); err != nil {
			t.Fatalf("Run %d error: %v", i, err)
		}
	}

	if got := st.persistedCount(); got != 1 {
		t.Fatalf("persisted %d articles after two identical passes; want 1", got)
	}
}

func TestRunDedupsWithinOneBatch(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{items: []types.RawFeedItem{
		item("US Inflation Slows to 2.9%", "https://example.com/inflation", base),
		item("  US Inflation   Slows to 2.9% ", "HTTPS://EXAMPLE.COM/inflation", base),
	}}
	st := newFakeStore()
	p, _, _ := newTestPipeline(src, st)

	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := st.persistedCount(); got != 1 {
		t.Fatalf("persisted %d articles for one repeated story; want 1", got)
	}
}

func TestRunSkipsDurableStoreDuplicates(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	title, url := "US Inflation Slows to 2.9%", "https://example.com/inflation"

	src := &fakeSource{items: []types.RawFeedItem{item(title, url, base)}}
	st := newFakeStore()
	st.recents[dedup.Key(url, title)] = struct{}{}
	p, _, _ := newTestPipeline(src, st)

	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := st.persistedCount(); got != 0 {
		t.Fatalf("persisted %d articles already in the durable window; want 0", got)
	}
}

func TestRunDropsLowValueItems(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{items: []types.RawFeedItem{
		item("Tech Company Announces New Product", "https://example.com/product", base),
	}}
	st := newFakeStore()
	p, history, _ := newTestPipeline(src, st)

	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := st.persistedCount(); got != 0 {
		t.Fatalf("persisted %d low-value articles; want 0", got)
	}

	// Dropped items still join the fingerprint history, so the next pass
	// skips them instead of re-evaluating the same junk.
	fp := dedup.Key("https://example.com/product", "Tech Company Announces New Product")
	if !history.Seen(context.Background(), fp) {
		t.Fatal("dropped item should be recorded in the fingerprint history")
	}
}

func TestRunSetsWatermark(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	newest := base.Add(30 * time.Minute)
	src := &fakeSource{items: []types.RawFeedItem{
		item("US Inflation Slows to 2.9%", "https://example.com/inflation", base),
		item("Fed Holds Rates Steady at Meeting", "https://example.com/fed", newest),
	}}
	st := newFakeStore()
	p, history, _ := newTestPipeline(src, st)

	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	wm, ok := history.Watermark(context.Background())
	if !ok || !wm.Equal(newest) {
		t.Fatalf("watermark = %v, %v; want %v, true", wm, ok, newest)
	}
}

func TestRunDefaultsUndatedItemsToWatermark(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{items: []types.RawFeedItem{
		item("US Inflation Slows to 2.9%", "https://example.com/inflation", base),
	}}
	st := newFakeStore()
	p, history, _ := newTestPipeline(src, st)

	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	if wm, ok := history.Watermark(context.Background()); !ok || !wm.Equal(base) {
		t.Fatalf("watermark = %v, %v; want %v, true", wm, ok, base)
	}

	// The next pass carries an item whose timestamp failed to parse.
	src.mu.Lock()
	src.items = []types.RawFeedItem{
		item("US Unemployment Rate Falls Again", "https://example.com/jobs", time.Time{}),
	}
	src.mu.Unlock()

	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if got := st.persistedCount(); got != 2 {
		t.Fatalf("persisted %d articles; want 2", got)
	}

	undated := st.persisted[1]
	if undated.Title != "US Unemployment Rate Falls Again" {
		t.Fatalf("unexpected second article %q", undated.Title)
	}
	if !undated.PublishedAt.Equal(base) {
		t.Fatalf("undated item PublishedAt = %v; want watermark %v", undated.PublishedAt, base)
	}
}

func TestRunFailedPersistLeavesHistoryUntouched(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{items: []types.RawFeedItem{
		item("US Inflation Slows to 2.9%", "https://example.com/inflation", base),
	}}
	st := newFakeStore()
	st.persistErr = errors.New("connection reset")
	p, history, _ := newTestPipeline(src, st)

	if err := p.Run(context.Background(), false); err == nil {
		t.Fatal("Run should surface the persist error")
	}

	if status := p.Status(); status.Stage != StageFailed {
		t.Fatalf("status stage = %v; want failed", status.Stage)
	}
	if _, ok := history.Watermark(context.Background()); ok {
		t.Fatal("failed pass should not advance the watermark")
	}

	// The items stay eligible: a healthy retry persists them.
	st.persistErr = nil
	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("retry Run error: %v", err)
	}
	if got := st.persistedCount(); got != 1 {
		t.Fatalf("persisted %d articles on retry; want 1", got)
	}
}

func TestRunRefusesOverlap(t *testing.T) {
	block := make(chan struct{})
	src := &fakeSource{blockCh: block}
	st := newFakeStore()
	p, _, _ := newTestPipeline(src, st)

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background(), false) }()

	// Wait until the first pass is inside the fetch stage.
	deadline := time.After(2 * time.Second)
	for {
		src.mu.Lock()
		started := src.calls > 0
		src.mu.Unlock()
		if started {
			break
		}
		select {
		case <-deadline:
			t.Fatal("first pass never started fetching")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := p.Run(context.Background(), false); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("overlapping Run error = %v; want ErrAlreadyRunning", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first Run error: %v", err)
	}
}

func TestRunRefusesWhenSiblingHoldsLock(t *testing.T) {
	src := &fakeSource{}
	st := newFakeStore()
	p, _, locker := newTestPipeline(src, st)

	ok, err := locker.AcquireLock(context.Background(), lockKey, time.Minute)
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock = %v, %v", ok, err)
	}

	if err := p.Run(context.Background(), false); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("Run with held lock error = %v; want ErrAlreadyRunning", err)
	}
}

func TestRunForceFreshPurgesAndReingests(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{items: []types.RawFeedItem{
		item("US Inflation Slows to 2.9%", "https://example.com/inflation", base),
	}}
	st := newFakeStore()
	p, _, _ := newTestPipeline(src, st)

	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("first Run error: %v", err)
	}
	if err := p.Run(context.Background(), true); err != nil {
		t.Fatalf("forced Run error: %v", err)
	}

	if !st.purged {
		t.Fatal("forced pass should purge the durable recent window")
	}
	if got := st.persistedCount(); got != 2 {
		t.Fatalf("persisted %d articles after forced re-ingest; want 2", got)
	}
}

func TestRunSurvivesUnreachableFastCache(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	src := &fakeSource{items: []types.RawFeedItem{
		item("US Inflation Slows to 2.9%", "https://example.com/inflation", base),
		item("US Inflation Slows to 2.9%", "https://example.com/inflation", base),
	}}
	st := newFakeStore()
	history := dedup.NewHistoryStore(failingCache{}, 100)
	p := New(src, history, st, failingCache{}, testConfig())

	// Redis down for both the history tier and the shared lock: the pass
	// still completes and dedups the repeated story within the batch.
	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("Run with unreachable cache error: %v", err)
	}
	if got := st.persistedCount(); got != 1 {
		t.Fatalf("persisted %d articles; want 1", got)
	}
	if !history.Degraded() {
		t.Fatal("history should report degraded operation")
	}

	// Empty the durable window so the second pass can only rely on the
	// degraded in-process history tier.
	st.mu.Lock()
	st.recents = make(map[string]struct{})
	st.mu.Unlock()

	if err := p.Run(context.Background(), false); err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	if got := st.persistedCount(); got != 1 {
		t.Fatalf("persisted %d articles after degraded re-poll; want 1", got)
	}
}

func TestRunSurfacesFetchFailure(t *testing.T) {
	src := &fakeSource{err: errors.New("status 503")}
	st := newFakeStore()
	p, _, _ := newTestPipeline(src, st)

	if err := p.Run(context.Background(), false); err == nil {
		t.Fatal("Run should surface the fetch error")
	}
	if status := p.Status(); status.Stage != StageFailed || status.LastError == "" {
		t.Fatalf("status = %+v; want failed with error", status)
	}
}
