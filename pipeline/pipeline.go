// Package pipeline runs the ingestion pass: fetch raw items, validate,
// deduplicate against the two-tier history, classify, enrich, persist.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"marketbrief/cache"
	"marketbrief/config"
	"marketbrief/dedup"
	"marketbrief/extract"
	"marketbrief/feed"
	"marketbrief/policy"
	"marketbrief/store"
	"marketbrief/types"
)

// ErrAlreadyRunning is returned when a pass is requested while another is
// in flight, either in this process or in a sibling holding the shared lock.
var ErrAlreadyRunning = errors.New("pipeline: ingestion pass already running")

// lockKey guards against concurrent passes across processes.
const lockKey = "marketbrief:ingestion:lock"

// Publisher emits an event for each accepted article. Optional.
type Publisher interface {
	PublishAccepted(ctx context.Context, article types.ClassifiedArticle) error
}

// Archiver writes a secondary copy of each accepted article. Optional.
type Archiver interface {
	Archive(ctx context.Context, article types.ClassifiedArticle) error
}

// Pipeline wires the ingestion collaborators together. Source, History and
// Store are required; the rest are optional enrichments.
type Pipeline struct {
	source    feed.Source
	history   *dedup.HistoryStore
	store     store.Store
	locker    cache.Cache
	extractor extract.Extractor
	publisher Publisher
	archiver  Archiver
	cfg       config.PipelineConfig

	runMu  sync.Mutex
	status *tracker
}

// Option customizes an optional pipeline collaborator.
type Option func(*Pipeline)

// WithExtractor enables full-text enrichment of accepted articles.
func WithExtractor(e extract.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// WithPublisher enables per-article event publishing.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithArchiver enables secondary article archiving.
func WithArchiver(a Archiver) Option {
	return func(p *Pipeline) { p.archiver = a }
}

// New creates a pipeline over the required collaborators.
func New(src feed.Source, history *dedup.HistoryStore, st store.Store, locker cache.Cache, cfg config.PipelineConfig, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:  src,
		history: history,
		store:   st,
		locker:  locker,
		cfg:     cfg,
		status:  newTracker(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Status returns a snapshot of the current pipeline state.
func (p *Pipeline) Status() Status {
	return p.status.snapshot()
}

// Run executes one ingestion pass. A pass already in flight makes Run a
// no-op returning ErrAlreadyRunning. forceFresh discards the dedup history
// and the durable recent window before fetching, so the pass treats every
// upstream item as new.
func (p *Pipeline) Run(ctx context.Context, forceFresh bool) error {
	if !p.runMu.TryLock() {
		return ErrAlreadyRunning
	}
	defer p.runMu.Unlock()

	acquired, err := p.locker.AcquireLock(ctx, lockKey, p.cfg.LockTTL)
	if err != nil {
		// A broken lock backend must not stall ingestion; the in-process
		// guard above still prevents local overlap.
		log.Printf("Warning: ingestion lock unavailable, proceeding without it: %v", err)
	} else if !acquired {
		return ErrAlreadyRunning
	} else {
		defer func() {
			if err := p.locker.ReleaseLock(context.WithoutCancel(ctx), lockKey); err != nil {
				log.Printf("Warning: failed to release ingestion lock: %v", err)
			}
		}()
	}

	p.status.begin()
	err = p.runPass(ctx, forceFresh)
	p.status.finish(err)
	return err
}

func (p *Pipeline) runPass(ctx context.Context, forceFresh bool) error {
	if forceFresh {
		log.Printf("Forced fresh pass: clearing dedup history and recent window")
		p.history.Clear(ctx)
		if err := p.store.PurgeRecent(ctx, p.cfg.RecentWindow); err != nil {
			return fmt.Errorf("purge recent window: %w", err)
		}
	}

	items, err := feed.FetchWithRetry(ctx, p.source, p.cfg.FetchAttempts, p.cfg.FetchDelay)
	if err != nil {
		return err
	}
	log.Printf("Fetched %d items from feed", len(items))
	p.status.setCounts(len(items), 0)

	// Undated items inherit the watermark, so a story whose relative stamp
	// failed to parse still sorts near its stream position instead of the
	// epoch.
	if wm, ok := p.history.Watermark(ctx); ok {
		for i := range items {
			if items[i].PublishedAt.IsZero() {
				items[i].PublishedAt = wm
			}
		}
	}

	p.status.setStage(StageValidating)
	valid := make([]types.RawFeedItem, 0, len(items))
	for _, item := range items {
		if policy.IsValid(item) {
			valid = append(valid, item)
		}
	}
	log.Printf("%d of %d items passed validation", len(valid), len(items))

	p.status.setStage(StageDeduplicating)
	fresh, fingerprints, err := p.deduplicate(ctx, valid)
	if err != nil {
		return err
	}
	log.Printf("%d of %d items are new", len(fresh), len(valid))

	p.status.setStage(StageClassifying)
	articles := p.classify(ctx, fresh)

	p.status.setStage(StagePersisting)
	if len(articles) > 0 {
		if err := p.store.Persist(ctx, articles); err != nil {
			return fmt.Errorf("persist articles: %w", err)
		}
	}
	p.emit(ctx, articles)

	// History and watermark advance only after persistence succeeded, so a
	// failed pass leaves its items eligible for the next one.
	p.history.RecordSeen(ctx, fingerprints)
	if wm := newestPublish(articles); !wm.IsZero() {
		p.history.SetWatermark(ctx, wm)
	}

	p.status.setCounts(len(items), len(articles))
	log.Printf("Ingestion pass complete: %d accepted", len(articles))
	return nil
}

// deduplicate drops items already seen by any tier: the current batch, the
// cached fingerprint history, or the durable store's recent window. Each
// surviving item's fingerprint joins the batch accumulator immediately, so
// an upstream item repeated within one fetch is accepted at most once.
func (p *Pipeline) deduplicate(ctx context.Context, items []types.RawFeedItem) ([]types.RawFeedItem, []string, error) {
	recent, err := p.store.QueryRecentComposites(ctx, p.cfg.RecentWindow)
	if err != nil {
		return nil, nil, fmt.Errorf("query recent articles: %w", err)
	}

	batch := make(map[string]struct{}, len(items))
	fresh := make([]types.RawFeedItem, 0, len(items))
	fingerprints := make([]string, 0, len(items))

	for _, item := range items {
		fp := dedup.Fingerprint(item)
		if _, dup := batch[fp]; dup {
			continue
		}
		batch[fp] = struct{}{}

		if p.history.Seen(ctx, fp) {
			continue
		}
		if _, dup := recent[fp]; dup {
			continue
		}

		fresh = append(fresh, item)
		fingerprints = append(fingerprints, fp)
	}
	return fresh, fingerprints, nil
}

// classify labels each fresh item and builds the article records, pulling
// full text when an extractor is configured. Items with no market relevance
// at the importance floor are dropped. Per-item extraction failures degrade
// that article to its feed summary rather than failing the pass.
func (p *Pipeline) classify(ctx context.Context, items []types.RawFeedItem) []types.ClassifiedArticle {
	articles := make([]types.ClassifiedArticle, 0, len(items))
	for i, item := range items {
		articleType, importance := policy.Classify(item)
		if importance <= types.MinImportance && articleType == types.TypeGeneral &&
			!policy.MentionsMarket(item.Title) && !policy.MentionsIndicator(item) {
			log.Printf("Dropping low-value item: %s", item.Title)
			continue
		}

		article := types.ClassifiedArticle{
			ID:          types.GenerateID(dedup.Fingerprint(item)),
			Title:       item.Title,
			URL:         item.URL,
			Category:    item.Category,
			Summary:     item.Summary,
			Author:      item.Author,
			PublishedAt: item.PublishedAt,
			FetchedAt:   item.FetchedAt,
			Type:        articleType,
			Importance:  importance,
		}

		if p.extractor != nil && item.URL != "" {
			if i > 0 && p.cfg.ItemDelay > 0 {
				select {
				case <-time.After(p.cfg.ItemDelay):
				case <-ctx.Done():
					return articles
				}
			}
			content, err := p.extractor.Extract(item.URL)
			if err != nil {
				log.Printf("Warning: content extraction failed for %s: %v", item.URL, err)
			} else {
				article.Content = content.Text
				if article.Author == "" {
					article.Author = content.Author
				}
				if article.Summary == "" {
					article.Summary = content.Excerpt
				}
			}
		}

		articles = append(articles, article)
	}

	// Newest first; equal timestamps keep feed order.
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles
}

// emit fans accepted articles out to the optional sinks. Sink failures are
// logged and never fail the pass.
func (p *Pipeline) emit(ctx context.Context, articles []types.ClassifiedArticle) {
	for _, a := range articles {
		if p.publisher != nil {
			if err := p.publisher.PublishAccepted(ctx, a); err != nil {
				log.Printf("Warning: failed to publish article %s: %v", a.ID, err)
			}
		}
		if p.archiver != nil {
			if err := p.archiver.Archive(ctx, a); err != nil {
				log.Printf("Warning: failed to archive article %s: %v", a.ID, err)
			}
		}
	}
}

func newestPublish(articles []types.ClassifiedArticle) time.Time {
	var newest time.Time
	for _, a := range articles {
		if a.PublishedAt.After(newest) {
			newest = a.PublishedAt
		}
	}
	return newest
}
