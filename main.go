package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"marketbrief/api"
	"marketbrief/cache"
	"marketbrief/config"
	"marketbrief/dedup"
	"marketbrief/extract"
	"marketbrief/feed"
	"marketbrief/kafka"
	"marketbrief/pipeline"
	"marketbrief/store"
)

func main() {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx := context.Background()

	pg, err := store.NewPostgres(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	var fastCache cache.Cache
	if rc, err := cache.NewRedis(cfg.Redis); err != nil {
		log.Printf("Warning: Redis unavailable, using in-process cache: %v", err)
		fastCache = cache.NewMemory()
	} else {
		defer rc.Close()
		fastCache = rc
	}

	history := dedup.NewHistoryStore(fastCache, cfg.Pipeline.HistoryCap)

	var source feed.Source
	switch cfg.Feed.Mode {
	case "rss":
		source = feed.NewRSSSource(cfg.Feed.URL)
	default:
		source = feed.NewStreamSource(nil, cfg.Feed.URL)
	}

	opts := []pipeline.Option{
		pipeline.WithExtractor(extract.NewReadabilityExtractor(0)),
	}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			log.Fatalf("Failed to create Kafka producer: %v", err)
		}
		defer producer.Close()
		opts = append(opts, pipeline.WithPublisher(producer))
		log.Printf("Kafka publishing enabled (topic: %s)", cfg.Kafka.Topic)
	}

	if cfg.S3.Bucket != "" {
		archiver, err := store.NewArchiver(ctx, cfg.S3)
		if err != nil {
			log.Printf("Warning: S3 archiving disabled: %v", err)
		} else {
			opts = append(opts, pipeline.WithArchiver(archiver))
			log.Printf("S3 archiving enabled (bucket: %s)", cfg.S3.Bucket)
		}
	}

	p := pipeline.New(source, history, pg, fastCache, cfg.Pipeline, opts...)

	go runScheduler(ctx, p, cfg.Pipeline.PollInterval)

	r := api.NewRouter(p, pg)
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s", addr)
	log.Println("API endpoints available:")
	log.Println("  GET  /api/health")
	log.Println("  POST /api/ingestion/run")
	log.Println("  GET  /api/ingestion/status")
	log.Println("  GET  /api/articles/recent")

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// runScheduler triggers an ingestion pass immediately and then on every
// tick. An overlapping trigger is a no-op.
func runScheduler(ctx context.Context, p *pipeline.Pipeline, interval time.Duration) {
	run := func() {
		if err := p.Run(ctx, false); err != nil {
			if errors.Is(err, pipeline.ErrAlreadyRunning) {
				log.Println("Skipping scheduled pass: previous pass still running")
				return
			}
			log.Printf("Warning: scheduled ingestion pass failed: %v", err)
		}
	}

	run()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			run()
		case <-ctx.Done():
			return
		}
	}
}
