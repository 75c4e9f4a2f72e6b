// Command worker consumes accepted-article events and backfills summaries
// via the Cohere API. It runs alongside the main ingestion service and can
// be scaled independently.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"marketbrief/config"
	"marketbrief/kafka"
	"marketbrief/store"
	"marketbrief/summarize"
	"marketbrief/types"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	if !cfg.Kafka.Enabled() {
		log.Fatal("KAFKA_BROKERS is required for the summary worker")
	}
	if cfg.Cohere.APIKey == "" {
		log.Fatal("COHERE_API_KEY is required for the summary worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := store.NewPostgres(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pg.Close()

	summarizer := summarize.NewCohereSummarizer(cfg.Cohere)

	handler := &kafka.TypedMessageHandler[types.ClassifiedArticle]{
		Validate: func(msg *types.ClassifiedArticle) bool {
			if msg.ID == "" {
				log.Printf("Warning: article event missing ID, skipping")
				return false
			}
			return true
		},
		Process: func(ctx context.Context, msg *types.ClassifiedArticle) error {
			summary, err := summarizer.Summarize(ctx, msg.Title, msg.Content)
			if err != nil {
				return err
			}
			if err := pg.SetSummary(ctx, msg.ID, summary); err != nil {
				return err
			}
			log.Printf("Summarized article %s (%s)", msg.ID, msg.Title)
			return nil
		},
		AlwaysMark: true, // Skip malformed events rather than looping on them
	}

	consumer, err := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
		Handler: handler,
	})
	if err != nil {
		log.Fatalf("Failed to create Kafka consumer: %v", err)
	}
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("Failed to start Kafka consumer: %v", err)
	}

	<-ctx.Done()
	log.Println("Summary worker shutting down")
}
