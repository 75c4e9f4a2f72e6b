package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"marketbrief/types"
)

// Producer publishes accepted-article events for downstream workers.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
}

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// NewProducer creates a synchronous producer. Sends are acknowledged by all
// in-sync replicas before returning.
func NewProducer(config ProducerConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create Kafka producer: %w", err)
	}

	return &Producer{producer: producer, topic: config.Topic}, nil
}

// PublishAccepted emits one accepted article keyed by its ID.
func (p *Producer) PublishAccepted(_ context.Context, article types.ClassifiedArticle) error {
	payload, err := json.Marshal(article)
	if err != nil {
		return fmt.Errorf("encode article %s: %w", article.ID, err)
	}

	_, _, err = p.producer.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(article.ID),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		return fmt.Errorf("send article %s: %w", article.ID, err)
	}
	return nil
}

// Close flushes and shuts down the producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}
