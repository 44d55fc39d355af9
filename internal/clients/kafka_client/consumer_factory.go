package kafka_client

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// ConsumerFunc drains messages until ctx is cancelled.
type ConsumerFunc func(ctx context.Context, consumer *kafka.Consumer) error

var consumerRegistry = make(map[string]ConsumerFunc)

func RegisterConsumer(topic string, fn ConsumerFunc) {
	consumerRegistry[topic] = fn
}

// StartConsumer runs the consumer registered for cfg.Topic.
func StartConsumer(ctx context.Context, cfg KafkaConfig) error {
	fn, exists := consumerRegistry[cfg.Topic]
	if !exists {
		return fmt.Errorf("[ConsumerFactory] No consumer found for topic: %s", cfg.Topic)
	}

	consumer, err := NewConsumer(cfg)
	if err != nil {
		return fmt.Errorf("[ConsumerFactory] Failed to initialize Kafka consumer: %w", err)
	}
	defer consumer.Close()

	slog.Info("[ConsumerFactory] Starting consumer for topic...", slog.String("topic", cfg.Topic))
	return fn(ctx, consumer)
}
