package kafka_client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
)

// Record is one keyed message to publish.
type Record struct {
	Key   string
	Value any
}

type Producer struct {
	producer *kafka.Producer
}

func NewProducer(cfg KafkaConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...", slog.String("broker", cfg.Broker))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":                     cfg.Broker,
		"security.protocol":                     "PLAINTEXT",
		"api.version.request":                   "true",
		"enable.idempotence":                    true,
		"acks":                                  "all",
		"max.in.flight.requests.per.connection": 1,
		"transactional.id":                      cfg.TransactionalID,
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	if err := p.InitTransactions(context.Background()); err != nil {
		p.Close()
		return nil, fmt.Errorf("[KafkaClient] Failed to init transactions: %w", err)
	}

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return &Producer{producer: p}, nil
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(5000); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

// PublishBatch writes records to topic inside one transaction. Either every
// record becomes visible to read_committed consumers or none does.
func (p *Producer) PublishBatch(ctx context.Context, topic string, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := p.producer.BeginTransaction(); err != nil {
		return fmt.Errorf("[KafkaClient] failed to begin transaction: %w", err)
	}

	for _, r := range records {
		value, err := json.Marshal(r.Value)
		if err != nil {
			return p.abort(ctx, fmt.Errorf("[KafkaClient] failed to marshal record %s: %w", r.Key, err))
		}

		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
			Key:            []byte(r.Key),
			Value:          value,
		}
		for i := 0; i < 3; i++ {
			if err = p.producer.Produce(msg, nil); err == nil {
				break
			}
			slog.Warn("[KafkaClient] Failed to produce message, retrying...",
				slog.Int("attempt", i+1),
				slog.String("error", err.Error()))
		}
		if err != nil {
			return p.abort(ctx, fmt.Errorf("[KafkaClient] failed to produce record %s: %w", r.Key, err))
		}
	}

	var commitErr error
	for i := 0; i < 3; i++ {
		if commitErr = p.producer.CommitTransaction(ctx); commitErr == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to commit transaction, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", commitErr.Error()))
	}
	if commitErr != nil {
		return p.abort(ctx, fmt.Errorf("[KafkaClient] failed to commit transaction after 3 retries: %w", commitErr))
	}

	slog.Info("[KafkaClient] Published batch transactionally",
		slog.String("topic", topic),
		slog.Int("records", len(records)))
	return nil
}

func (p *Producer) abort(ctx context.Context, cause error) error {
	if err := p.producer.AbortTransaction(ctx); err != nil {
		return fmt.Errorf("%w (abort also failed: %v)", cause, err)
	}
	return cause
}
