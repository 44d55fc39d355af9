package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/moodscope/internal/clients/kafka_client"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/spacesedan/moodscope/internal/utils"
)

const flushRetries = 3

type MessageSource interface {
	Next() (*kafka.Message, error)
}

type Committer interface {
	Commit(msg *kafka.Message) error
}

// PostWriter persists a batch of dataset posts.
type PostWriter interface {
	PutPosts(ctx context.Context, posts []models.DatasetPost) error
}

// DatasetConsumer moves scraped posts from Kafka into the dataset table.
// Offsets are committed only after the posts they cover have been written.
type DatasetConsumer struct {
	writer     PostWriter
	buffer     *utils.BatchBuffer[models.DatasetPost]
	flushEvery time.Duration
	retryDelay time.Duration

	// newest uncommitted message per partition
	pending  map[int32]*kafka.Message
	lastSave time.Time
}

func NewDatasetConsumer(writer PostWriter) *DatasetConsumer {
	return &DatasetConsumer{
		writer:     writer,
		buffer:     utils.NewBatchBuffer[models.DatasetPost](),
		flushEvery: utils.BATCH_TIMEOUT,
		retryDelay: kafka_client.RETRY_DELAY,
		pending:    make(map[int32]*kafka.Message),
	}
}

// Handler adapts the consumer to the kafka_client registry.
func (dc *DatasetConsumer) Handler() kafka_client.ConsumerFunc {
	return func(ctx context.Context, consumer *kafka.Consumer) error {
		return dc.Consume(ctx,
			kafka_client.NewKafkaMessageIterator(ctx, consumer),
			kafka_client.NewCommitHandler(ctx, consumer))
	}
}

// Consume reads until ctx is cancelled. Buffered posts are flushed when the
// buffer fills or when flushEvery passes without a flush. A write that keeps
// failing stops the consumer so uncommitted messages are redelivered.
func (dc *DatasetConsumer) Consume(ctx context.Context, src MessageSource, committer Committer) error {
	slog.Info("[DatasetConsumer] Listening for messages...")
	dc.lastSave = time.Now()

	for {
		msg, err := src.Next()
		switch {
		case err == nil:
			if dc.add(msg) {
				if err := dc.flush(ctx, committer); err != nil {
					return err
				}
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			slog.Warn("[DatasetConsumer] Stopping consumer...",
				slog.Int("unflushed", dc.buffer.Size()))
			return nil
		case errors.Is(err, kafka_client.ErrNoMessage):
		default:
			return fmt.Errorf("[DatasetConsumer] failed to read message: %w", err)
		}

		if len(dc.pending) > 0 && time.Since(dc.lastSave) >= dc.flushEvery {
			if err := dc.flush(ctx, committer); err != nil {
				return err
			}
		}
	}
}

// add buffers msg and reports whether the batch is full. Messages that do
// not decode are still tracked so their offsets get committed.
func (dc *DatasetConsumer) add(msg *kafka.Message) bool {
	dc.pending[msg.TopicPartition.Partition] = msg

	var post models.DatasetPost
	if err := json.Unmarshal(msg.Value, &post); err != nil {
		slog.Warn("[DatasetConsumer] Skipping undecodable message",
			slog.String("offset", msg.TopicPartition.Offset.String()),
			slog.String("error", err.Error()))
		return false
	}
	if post.PostID == "" || models.AuthorKey(post.Author) == "" {
		slog.Warn("[DatasetConsumer] Skipping post without id or author",
			slog.String("offset", msg.TopicPartition.Offset.String()))
		return false
	}
	return dc.buffer.Add(post)
}

func (dc *DatasetConsumer) flush(ctx context.Context, committer Committer) error {
	if batch := dc.buffer.Peek(); len(batch) > 0 {
		dc.buffer.LogBatchProcessing("dataset_posts")
		if err := dc.write(ctx, batch); err != nil {
			return err
		}
		dc.buffer.GetAndClear()
	}
	dc.lastSave = time.Now()

	for partition, msg := range dc.pending {
		if err := committer.Commit(msg); err != nil {
			slog.Warn("[DatasetConsumer] Failed to commit offset",
				slog.Int("partition", int(partition)),
				slog.String("error", err.Error()))
			continue
		}
		delete(dc.pending, partition)
	}
	return nil
}

func (dc *DatasetConsumer) write(ctx context.Context, batch []models.DatasetPost) error {
	var err error
	for attempt := 1; attempt <= flushRetries; attempt++ {
		if err = dc.writer.PutPosts(ctx, batch); err == nil {
			return nil
		}
		slog.Warn("[DatasetConsumer] Batch write failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dc.retryDelay):
		}
	}
	return fmt.Errorf("[DatasetConsumer] failed to write %d posts: %w", len(batch), err)
}
