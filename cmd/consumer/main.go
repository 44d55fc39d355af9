package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spacesedan/moodscope/config"
	"github.com/spacesedan/moodscope/internal/clients"
	"github.com/spacesedan/moodscope/internal/clients/kafka_client"
	"github.com/spacesedan/moodscope/internal/consumers"
	"github.com/spacesedan/moodscope/internal/db"
	"github.com/spacesedan/moodscope/internal/logging"
)

func main() {
	config.LoadEnv(config.AppEnv())
	logging.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := kafka_client.GetKafkaConfig()
	store := db.NewDatasetStore(clients.GetDynamoDBClient(), config.GetEnv("DATASET_TABLE", db.DATASET_TABLE_NAME))

	kafka_client.RegisterConsumer(kafka_client.KAFKA_TOPIC_PATIENT_POSTS, consumers.NewDatasetConsumer(store).Handler())

	if err := kafka_client.StartConsumer(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("[Main] Consumer stopped with error",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("[Main] Consumer shut down")
}
