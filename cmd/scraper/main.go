package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/moodscope/config"
	"github.com/spacesedan/moodscope/internal/clients"
	"github.com/spacesedan/moodscope/internal/clients/kafka_client"
	"github.com/spacesedan/moodscope/internal/logging"
	"github.com/spacesedan/moodscope/internal/producer"
)

func main() {
	config.LoadEnv(config.AppEnv())
	logging.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := kafka_client.GetKafkaConfig()

	var publisher *kafka_client.Producer
	for {
		p, err := kafka_client.NewProducer(cfg)
		if err == nil {
			publisher = p
			break
		}
		slog.Warn("[Main] Kafka init failed, retrying...", slog.String("error", err.Error()))

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
	defer publisher.Close()

	vc := clients.InitValkey()
	defer clients.CloseValkey()

	subreddits := config.GetEnvList("SCRAPE_SUBREDDITS", producer.DefaultSubreddits)
	interval := config.GetEnvDuration("SCRAPE_INTERVAL", 30*time.Minute)

	slog.Info("[Main] Starting scraper",
		slog.Any("subreddits", subreddits),
		slog.Duration("interval", interval))

	producer.NewScraper(clients.GetRedditClient(), vc, publisher, subreddits).Run(ctx, interval)

	slog.Info("[Main] Shutting down scraper gracefully...")
}
