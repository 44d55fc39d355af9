package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spacesedan/moodscope/config"
	"github.com/spacesedan/moodscope/internal/aura"
	"github.com/spacesedan/moodscope/internal/cache"
	"github.com/spacesedan/moodscope/internal/clients"
	"github.com/spacesedan/moodscope/internal/db"
	"github.com/spacesedan/moodscope/internal/forecast"
	"github.com/spacesedan/moodscope/internal/insights"
	"github.com/spacesedan/moodscope/internal/logging"
	"github.com/spacesedan/moodscope/internal/monitoring"
	"github.com/spacesedan/moodscope/internal/server"
	"github.com/spacesedan/moodscope/internal/service"
)

func main() {
	config.LoadEnv(config.AppEnv())
	logging.InitLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lexicon, err := insights.LoadLexicon(config.GetEnv("LEXICON_PATH", ""))
	if err != nil {
		slog.Error("[Main] Failed to load lexicon", slog.String("error", err.Error()))
		os.Exit(1)
	}

	hugotCfg := clients.HugotConfigFromEnv()
	hc, err := clients.NewHugotClient(hugotCfg)
	if err != nil {
		slog.Error("[Main] Failed to initialize models", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer hc.Close()

	var embedder aura.Embedder = hc
	if !hugotCfg.WithEmbedder {
		embedder = clients.GetOpenAIClient()
	}
	analyzer := aura.NewAnalyzer(embedder)

	health := monitoring.NewHealth()
	var postCache cache.PostCache
	ttl := config.GetEnvDuration("CACHE_TTL", cache.DefaultTTL)
	switch config.GetEnv("CACHE_BACKEND", "memory") {
	case "valkey":
		vc := clients.InitValkey()
		defer clients.CloseValkey()
		go monitoring.MonitorValkeyHealth(ctx, vc, health.Register("valkey"))
		postCache = cache.NewValkeyPostCache(vc, ttl)
	default:
		mc := cache.NewMemoryPostCache(ttl, time.Minute)
		defer mc.Close()
		postCache = mc
	}

	reddit := clients.GetRedditClient()
	store := db.NewDatasetStore(clients.GetDynamoDBClient(), config.GetEnv("DATASET_TABLE", db.DATASET_TABLE_NAME))

	dashboard := service.NewDashboard(reddit, postCache, hc, analyzer, forecast.NewLinearForecaster(), lexicon)
	therapist := service.NewTherapist(store, reddit, hc, analyzer, lexicon)

	srv := &http.Server{
		Addr:              config.GetEnv("HTTP_ADDR", ":8080"),
		Handler:           server.New(dashboard, therapist, health).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("[Main] HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("[Main] HTTP server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("[Main] Shutting down web server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("[Main] Graceful shutdown failed", slog.String("error", err.Error()))
	}
}
