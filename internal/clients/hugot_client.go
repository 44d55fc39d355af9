package clients

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/spacesedan/moodscope/config"
	"github.com/spacesedan/moodscope/internal/metrics"
	"github.com/spacesedan/moodscope/internal/models"
)

const (
	DEFAULT_EMOTION_MODEL   = "j-hartmann/emotion-english-distilroberta-base"
	DEFAULT_EMBEDDING_MODEL = "KnightsAnalytics/all-MiniLM-L6-v2"
)

type HugotConfig struct {
	ModelDir       string
	EmotionModel   string
	EmbeddingModel string
	// WithEmbedder loads the sentence embedding pipeline as well.
	WithEmbedder bool
}

func HugotConfigFromEnv() HugotConfig {
	return HugotConfig{
		ModelDir:       config.GetEnv("MODEL_DIR", "./models"),
		EmotionModel:   config.GetEnv("EMOTION_MODEL", DEFAULT_EMOTION_MODEL),
		EmbeddingModel: config.GetEnv("EMBEDDING_MODEL", DEFAULT_EMBEDDING_MODEL),
		WithEmbedder:   config.GetEnv("EMBEDDING_PROVIDER", "hugot") == "hugot",
	}
}

// HugotClient runs the emotion classifier and sentence embedder locally on
// ONNX Runtime.
type HugotClient struct {
	session    *hugot.Session
	classifier *pipelines.TextClassificationPipeline
	embedder   *pipelines.FeatureExtractionPipeline
}

func NewHugotClient(cfg HugotConfig) (*HugotClient, error) {
	if err := os.MkdirAll(cfg.ModelDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("[HugotClient] failed to create model directory: %w", err)
	}

	session, err := hugot.NewORTSession()
	if err != nil {
		return nil, fmt.Errorf("[HugotClient] failed to initialize session: %w", err)
	}
	hc := &HugotClient{session: session}

	emotionPath, err := ensureModel(cfg.ModelDir, cfg.EmotionModel)
	if err != nil {
		hc.Close()
		return nil, err
	}
	hc.classifier, err = hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: emotionPath,
		Name:      "emotionPipeline",
		Options: []hugot.TextClassificationOption{
			pipelines.WithSoftmax(),
			pipelines.WithMultiLabel(),
		},
	})
	if err != nil {
		hc.Close()
		return nil, fmt.Errorf("[HugotClient] failed to initialize emotion pipeline: %w", err)
	}

	if cfg.WithEmbedder {
		embeddingPath, err := ensureModel(cfg.ModelDir, cfg.EmbeddingModel)
		if err != nil {
			hc.Close()
			return nil, err
		}
		hc.embedder, err = hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
			ModelPath: embeddingPath,
			Name:      "embeddingPipeline",
			Options: []hugot.FeatureExtractionOption{
				pipelines.WithNormalization(),
			},
		})
		if err != nil {
			hc.Close()
			return nil, fmt.Errorf("[HugotClient] failed to initialize embedding pipeline: %w", err)
		}
	}

	slog.Info("[HugotClient] Pipelines ready",
		slog.String("emotion_model", cfg.EmotionModel),
		slog.Bool("embedder", hc.embedder != nil))
	return hc, nil
}

// ensureModel downloads name into dir unless a copy already exists.
func ensureModel(dir, name string) (string, error) {
	local := filepath.Join(dir, strings.ReplaceAll(name, "/", "_"))
	if _, err := os.Stat(local); err == nil {
		slog.Info("[HugotClient] Using existing model", slog.String("path", local))
		return local, nil
	}

	slog.Info("[HugotClient] Model not found, downloading...", slog.String("model", name))
	path, err := hugot.DownloadModel(name, dir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("[HugotClient] failed to download %s: %w", name, err)
	}
	slog.Info("[HugotClient] Model downloaded successfully", slog.String("path", path))
	return path, nil
}

// Classify returns a score for every emotion label the model knows.
func (h *HugotClient) Classify(ctx context.Context, text string) ([]models.EmotionScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := h.classifier.RunPipeline([]string{text})
	metrics.ObserveClassifierDuration(start)
	if err != nil {
		return nil, fmt.Errorf("[HugotClient] classification failed: %w", err)
	}
	if len(out.ClassificationOutputs) == 0 {
		return nil, nil
	}

	scores := make([]models.EmotionScore, 0, len(out.ClassificationOutputs[0]))
	for _, c := range out.ClassificationOutputs[0] {
		scores = append(scores, models.EmotionScore{Label: c.Label, Score: float64(c.Score)})
	}
	return scores, nil
}

// Embed returns one normalized sentence vector per text.
func (h *HugotClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if h.embedder == nil {
		return nil, fmt.Errorf("[HugotClient] embedding pipeline is not loaded")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := h.embedder.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("[HugotClient] embedding failed: %w", err)
	}

	vectors := make([][]float64, len(out.Embeddings))
	for i, emb := range out.Embeddings {
		v := make([]float64, len(emb))
		for j, x := range emb {
			v[j] = float64(x)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (h *HugotClient) Close() {
	if h.session == nil {
		return
	}
	if err := h.session.Destroy(); err != nil {
		slog.Warn("[HugotClient] Failed to destroy session", slog.String("error", err.Error()))
	}
}
