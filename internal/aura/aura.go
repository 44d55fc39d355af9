package aura

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spacesedan/moodscope/internal/models"
)

const (
	Clusters = 6
	// MaxTexts bounds how many posts the patient view embeds.
	MaxTexts    = 60
	fallbackIdx = 2
	seed        = 42
	restarts    = 10
)

var auraMap = [Clusters]models.Aura{
	{Aura: "🌿 Calm Green", Description: "Reflective and grounded. You often express thoughtfulness."},
	{Aura: "🔥 Radiant Orange", Description: "Energetic and expressive. Your posts show high engagement."},
	{Aura: "🌊 Tranquil Blue", Description: "Balanced and introspective. Calm tone with positive reflections."},
	{Aura: "🌪️ Stormy Gray", Description: "You've shared signs of stress or emotional intensity recently."},
	{Aura: "🌸 Blossom Pink", Description: "Compassionate and emotionally aware. Empathetic tone detected."},
	{Aura: "🌞 Bright Yellow", Description: "Optimistic and uplifting. Your tone reflects positivity."},
}

// Default is the aura used whenever clustering cannot run.
func Default() models.Aura {
	return auraMap[fallbackIdx]
}

// Embedder turns texts into dense sentence vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

type Analyzer struct {
	embedder Embedder
	kmeans   KMeans
}

func NewAnalyzer(embedder Embedder) *Analyzer {
	return &Analyzer{
		embedder: embedder,
		kmeans:   KMeans{K: Clusters, Restarts: restarts, Seed: seed},
	}
}

// Analyze embeds the non-blank texts, clusters them into six groups and maps
// the majority cluster onto an aura. Empty input yields the default aura; an
// embedding failure yields the default aura and the error.
func (a *Analyzer) Analyze(ctx context.Context, texts []string) (models.Aura, error) {
	var kept []string
	for _, t := range texts {
		if strings.TrimSpace(t) != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return Default(), nil
	}

	vectors, err := a.embedder.Embed(ctx, kept)
	if err != nil {
		return Default(), fmt.Errorf("[Aura] embedding failed: %w", err)
	}
	if len(vectors) != len(kept) {
		return Default(), fmt.Errorf("[Aura] expected %d embeddings, got %d", len(kept), len(vectors))
	}
	if len(vectors) < Clusters {
		slog.Debug("[Aura] Too few posts to cluster, using default aura",
			slog.Int("posts", len(vectors)))
		return Default(), nil
	}

	labels := a.kmeans.FitPredict(vectors)
	return auraMap[MajorityLabel(labels)], nil
}
