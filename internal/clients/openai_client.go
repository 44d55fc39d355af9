package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spacesedan/moodscope/config"
)

const openAIRequestTimeout = 60 * time.Second

var (
	openAIClientInstance *OpenAIClient
	openAIOnce           sync.Once
)

type OpenAIClient struct {
	Client *openai.Client
	Model  openai.EmbeddingModel
}

// GetOpenAIClient returns the embedding client. It panics when
// OPENAI_API_KEY is missing.
func GetOpenAIClient() *OpenAIClient {
	apiKey := config.GetEnv("OPENAI_API_KEY", "")
	if apiKey == "" {
		slog.Error("[OpenAIClient] Missing OPENAI_API_KEY in environment variables")
		panic("[OpenAIClient] Missing OPENAI_API_KEY in environment variables")
	}
	openAIOnce.Do(func() {
		openAIClientInstance = &OpenAIClient{
			Client: openai.NewClient(
				option.WithAPIKey(apiKey),
				option.WithHTTPClient(&http.Client{Timeout: openAIRequestTimeout}),
			),
			Model: openai.EmbeddingModelTextEmbedding3Small,
		}
		slog.Info("[OpenAIClient] OpenAI client initialized", slog.Duration("timeout", openAIRequestTimeout))
	})
	return openAIClientInstance
}

// Embed returns one embedding per text, in input order.
func (o *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	resp, err := o.Client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.F[openai.EmbeddingNewParamsInputUnion](openai.EmbeddingNewParamsInputArrayOfStrings(texts)),
		Model: openai.F(o.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("[OpenAIClient] embeddings request failed: %w", err)
	}

	vectors := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(vectors) {
			return nil, fmt.Errorf("[OpenAIClient] embedding index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
