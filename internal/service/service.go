package service

import (
	"context"

	"github.com/spacesedan/moodscope/internal/models"
)

const (
	// FetchLimit is how many submissions a live fetch requests.
	FetchLimit = 200
	// MaxEmotionPosts bounds the dashboard emotion distribution.
	MaxEmotionPosts = 40
)

// PostFetcher loads a user's newest submissions from Reddit.
type PostFetcher interface {
	FetchUserSubmissions(ctx context.Context, username string, limit int) ([]models.RedditAPIChildData, error)
}

// AuraAnalyzer maps texts onto an aura. On failure it still returns a usable
// aura together with the error.
type AuraAnalyzer interface {
	Analyze(ctx context.Context, texts []string) (models.Aura, error)
}

// DatasetReader reads the scraped therapist dataset.
type DatasetReader interface {
	AuthorPosts(ctx context.Context, author string) ([]models.DatasetPost, error)
	AuthorSummaries(ctx context.Context) ([]models.PatientSummary, error)
}
