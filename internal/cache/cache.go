package cache

import (
	"context"
	"time"

	"github.com/spacesedan/moodscope/internal/models"
)

const DefaultTTL = 6 * time.Hour

// Entry is a user's fetched posts and when they were fetched.
type Entry struct {
	FetchedAt time.Time     `json:"fetched_at"`
	Posts     []models.Post `json:"posts"`
}

// PostCache keeps the most recent fetch per username. Keys are
// case-insensitive.
type PostCache interface {
	Get(ctx context.Context, username string) (Entry, bool, error)
	Set(ctx context.Context, username string, posts []models.Post) error
}

func cacheKey(username string) string {
	return models.AuthorKey(username)
}
