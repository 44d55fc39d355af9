package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spacesedan/moodscope/internal/aura"
	"github.com/spacesedan/moodscope/internal/models"
)

type fakeFetcher struct {
	mu    sync.Mutex
	posts map[string][]models.RedditAPIChildData
	err   error
	calls int
}

func (f *fakeFetcher) FetchUserSubmissions(_ context.Context, username string, limit int) ([]models.RedditAPIChildData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	posts := f.posts[username]
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// keywordClassifier labels text by the first keyword it contains.
type keywordClassifier struct {
	err error
}

func (k keywordClassifier) Classify(_ context.Context, text string) ([]models.EmotionScore, error) {
	if k.err != nil {
		return nil, k.err
	}
	switch {
	case strings.Contains(text, "sad"):
		return []models.EmotionScore{{Label: "sadness", Score: 0.9}, {Label: "neutral", Score: 0.1}}, nil
	case strings.Contains(text, "happy"):
		return []models.EmotionScore{{Label: "joy", Score: 0.8}, {Label: "neutral", Score: 0.2}}, nil
	default:
		return []models.EmotionScore{{Label: "neutral", Score: 1}}, nil
	}
}

type fakeAura struct {
	result models.Aura
	err    error
	got    []string
	mu     sync.Mutex
}

func (f *fakeAura) Analyze(_ context.Context, texts []string) (models.Aura, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = texts
	if f.err != nil {
		return aura.Default(), f.err
	}
	return f.result, nil
}

type fakeStore struct {
	posts     map[string][]models.DatasetPost
	summaries []models.PatientSummary
	err       error
}

func (f *fakeStore) AuthorPosts(_ context.Context, author string) ([]models.DatasetPost, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.posts[models.AuthorKey(author)], nil
}

func (f *fakeStore) AuthorSummaries(_ context.Context) ([]models.PatientSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summaries, nil
}

var errBoom = errors.New("boom")
