package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/moodscope/internal/aura"
	"github.com/spacesedan/moodscope/internal/cache"
	"github.com/spacesedan/moodscope/internal/forecast"
	"github.com/spacesedan/moodscope/internal/insights"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/spacesedan/moodscope/internal/sentiment"
)

// Dashboard serves the per-user views over the posts cached by Fetch.
type Dashboard struct {
	fetcher    PostFetcher
	cache      cache.PostCache
	classifier insights.EmotionClassifier
	aura       AuraAnalyzer
	forecaster forecast.Forecaster
	lexicon    *insights.Lexicon
	now        func() time.Time
}

func NewDashboard(fetcher PostFetcher, c cache.PostCache, classifier insights.EmotionClassifier,
	analyzer AuraAnalyzer, forecaster forecast.Forecaster, lexicon *insights.Lexicon) *Dashboard {
	if lexicon == nil {
		lexicon = insights.DefaultLexicon()
	}
	return &Dashboard{
		fetcher:    fetcher,
		cache:      c,
		classifier: classifier,
		aura:       analyzer,
		forecaster: forecaster,
		lexicon:    lexicon,
		now:        time.Now,
	}
}

// Fetch pulls the user's newest submissions and replaces the cached copy.
func (d *Dashboard) Fetch(ctx context.Context, username string) (int, error) {
	raw, err := d.fetcher.FetchUserSubmissions(ctx, username, FetchLimit)
	if err != nil {
		return 0, err
	}

	posts := make([]models.Post, 0, len(raw))
	for _, r := range raw {
		posts = append(posts, sentiment.PostFromSubmission(r))
	}
	if err := d.cache.Set(ctx, username, posts); err != nil {
		return 0, fmt.Errorf("[Dashboard] failed to cache posts for %s: %w", username, err)
	}

	slog.Info("[Dashboard] Cached user posts",
		slog.String("username", username),
		slog.Int("count", len(posts)))
	return len(posts), nil
}

// Posts returns the cached posts for username, empty when nothing was
// fetched yet.
func (d *Dashboard) Posts(ctx context.Context, username string) ([]models.Post, error) {
	entry, ok, err := d.cache.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return entry.Posts, nil
}

func (d *Dashboard) MoodTrend(ctx context.Context, username string, days int) ([]models.DailyMoodPoint, error) {
	posts, err := d.Posts(ctx, username)
	if err != nil {
		return nil, err
	}
	return sentiment.DailyMood(sentiment.ScorePosts(posts), days, d.now()), nil
}

func (d *Dashboard) Aura(ctx context.Context, username string) (models.Aura, error) {
	posts, err := d.Posts(ctx, username)
	if err != nil {
		return aura.Default(), err
	}
	return d.aura.Analyze(ctx, sentiment.PostTexts(posts))
}

// Emotions averages classifier shares over the first MaxEmotionPosts posts.
func (d *Dashboard) Emotions(ctx context.Context, username string) (models.EmotionDistribution, error) {
	empty := models.EmotionDistribution{Emotions: map[string]float64{}}
	posts, err := d.Posts(ctx, username)
	if err != nil {
		return empty, err
	}
	texts := sentiment.PostTexts(posts)
	if len(texts) > MaxEmotionPosts {
		texts = texts[:MaxEmotionPosts]
	}
	perPost, err := insights.ClassifyTexts(ctx, d.classifier, texts)
	if err != nil {
		return empty, err
	}
	return insights.EmotionDistribution(perPost), nil
}

// Forecast projects the next week from the default mood window.
func (d *Dashboard) Forecast(ctx context.Context, username string) (models.MoodForecast, error) {
	daily, err := d.MoodTrend(ctx, username, sentiment.DefaultWindowDays)
	if err != nil {
		return insights.InsufficientForecast(), err
	}
	return forecast.ForecastMood(d.forecaster, daily)
}

func (d *Dashboard) Personality(ctx context.Context, username string) (models.PersonalityProfile, error) {
	posts, err := d.Posts(ctx, username)
	if err != nil {
		return models.PersonalityProfile{}, err
	}
	return d.lexicon.EstimatePersonality(sentiment.PostTexts(posts)), nil
}
