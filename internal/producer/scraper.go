package producer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spacesedan/moodscope/internal/clients/kafka_client"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/spacesedan/moodscope/internal/sentiment"
)

const (
	// SCRAPE_LIMIT is how many of the newest posts are read per subreddit.
	SCRAPE_LIMIT = 100
	seenSource   = "reddit"
)

var DefaultSubreddits = []string{"mentalhealth", "depression", "anxiety", "offmychest"}

type SubmissionSource interface {
	FetchSubredditNew(ctx context.Context, subreddit string, limit int) ([]models.RedditAPIChildData, error)
}

// SeenTracker remembers post ids already published.
type SeenTracker interface {
	IsPostProcessed(ctx context.Context, source, key string) bool
	MarkProcessed(ctx context.Context, source, key string) error
}

type Publisher interface {
	PublishBatch(ctx context.Context, topic string, records []kafka_client.Record) error
}

type Scraper struct {
	source     SubmissionSource
	seen       SeenTracker
	publisher  Publisher
	subreddits []string
	topic      string
	limit      int
	now        func() time.Time
}

func NewScraper(source SubmissionSource, seen SeenTracker, publisher Publisher, subreddits []string) *Scraper {
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}
	return &Scraper{
		source:     source,
		seen:       seen,
		publisher:  publisher,
		subreddits: subreddits,
		topic:      kafka_client.KAFKA_TOPIC_PATIENT_POSTS,
		limit:      SCRAPE_LIMIT,
		now:        time.Now,
	}
}

// Run scrapes immediately and then on every interval until ctx is cancelled.
func (s *Scraper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.scrapeAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			slog.Info("[Scraper] Stopping scraper")
			return
		case <-ticker.C:
			s.scrapeAndLog(ctx)
		}
	}
}

func (s *Scraper) scrapeAndLog(ctx context.Context) {
	n, err := s.ScrapeOnce(ctx)
	if err != nil {
		slog.Error("[Scraper] Scrape finished with errors",
			slog.Int("published", n),
			slog.String("error", err.Error()))
		return
	}
	slog.Info("[Scraper] Scrape finished", slog.Int("published", n))
}

// ScrapeOnce publishes every unseen post from the configured subreddits.
// A failing subreddit does not stop the others; the first error is returned.
func (s *Scraper) ScrapeOnce(ctx context.Context) (int, error) {
	var (
		total    int
		firstErr error
	)
	for _, sub := range s.subreddits {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.scrapeSubreddit(ctx, sub)
		total += n
		if err != nil {
			slog.Warn("[Scraper] Subreddit scrape failed",
				slog.String("subreddit", sub),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return total, firstErr
}

func (s *Scraper) scrapeSubreddit(ctx context.Context, sub string) (int, error) {
	children, err := s.source.FetchSubredditNew(ctx, sub, s.limit)
	if err != nil {
		return 0, fmt.Errorf("[Scraper] failed to fetch r/%s: %w", sub, err)
	}

	scrapedAt := s.now().UTC()
	records := make([]kafka_client.Record, 0, len(children))
	for _, c := range children {
		if skipSubmission(c) || s.seen.IsPostProcessed(ctx, seenSource, c.ID) {
			continue
		}
		post := ToDatasetPost(c, scrapedAt)
		records = append(records, kafka_client.Record{Key: post.PostID, Value: post})
	}

	if len(records) == 0 {
		slog.Debug("[Scraper] No new posts", slog.String("subreddit", sub))
		return 0, nil
	}

	if err := s.publisher.PublishBatch(ctx, s.topic, records); err != nil {
		return 0, fmt.Errorf("[Scraper] failed to publish r/%s: %w", sub, err)
	}

	for _, r := range records {
		if err := s.seen.MarkProcessed(ctx, seenSource, r.Key); err != nil {
			slog.Warn("[Scraper] Failed to mark post processed",
				slog.String("post_id", r.Key),
				slog.String("error", err.Error()))
		}
	}

	slog.Info("[Scraper] Published posts",
		slog.String("subreddit", sub),
		slog.Int("count", len(records)))
	return len(records), nil
}

// ToDatasetPost scores a submission and shapes it for the dataset table.
func ToDatasetPost(c models.RedditAPIChildData, scrapedAt time.Time) models.DatasetPost {
	text := sentiment.PrepareText(c.Title, c.Selftext)
	return models.DatasetPost{
		AuthorKey:     models.AuthorKey(c.Author),
		PostID:        c.ID,
		Author:        c.Author,
		Subreddit:     c.Subreddit,
		Title:         c.Title,
		Text:          text,
		CreatedUTC:    int64(c.CreatedUTC),
		VaderCompound: sentiment.ScorePolarity(text).Compound,
		ScrapedAt:     scrapedAt,
	}
}

// skipSubmission drops posts without an id or an attributable author.
func skipSubmission(c models.RedditAPIChildData) bool {
	author := strings.TrimSpace(c.Author)
	return c.ID == "" || author == "" || author == "[deleted]" || author == "AutoModerator"
}
