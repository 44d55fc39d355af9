package producer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spacesedan/moodscope/internal/clients/kafka_client"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	bySub map[string][]models.RedditAPIChildData
	err   map[string]error
}

func (f *fakeSource) FetchSubredditNew(_ context.Context, sub string, _ int) ([]models.RedditAPIChildData, error) {
	if err := f.err[sub]; err != nil {
		return nil, err
	}
	return f.bySub[sub], nil
}

type memorySeen struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemorySeen(ids ...string) *memorySeen {
	m := &memorySeen{seen: map[string]bool{}}
	for _, id := range ids {
		m.seen[id] = true
	}
	return m
}

func (m *memorySeen) IsPostProcessed(_ context.Context, _, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seen[key]
}

func (m *memorySeen) MarkProcessed(_ context.Context, _, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[key] = true
	return nil
}

type recordingPublisher struct {
	topics  []string
	batches [][]kafka_client.Record
	err     error
}

func (p *recordingPublisher) PublishBatch(_ context.Context, topic string, records []kafka_client.Record) error {
	if p.err != nil {
		return p.err
	}
	p.topics = append(p.topics, topic)
	p.batches = append(p.batches, records)
	return nil
}

func submission(id, author, title, body string) models.RedditAPIChildData {
	return models.RedditAPIChildData{
		ID: id, Author: author, Title: title, Selftext: body,
		Subreddit: "depression", CreatedUTC: 1716200000,
	}
}

func TestScrapeOncePublishesUnseenPosts(t *testing.T) {
	src := &fakeSource{bySub: map[string][]models.RedditAPIChildData{
		"depression": {
			submission("a1", "Alice", "Feeling low", "I am so **sad** today"),
			submission("a2", "[deleted]", "gone", ""),
			submission("a3", "Bob", "Old post", "seen already"),
			submission("a4", "AutoModerator", "rules", "read the rules"),
		},
	}}
	seen := newMemorySeen("a3")
	pub := &recordingPublisher{}

	s := NewScraper(src, seen, pub, []string{"depression"})
	fixed := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.ScrapeOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, pub.batches, 1)
	assert.Equal(t, []string{kafka_client.KAFKA_TOPIC_PATIENT_POSTS}, pub.topics)

	rec := pub.batches[0][0]
	assert.Equal(t, "a1", rec.Key)
	post := rec.Value.(models.DatasetPost)
	assert.Equal(t, "alice", post.AuthorKey)
	assert.Equal(t, "feeling low i am so sad today", post.Text)
	assert.Less(t, post.VaderCompound, 0.0)
	assert.Equal(t, fixed, post.ScrapedAt)
	assert.EqualValues(t, 1716200000, post.CreatedUTC)

	assert.True(t, seen.IsPostProcessed(context.Background(), seenSource, "a1"))

	n, err = s.ScrapeOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n, "second pass finds nothing new")
	assert.Len(t, pub.batches, 1)
}

func TestScrapeOnceContinuesPastFailingSubreddit(t *testing.T) {
	boom := errors.New("boom")
	src := &fakeSource{
		bySub: map[string][]models.RedditAPIChildData{
			"anxiety": {submission("b1", "carol", "panic", "racing heart")},
		},
		err: map[string]error{"depression": boom},
	}
	pub := &recordingPublisher{}
	s := NewScraper(src, newMemorySeen(), pub, []string{"depression", "anxiety"})

	n, err := s.ScrapeOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Len(t, pub.batches, 1)
}

func TestScrapeOnceLeavesPostsUnseenWhenPublishFails(t *testing.T) {
	src := &fakeSource{bySub: map[string][]models.RedditAPIChildData{
		"depression": {submission("c1", "dave", "t", "b")},
	}}
	seen := newMemorySeen()
	boom := errors.New("broker down")
	s := NewScraper(src, seen, &recordingPublisher{err: boom}, []string{"depression"})

	n, err := s.ScrapeOnce(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, n)
	assert.False(t, seen.IsPostProcessed(context.Background(), seenSource, "c1"))
}

func TestNewScraperDefaultsSubreddits(t *testing.T) {
	s := NewScraper(&fakeSource{}, newMemorySeen(), &recordingPublisher{}, nil)
	assert.Equal(t, DefaultSubreddits, s.subreddits)
}
