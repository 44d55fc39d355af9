package cache

import (
	"context"
	"testing"
	"time"

	"github.com/spacesedan/moodscope/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMemoryPostCacheRoundTrip(t *testing.T) {
	c := NewMemoryPostCache(time.Hour, time.Hour)
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "someone")
	require.NoError(t, err)
	assert.False(t, ok)

	posts := []models.Post{{ID: "a"}, {ID: "b"}}
	require.NoError(t, c.Set(ctx, "SomeOne", posts))

	e, ok, err := c.Get(ctx, "someone")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, posts, e.Posts)

	posts[0].ID = "mutated"
	e, _, _ = c.Get(ctx, "someone")
	assert.Equal(t, "a", e.Posts[0].ID)
}

func TestMemoryPostCacheOverwrite(t *testing.T) {
	c := NewMemoryPostCache(time.Hour, time.Hour)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "u", []models.Post{{ID: "old"}}))
	require.NoError(t, c.Set(ctx, "u", []models.Post{{ID: "new"}}))

	e, ok, _ := c.Get(ctx, "u")
	require.True(t, ok)
	assert.Equal(t, "new", e.Posts[0].ID)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryPostCacheExpiry(t *testing.T) {
	c := NewMemoryPostCache(time.Minute, time.Hour)
	defer c.Close()
	ctx := context.Background()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	require.NoError(t, c.Set(ctx, "u", []models.Post{{ID: "a"}}))

	now = now.Add(2 * time.Minute)
	_, ok, _ := c.Get(ctx, "u")
	assert.False(t, ok)

	c.evictExpired()
	assert.Equal(t, 0, c.Len())
}

func TestMemoryPostCacheJanitorEvicts(t *testing.T) {
	c := NewMemoryPostCache(time.Millisecond, 5*time.Millisecond)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "u", nil))
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryPostCacheCloseIsIdempotent(t *testing.T) {
	c := NewMemoryPostCache(time.Hour, time.Hour)
	c.Close()
	c.Close()
}
