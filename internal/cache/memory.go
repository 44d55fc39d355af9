package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/spacesedan/moodscope/internal/models"
)

type MemoryPostCache struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewMemoryPostCache starts a janitor that evicts expired entries every
// sweep interval. Call Close to stop it.
func NewMemoryPostCache(ttl, sweep time.Duration) *MemoryPostCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if sweep <= 0 {
		sweep = ttl
	}
	c := &MemoryPostCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.janitor(sweep)
	return c
}

func (c *MemoryPostCache) Get(_ context.Context, username string) (Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(username)]
	if !ok || c.expired(e) {
		return Entry{}, false, nil
	}
	return e, true, nil
}

func (c *MemoryPostCache) Set(_ context.Context, username string, posts []models.Post) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(username)] = Entry{
		FetchedAt: c.now(),
		Posts:     append([]models.Post(nil), posts...),
	}
	return nil
}

func (c *MemoryPostCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryPostCache) Close() {
	c.once.Do(func() {
		close(c.stop)
		<-c.done
	})
}

func (c *MemoryPostCache) expired(e Entry) bool {
	return c.now().Sub(e.FetchedAt) > c.ttl
}

func (c *MemoryPostCache) janitor(sweep time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(sweep)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *MemoryPostCache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Debug("[MemoryCache] Evicted expired entries", slog.Int("count", evicted))
	}
}
