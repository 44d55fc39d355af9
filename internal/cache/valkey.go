package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/spacesedan/moodscope/internal/clients"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/valkey-io/valkey-go"
)

const valkeyKeyPrefix = "moodscope:posts:"

// ValkeyPostCache stores each entry as JSON under a key that expires after ttl.
type ValkeyPostCache struct {
	vc  *clients.ValkeyClient
	ttl time.Duration
}

func NewValkeyPostCache(vc *clients.ValkeyClient, ttl time.Duration) *ValkeyPostCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ValkeyPostCache{vc: vc, ttl: ttl}
}

func (c *ValkeyPostCache) Get(ctx context.Context, username string) (Entry, bool, error) {
	key := valkeyKeyPrefix + cacheKey(username)
	raw, err := c.vc.DoWithRetry(ctx, func(vk valkey.Client) valkey.Completed {
		return vk.B().Get().Key(key).Build()
	}, 3).AsBytes()
	if valkey.IsValkeyNil(err) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("[ValkeyCache] failed to get %s: %w", username, err)
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("[ValkeyCache] corrupt entry for %s: %w", username, err)
	}
	return e, true, nil
}

func (c *ValkeyPostCache) Set(ctx context.Context, username string, posts []models.Post) error {
	raw, err := json.Marshal(Entry{FetchedAt: time.Now().UTC(), Posts: posts})
	if err != nil {
		return fmt.Errorf("[ValkeyCache] failed to encode entry: %w", err)
	}

	key := valkeyKeyPrefix + cacheKey(username)
	err = c.vc.DoWithRetry(ctx, func(vk valkey.Client) valkey.Completed {
		return vk.B().Set().Key(key).Value(string(raw)).ExSeconds(expireSeconds(c.ttl)).Build()
	}, 3).Error()
	if err != nil {
		return fmt.Errorf("[ValkeyCache] failed to set %s: %w", username, err)
	}
	return nil
}

// expireSeconds rounds ttl up to whole seconds; EX rejects 0.
func expireSeconds(ttl time.Duration) int64 {
	secs := int64(math.Ceil(ttl.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
