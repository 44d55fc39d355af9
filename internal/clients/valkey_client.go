package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spacesedan/moodscope/config"
	"github.com/valkey-io/valkey-go"
)

var (
	valkeyInstance *ValkeyClient
	valkeyOnce     sync.Once
)

type ValkeyClient struct {
	conn valkey.Client
	mu   sync.Mutex
}

const (
	VALKEY_SEEN_KEY_PREFIX = "moodscope:seen:"
	VALKEY_SEEN_TTL        = 24 * time.Hour
)

func valkeyOptions() valkey.ClientOption {
	opts := valkey.ClientOption{
		InitAddress:      []string{config.GetEnv("VALKEY_INIT_ADDRESS", "localhost:6379")},
		Password:         config.GetEnv("VALKEY_PASSWORD", ""),
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}
	if config.GetEnv("VALKEY_TLS", "false") == "true" {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}
	return opts
}

func connectValkey() (valkey.Client, error) {
	client, err := valkey.NewClient(valkeyOptions())
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}
	return client, nil
}

// InitValkey connects once and panics when Valkey is unreachable.
func InitValkey() *ValkeyClient {
	valkeyOnce.Do(func() {
		client, err := connectValkey()
		if err != nil {
			panic(err)
		}
		slog.Info("[ValkeyClient] Successfully connected to valkey")
		valkeyInstance = &ValkeyClient{conn: client}
	})
	return valkeyInstance
}

func (vc *ValkeyClient) recreateClient() {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")

	client, err := connectValkey()
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed", slog.String("error", err.Error()))
		return
	}
	vc.conn.Close()
	vc.conn = client
	slog.Info("[ValkeyClient] Successfully reconnected to valkey")
}

func (vc *ValkeyClient) client() valkey.Client {
	vc.mu.Lock()
	defer vc.mu.Unlock()
	return vc.conn
}

func CloseValkey() {
	if valkeyInstance != nil {
		valkeyInstance.client().Close()
	}
}

// NewValkeyClient wraps an already connected client.
func NewValkeyClient(c valkey.Client) *ValkeyClient {
	return &ValkeyClient{conn: c}
}

// Ping reports whether Valkey answers within the context deadline.
func (vc *ValkeyClient) Ping(ctx context.Context) bool {
	c := vc.client()
	return c.Do(ctx, c.B().Ping().Build()).Error() == nil
}

// MarkProcessed records a scraped post id in the per-source seen set.
func (vc *ValkeyClient) MarkProcessed(ctx context.Context, source string, key string) error {
	sourceKey := VALKEY_SEEN_KEY_PREFIX + source
	results := vc.DoMultiWithRetry(ctx, func(c valkey.Client) []valkey.Completed {
		return []valkey.Completed{
			c.B().Sadd().Key(sourceKey).Member(key).Build(),
			c.B().Expire().Key(sourceKey).Seconds(int64(VALKEY_SEEN_TTL.Seconds())).Build(),
		}
	}, 3)

	for _, res := range results {
		if err := res.Error(); err != nil {
			return fmt.Errorf("[ValkeyClient] failed to mark %s processed: %w", key, err)
		}
	}

	slog.Debug("[ValkeyClient] Marked post processed",
		slog.String("source", source),
		slog.String("key", key))
	return nil
}

func (vc *ValkeyClient) IsPostProcessed(ctx context.Context, source string, key string) bool {
	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Sismember().Key(VALKEY_SEEN_KEY_PREFIX + source).Member(key).Build()
	}, 3)

	ok, err := res.AsBool()
	if err != nil {
		return false
	}
	return ok
}

// DoMultiWithRetry retries the pipeline built by build. Commands are rebuilt
// on every attempt against the current client; valkey recycles a command once
// it has been sent.
func (vc *ValkeyClient) DoMultiWithRetry(ctx context.Context, build func(valkey.Client) []valkey.Completed, retries int) []valkey.ValkeyResult {
	var results []valkey.ValkeyResult

	for i := 0; i < retries; i++ {
		c := vc.client()
		results = c.DoMulti(ctx, build(c)...)
		hasErr := false
		for _, r := range results {
			if r.Error() != nil {
				hasErr = true
				slog.Warn("[ValkeyClient] Do Multi failed",
					slog.Int("attempt", i+1),
					slog.String("error", r.Error().Error()))
				if isConnectionError(r.Error()) {
					vc.recreateClient()
				}
				break
			}
		}
		if !hasErr {
			break
		}
		time.Sleep(time.Millisecond * 250)
	}

	return results
}

// DoWithRetry retries transient failures, rebuilding the command each
// attempt. A nil reply is not a failure.
func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func(valkey.Client) valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		c := vc.client()
		result = c.Do(ctx, build(c))
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
		if isConnectionError(err) {
			vc.recreateClient()
		}

		time.Sleep(250 * time.Millisecond)
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
