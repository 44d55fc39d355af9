package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/spacesedan/moodscope/config"
	"github.com/spacesedan/moodscope/internal/metrics"
	"github.com/spacesedan/moodscope/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	REDDIT_AUTH_URL = "https://www.reddit.com/api/v1/access_token"
	REDDIT_API_URL  = "https://oauth.reddit.com"
	REDDIT_PAGE_MAX = 100
)

var (
	ErrUserNotFound = errors.New("reddit user not found")
	ErrRateLimited  = errors.New("reddit rate limit exceeded")
	ErrNetwork      = errors.New("reddit unreachable")
)

var (
	redditClientInstance *RedditClient
	redditClientOnce     sync.Once
)

type RedditClient struct {
	Config  *clientcredentials.Config
	Client  *http.Client
	BaseURL string

	limiter    *rate.Limiter
	backoff    time.Duration
	maxRetries int
	mu         sync.Mutex
}

// GetRedditClient returns the app-only OAuth client configured from the
// environment.
func GetRedditClient() *RedditClient {
	redditClientOnce.Do(func() {
		oauthConf := &clientcredentials.Config{
			ClientID:     config.GetEnv("REDDIT_CLIENT_ID", ""),
			ClientSecret: config.GetEnv("REDDIT_CLIENT_SECRET", ""),
			TokenURL:     REDDIT_AUTH_URL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		}
		limiter := rate.NewLimiter(
			rate.Limit(config.GetEnvFloat("REDDIT_RPS", 1)),
			config.GetEnvInt("REDDIT_BURST", 2))

		redditClientInstance = NewRedditClient(REDDIT_API_URL, oauthConf.Client(context.Background()), limiter)
		redditClientInstance.Config = oauthConf
	})

	return redditClientInstance
}

// NewRedditClient builds a client against baseURL. A nil limiter disables
// pacing.
func NewRedditClient(baseURL string, httpClient *http.Client, limiter *rate.Limiter) *RedditClient {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &RedditClient{
		Client:     httpClient,
		BaseURL:    baseURL,
		limiter:    limiter,
		backoff:    INITIAL_BACKOFF,
		maxRetries: MAX_RETRIES,
	}
}

// WithBackoff overrides the initial retry delay.
func (rc *RedditClient) WithBackoff(d time.Duration) *RedditClient {
	rc.backoff = d
	return rc
}

func (rc *RedditClient) RefreshClient() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.Config == nil {
		return
	}
	rc.Client = rc.Config.Client(context.Background())
}

func (rc *RedditClient) httpClient() *http.Client {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.Client
}

// FetchUserSubmissions pages through a user's newest submissions until limit
// posts are collected or the listing ends.
func (rc *RedditClient) FetchUserSubmissions(ctx context.Context, username string, limit int) ([]models.RedditAPIChildData, error) {
	path := fmt.Sprintf("/user/%s/submitted", url.PathEscape(username))
	posts, err := rc.fetchListing(ctx, path, url.Values{"sort": {"new"}}, limit)
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] failed to fetch submissions for %s: %w", username, err)
	}
	slog.Info("[RedditClient] Fetched user submissions",
		slog.String("username", username),
		slog.Int("count", len(posts)))
	return posts, nil
}

// FetchSubredditNew returns up to limit of the newest posts in a subreddit.
func (rc *RedditClient) FetchSubredditNew(ctx context.Context, subreddit string, limit int) ([]models.RedditAPIChildData, error) {
	path := fmt.Sprintf("/r/%s/new", url.PathEscape(subreddit))
	posts, err := rc.fetchListing(ctx, path, url.Values{}, limit)
	if err != nil {
		return nil, fmt.Errorf("[RedditClient] failed to fetch r/%s: %w", subreddit, err)
	}
	return posts, nil
}

func (rc *RedditClient) fetchListing(ctx context.Context, path string, query url.Values, limit int) ([]models.RedditAPIChildData, error) {
	var out []models.RedditAPIChildData
	after := ""
	for len(out) < limit {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("limit", strconv.Itoa(min(REDDIT_PAGE_MAX, limit-len(out))))
		q.Set("raw_json", "1")
		if after != "" {
			q.Set("after", after)
		}

		body, err := rc.get(ctx, path, q)
		if err != nil {
			return nil, err
		}

		var listing models.RedditAPIResponse
		if err := json.Unmarshal(body, &listing); err != nil {
			return nil, fmt.Errorf("failed to decode listing: %w", err)
		}
		for _, child := range listing.Data.Children {
			if child.Kind != "t3" {
				continue
			}
			out = append(out, child.Data)
		}

		after = listing.Data.After
		if after == "" || len(listing.Data.Children) == 0 {
			break
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (rc *RedditClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	backoff := rc.backoff
	refreshed := false

	for attempt := 1; ; attempt++ {
		if err := rc.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.BaseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("User-Agent", USER_AGENT)

		resp, err := rc.httpClient().Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			metrics.IncRedditFetchError("network")
			return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				metrics.IncRedditFetchError("network")
				return nil, fmt.Errorf("%w: %v", ErrNetwork, readErr)
			}
			return body, nil
		case resp.StatusCode == http.StatusUnauthorized && !refreshed:
			slog.Warn("[RedditClient] Token expired - Refreshing and Retrying...")
			rc.RefreshClient()
			refreshed = true
			continue
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
			metrics.IncRedditFetchError("not_found")
			return nil, ErrUserNotFound
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			if attempt >= rc.maxRetries {
				if resp.StatusCode == http.StatusTooManyRequests {
					metrics.IncRedditFetchError("rate_limited")
					return nil, ErrRateLimited
				}
				metrics.IncRedditFetchError("network")
				return nil, fmt.Errorf("%w: status %d after %d attempts", ErrNetwork, resp.StatusCode, attempt)
			}
			slog.Warn("[RedditClient] Retrying request",
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, MAX_BACKOFF)
		default:
			metrics.IncRedditFetchError("unexpected_status")
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
	}
}
