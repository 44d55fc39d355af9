package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposure(t *testing.T) {
	IncAnalysisRequest("aura")
	IncRedditFetchError("rate_limited")
	ObserveClassifierDuration(time.Now().Add(-250 * time.Millisecond))
	AddDatasetPostsWritten(3)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, m := range []string{
		`moodscope_analysis_requests_total{endpoint="aura"}`,
		`moodscope_reddit_fetch_errors_total{kind="rate_limited"}`,
		"moodscope_classifier_duration_seconds",
		"moodscope_dataset_posts_written_total",
	} {
		assert.Contains(t, body, m)
	}
}
