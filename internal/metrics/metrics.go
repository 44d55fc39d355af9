package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysisRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moodscope_analysis_requests_total",
		Help: "Total analysis requests by endpoint",
	}, []string{"endpoint"})
	RedditFetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moodscope_reddit_fetch_errors_total",
		Help: "Total Reddit fetch failures by kind",
	}, []string{"kind"})
	ClassifierDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moodscope_classifier_duration_seconds",
		Help:    "Emotion classifier latency per post",
		Buckets: prometheus.DefBuckets,
	})
	DatasetPostsWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moodscope_dataset_posts_written_total",
		Help: "Total dataset posts written to the store",
	})
)

func init() {
	prometheus.MustRegister(AnalysisRequests, RedditFetchErrors, ClassifierDuration, DatasetPostsWritten)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func IncAnalysisRequest(endpoint string) { AnalysisRequests.WithLabelValues(endpoint).Inc() }

func IncRedditFetchError(kind string) { RedditFetchErrors.WithLabelValues(kind).Inc() }

// ObserveClassifierDuration records the time since start.
func ObserveClassifierDuration(start time.Time) {
	ClassifierDuration.Observe(time.Since(start).Seconds())
}

func AddDatasetPostsWritten(n int) {
	DatasetPostsWritten.Add(float64(n))
}
