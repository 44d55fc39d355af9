package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spacesedan/moodscope/internal/clients"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/spacesedan/moodscope/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	posts []models.RedditAPIChildData
	err   error
}

func (s stubFetcher) FetchUserSubmissions(context.Context, string, int) ([]models.RedditAPIChildData, error) {
	return s.posts, s.err
}

func useFetcher(t *testing.T, f service.PostFetcher) {
	t.Helper()
	prev := newFetcher
	newFetcher = func() service.PostFetcher { return f }
	t.Cleanup(func() { newFetcher = prev })
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		days, lexiconPath = 60, ""
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTrendCommand(t *testing.T) {
	yesterday := float64(time.Now().Add(-24 * time.Hour).Unix())
	useFetcher(t, stubFetcher{posts: []models.RedditAPIChildData{
		{ID: "1", Title: "I love this", Selftext: "great day", CreatedUTC: yesterday},
		{ID: "2", Title: "so happy", Selftext: "", CreatedUTC: yesterday},
	}})

	out, err := execute(t, "trend", "alice", "--days", "7")
	require.NoError(t, err)

	var got struct {
		Username string                  `json:"username"`
		Trend    []models.DailyMoodPoint `json:"trend"`
		Forecast models.MoodForecast     `json:"forecast"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "alice", got.Username)
	require.Len(t, got.Trend, 1)
	assert.Greater(t, got.Trend[0].AvgCompound, 0.0)
	assert.Equal(t, "Not enough data to forecast yet.", got.Forecast.Message)
}

func TestTrendCommandPropagatesFetchErrors(t *testing.T) {
	useFetcher(t, stubFetcher{err: clients.ErrUserNotFound})

	_, err := execute(t, "trend", "ghost")
	assert.ErrorIs(t, err, clients.ErrUserNotFound)
}

func TestLexiconCommand(t *testing.T) {
	out, err := execute(t, "lexicon")
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": true`)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("emotions: []\n"), 0o644))
	_, err = execute(t, "lexicon", bad)
	assert.ErrorContains(t, err, "emotion vocabulary is empty")
}

func TestTrendRequiresUsername(t *testing.T) {
	_, err := execute(t, "trend")
	assert.Error(t, err)
}
