package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/spacesedan/moodscope/internal/aura"
	"github.com/spacesedan/moodscope/internal/clients"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEmptyDataset(t *testing.T) {
	th := NewTherapist(&fakeStore{}, &fakeFetcher{}, keywordClassifier{}, &fakeAura{}, nil)

	res, err := th.Search(context.Background(), "", "")
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"patients":[],"note":"Cache empty. Please scrape first."}`, string(raw))
}

func TestSearchFilters(t *testing.T) {
	store := &fakeStore{summaries: []models.PatientSummary{
		{Author: "AliceW", PostCount: 3, DominantEmotion: "happy"},
		{Author: "bob", PostCount: 1, DominantEmotion: "sad"},
		{Author: "malice", PostCount: 2, DominantEmotion: "sad"},
	}}
	th := NewTherapist(store, &fakeFetcher{}, keywordClassifier{}, &fakeAura{}, nil)
	ctx := context.Background()

	res, err := th.Search(ctx, "ALICE", "")
	require.NoError(t, err)
	assert.Len(t, res.Patients, 2)
	assert.Equal(t, 2, *res.Count)

	res, err = th.Search(ctx, "alice", "SAD")
	require.NoError(t, err)
	require.Len(t, res.Patients, 1)
	assert.Equal(t, "malice", res.Patients[0].Author)

	res, err = th.Search(ctx, "zed", "")
	require.NoError(t, err)
	raw, _ := json.Marshal(res)
	assert.JSONEq(t, `{"patients":[],"count":0}`, string(raw))
}

func TestSearchCapsResults(t *testing.T) {
	var summaries []models.PatientSummary
	for i := 0; i < 80; i++ {
		summaries = append(summaries, models.PatientSummary{Author: fmt.Sprintf("user%02d", i), DominantEmotion: "calm"})
	}
	th := NewTherapist(&fakeStore{summaries: summaries}, &fakeFetcher{}, keywordClassifier{}, &fakeAura{}, nil)

	res, err := th.Search(context.Background(), "", "calm")
	require.NoError(t, err)
	assert.Len(t, res.Patients, MaxSearchResults)
}

func TestSearchStoreError(t *testing.T) {
	th := NewTherapist(&fakeStore{err: errBoom}, &fakeFetcher{}, keywordClassifier{}, &fakeAura{}, nil)
	_, err := th.Search(context.Background(), "", "")
	assert.ErrorIs(t, err, errBoom)
}

func TestPatientInsightsFromDataset(t *testing.T) {
	store := &fakeStore{posts: map[string][]models.DatasetPost{
		"someone": {
			{Author: "SomeOne", PostID: "a", Title: "t", Text: "i feel sad and want to end my life", CreatedUTC: 1_700_000_000, VaderCompound: -0.8},
			{Author: "SomeOne", PostID: "b", Title: "t", Text: "sad again, so tired", CreatedUTC: 1_699_900_000, VaderCompound: -0.4},
		},
	}}
	fetcher := &fakeFetcher{}
	a := &fakeAura{result: models.Aura{Aura: "🌪️ Stormy Gray", Description: "d"}}
	th := NewTherapist(store, fetcher, keywordClassifier{}, a, nil)

	got := th.PatientInsights(context.Background(), "someone")

	assert.Equal(t, SourceDataset, got.Source)
	assert.Equal(t, 2, got.PostCount)
	assert.Equal(t, 0, fetcher.calls)
	assert.InDelta(t, -0.6, got.AvgSentiment, 1e-9)
	assert.Equal(t, "🌪️ Stormy Gray", got.Aura.Aura)
	assert.Contains(t, got.Trend.Series, "sadness")
	assert.Equal(t, models.RiskHigh, got.Risks.Suicidal)
	assert.Contains(t, got.QuickInsight, "Recent language shows sadness affect; average sentiment -0.60.")
	assert.Equal(t, "Validate emotions reflected in recent posts and set session goals.", got.SessionTips[len(got.SessionTips)-1])
	assert.Equal(t, "Assess safety first; ask about intent, plan, means; provide crisis resources.", got.SessionTips[0])
}

func TestPatientInsightsLiveFallback(t *testing.T) {
	fetcher := &fakeFetcher{posts: map[string][]models.RedditAPIChildData{
		"newbie": {submission("a", "happy news", "so happy today", 1)},
	}}
	th := NewTherapist(&fakeStore{}, fetcher, keywordClassifier{}, &fakeAura{result: aura.Default()}, nil)

	got := th.PatientInsights(context.Background(), "newbie")
	assert.Equal(t, SourceLive, got.Source)
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, 1, got.PostCount)
	assert.Greater(t, got.AvgSentiment, 0.0)
}

func TestPatientInsightsNoData(t *testing.T) {
	th := NewTherapist(&fakeStore{}, &fakeFetcher{}, keywordClassifier{}, &fakeAura{}, nil)

	got := th.PatientInsights(context.Background(), "quiet")
	assert.Equal(t, NoDataInsights("quiet"), got)
	assert.Equal(t, "(no data)", got.Aura.Aura)
	assert.Equal(t, models.LowRiskProfile(), got.Risks)
	assert.Equal(t, models.PersonalityProfile{}, got.Big5)
}

func TestPatientInsightsFetchError(t *testing.T) {
	th := NewTherapist(&fakeStore{err: errBoom}, &fakeFetcher{err: clients.ErrRateLimited}, keywordClassifier{}, &fakeAura{}, nil)

	got := th.PatientInsights(context.Background(), "someone")
	assert.Equal(t, "(error)", got.Aura.Aura)
	assert.Equal(t, "Failed to fetch Reddit data for someone.", got.QuickInsight)
	assert.Equal(t, []string{"Retry after a few minutes or verify username spelling."}, got.SessionTips)
	assert.Empty(t, got.Trend.Labels)
}

func TestPatientInsightsDegradesCollaboratorFailures(t *testing.T) {
	store := &fakeStore{posts: map[string][]models.DatasetPost{
		"someone": {{Author: "someone", PostID: "a", Text: "plain day", CreatedUTC: 1_700_000_000}},
	}}
	th := NewTherapist(store, &fakeFetcher{}, keywordClassifier{err: errBoom}, &fakeAura{err: errBoom}, nil)

	got := th.PatientInsights(context.Background(), "someone")
	assert.Equal(t, aura.Default(), got.Aura)
	assert.Empty(t, got.Trend.Labels)
	assert.Empty(t, got.Trend.Series)
	assert.Equal(t, "Over recent posts, emotion mix shows .", got.TrendSummary)
	assert.Contains(t, got.QuickInsight, "balanced affect")
}

func TestPatientInsightsCapsAuraTexts(t *testing.T) {
	var posts []models.DatasetPost
	for i := 0; i < 80; i++ {
		posts = append(posts, models.DatasetPost{
			Author: "busy", PostID: fmt.Sprintf("p%d", i), Title: "t", Text: "a calm day",
			CreatedUTC: int64(1_700_000_000 - i*3600),
		})
	}
	a := &fakeAura{result: aura.Default()}
	th := NewTherapist(&fakeStore{posts: map[string][]models.DatasetPost{"busy": posts}}, &fakeFetcher{}, keywordClassifier{}, a, nil)

	got := th.PatientInsights(context.Background(), "busy")
	assert.Equal(t, 80, got.PostCount)
	assert.Len(t, a.got, aura.MaxTexts)
}
