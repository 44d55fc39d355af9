package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spacesedan/moodscope/internal/aura"
	"github.com/spacesedan/moodscope/internal/clients"
	"github.com/spacesedan/moodscope/internal/insights"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/spacesedan/moodscope/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDashboard struct {
	fetchErr error
	lastDays int
	auraErr  error
}

func (f *fakeDashboard) Fetch(_ context.Context, username string) (int, error) {
	if f.fetchErr != nil {
		return 0, f.fetchErr
	}
	return 42, nil
}

func (f *fakeDashboard) MoodTrend(_ context.Context, _ string, days int) ([]models.DailyMoodPoint, error) {
	f.lastDays = days
	return nil, nil
}

func (f *fakeDashboard) Aura(_ context.Context, _ string) (models.Aura, error) {
	return aura.Default(), f.auraErr
}

func (f *fakeDashboard) Emotions(_ context.Context, _ string) (models.EmotionDistribution, error) {
	return models.EmotionDistribution{Emotions: map[string]float64{"joy": 1}, Dominant: "joy", Analyzed: 1}, nil
}

func (f *fakeDashboard) Forecast(_ context.Context, _ string) (models.MoodForecast, error) {
	return insights.InsufficientForecast(), nil
}

func (f *fakeDashboard) Personality(_ context.Context, _ string) (models.PersonalityProfile, error) {
	return models.PersonalityProfile{Openness: 50}, nil
}

type fakeTherapist struct {
	searchErr error
}

func (f *fakeTherapist) Search(_ context.Context, name, emotion string) (service.SearchResult, error) {
	if f.searchErr != nil {
		return service.SearchResult{}, f.searchErr
	}
	count := 1
	return service.SearchResult{
		Patients: []models.PatientSummary{{Author: name + "-" + emotion, PostCount: 2}},
		Count:    &count,
	}, nil
}

func (f *fakeTherapist) PatientInsights(_ context.Context, author string) models.PatientInsights {
	p := service.NoDataInsights(author)
	p.Trend = models.EmotionTrend{
		Labels: []string{"2024-01-01"},
		Series: map[string][]float64{"sadness": {0.75}},
	}
	return p
}

type staticHealth bool

func (h staticHealth) Healthy() bool { return bool(h) }

func newTestServer(d *fakeDashboard, t *fakeTherapist) http.Handler {
	return New(d, t, staticHealth(true)).Routes()
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFetchOK(t *testing.T) {
	rec := get(t, newTestServer(&fakeDashboard{}, &fakeTherapist{}), "/api/fetch/someone")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"fetched":42}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestFetchErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("wrapped: %w", clients.ErrUserNotFound), http.StatusNotFound},
		{clients.ErrRateLimited, http.StatusTooManyRequests},
		{clients.ErrNetwork, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			rec := get(t, newTestServer(&fakeDashboard{fetchErr: tc.err}, &fakeTherapist{}), "/api/fetch/someone")
			assert.Equal(t, tc.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["ok"])
			assert.EqualValues(t, 0, body["fetched"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMoodTrendDaysParam(t *testing.T) {
	d := &fakeDashboard{}
	h := newTestServer(d, &fakeTherapist{})

	rec := get(t, h, "/api/mood_trend/someone?days=14")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 14, d.lastDays)
	assert.JSONEq(t, `{"username":"someone","trend":[]}`, rec.Body.String())

	get(t, h, "/api/mood_trend/someone?days=abc")
	assert.Equal(t, 60, d.lastDays)

	get(t, h, "/api/mood_trend/someone")
	assert.Equal(t, 60, d.lastDays)
}

func TestAuraDegradesToDefault(t *testing.T) {
	rec := get(t, newTestServer(&fakeDashboard{auraErr: assert.AnError}, &fakeTherapist{}), "/api/aura/someone")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, aura.Default().Aura, decode(t, rec)["aura"])
}

func TestForecastInsufficientPayload(t *testing.T) {
	rec := get(t, newTestServer(&fakeDashboard{}, &fakeTherapist{}), "/api/forecast/someone")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"forecast":[],"badge":null,"message":"Not enough data to forecast yet."}`, rec.Body.String())
}

func TestEmotionsAndPersonality(t *testing.T) {
	h := newTestServer(&fakeDashboard{}, &fakeTherapist{})

	rec := get(t, h, "/api/emotions/someone")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "joy", decode(t, rec)["dominant"])

	rec = get(t, h, "/api/personality/someone")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 50, decode(t, rec)["openness"])
}

func TestTherapistSearch(t *testing.T) {
	rec := get(t, newTestServer(&fakeDashboard{}, &fakeTherapist{}), "/api/therapist/search?name=al&emotion=sad")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"patients":[{"author":"al-sad","post_count":2,"avg_compound":0,"dominant_emotion":""}],"count":1}`, rec.Body.String())

	rec = get(t, newTestServer(&fakeDashboard{}, &fakeTherapist{searchErr: assert.AnError}), "/api/therapist/search")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPatientAPIAndPage(t *testing.T) {
	h := newTestServer(&fakeDashboard{}, &fakeTherapist{})

	rec := get(t, h, "/api/patient/someone")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "someone", body["author"])
	assert.Equal(t, "(no data)", body["aura"].(map[string]any)["aura"])

	rec = get(t, h, "/patient/someone")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Patient: someone")
	assert.Contains(t, rec.Body.String(), "75%")
}

func TestPages(t *testing.T) {
	h := newTestServer(&fakeDashboard{}, &fakeTherapist{})

	assert.Equal(t, http.StatusOK, get(t, h, "/").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/therapist").Code)

	rec := get(t, h, "/dashboard")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = get(t, h, "/dashboard?username=someone")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "u/someone")

	assert.Equal(t, http.StatusNotFound, get(t, h, "/nope").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestServer(&fakeDashboard{}, &fakeTherapist{})
	assert.Equal(t, http.StatusOK, get(t, h, "/health").Code)

	get(t, h, "/api/personality/someone")
	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `moodscope_analysis_requests_total{endpoint="personality"}`)

	unhealthy := New(&fakeDashboard{}, &fakeTherapist{}, staticHealth(false)).Routes()
	assert.Equal(t, http.StatusServiceUnavailable, get(t, unhealthy, "/health").Code)
}

func TestRequestIDPropagates(t *testing.T) {
	h := newTestServer(&fakeDashboard{}, &fakeTherapist{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}
