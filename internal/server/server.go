package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/spacesedan/moodscope/internal/clients"
	"github.com/spacesedan/moodscope/internal/metrics"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/spacesedan/moodscope/internal/sentiment"
	"github.com/spacesedan/moodscope/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

type DashboardService interface {
	Fetch(ctx context.Context, username string) (int, error)
	MoodTrend(ctx context.Context, username string, days int) ([]models.DailyMoodPoint, error)
	Aura(ctx context.Context, username string) (models.Aura, error)
	Emotions(ctx context.Context, username string) (models.EmotionDistribution, error)
	Forecast(ctx context.Context, username string) (models.MoodForecast, error)
	Personality(ctx context.Context, username string) (models.PersonalityProfile, error)
}

type TherapistService interface {
	Search(ctx context.Context, name, emotion string) (service.SearchResult, error)
	PatientInsights(ctx context.Context, author string) models.PatientInsights
}

// HealthReporter reports dependency health for /health.
type HealthReporter interface {
	Healthy() bool
}

type Server struct {
	dashboard DashboardService
	therapist TherapistService
	health    HealthReporter
	templates *template.Template
}

func New(dashboard DashboardService, therapist TherapistService, health HealthReporter) *Server {
	tmpl := template.Must(template.New("").Funcs(template.FuncMap{
		"pct": func(v float64) int { return int(v*100 + 0.5) },
		"json": func(v any) (template.JS, error) {
			b, err := json.Marshal(v)
			return template.JS(b), err
		},
	}).ParseFS(templateFS, "templates/*.html"))

	return &Server{
		dashboard: dashboard,
		therapist: therapist,
		health:    health,
		templates: tmpl,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /therapist", s.handleTherapist)
	mux.HandleFunc("GET /patient/{author}", s.handlePatientPage)

	mux.HandleFunc("GET /api/fetch/{username}", s.handleFetch)
	mux.HandleFunc("GET /api/mood_trend/{username}", s.handleMoodTrend)
	mux.HandleFunc("GET /api/aura/{username}", s.handleAura)
	mux.HandleFunc("GET /api/emotions/{username}", s.handleEmotions)
	mux.HandleFunc("GET /api/forecast/{username}", s.handleForecast)
	mux.HandleFunc("GET /api/personality/{username}", s.handlePersonality)
	mux.HandleFunc("GET /api/therapist/search", s.handleTherapistSearch)
	mux.HandleFunc("GET /api/patient/{author}", s.handlePatient)

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return withRequestLogging(mux)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, "home.html", nil)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, "dashboard.html", map[string]string{"Username": username})
}

func (s *Server) handleTherapist(w http.ResponseWriter, r *http.Request) {
	s.render(w, "therapist.html", nil)
}

func (s *Server) handlePatientPage(w http.ResponseWriter, r *http.Request) {
	metrics.IncAnalysisRequest("patient_page")
	s.render(w, "patient.html", s.therapist.PatientInsights(r.Context(), r.PathValue("author")))
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	metrics.IncAnalysisRequest("fetch")
	username := r.PathValue("username")

	n, err := s.dashboard.Fetch(r.Context(), username)
	if err != nil {
		status := fetchErrorStatus(err)
		slog.Warn("[Server] Fetch failed",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("username", username),
			slog.Int("status", status),
			slog.String("error", err.Error()))
		writeJSON(w, status, map[string]any{"ok": false, "error": err.Error(), "fetched": 0})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "fetched": n})
}

func fetchErrorStatus(err error) int {
	switch {
	case errors.Is(err, clients.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, clients.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) handleMoodTrend(w http.ResponseWriter, r *http.Request) {
	metrics.IncAnalysisRequest("mood_trend")
	username := r.PathValue("username")

	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days <= 0 {
		days = sentiment.DefaultWindowDays
	}

	trend, err := s.dashboard.MoodTrend(r.Context(), username, days)
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if trend == nil {
		trend = []models.DailyMoodPoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"username": username, "trend": trend})
}

func (s *Server) handleAura(w http.ResponseWriter, r *http.Request) {
	metrics.IncAnalysisRequest("aura")
	a, err := s.dashboard.Aura(r.Context(), r.PathValue("username"))
	if err != nil {
		slog.Warn("[Server] Aura degraded to default",
			slog.String("request_id", RequestID(r.Context())),
			slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleEmotions(w http.ResponseWriter, r *http.Request) {
	metrics.IncAnalysisRequest("emotions")
	dist, err := s.dashboard.Emotions(r.Context(), r.PathValue("username"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dist)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	metrics.IncAnalysisRequest("forecast")
	fc, err := s.dashboard.Forecast(r.Context(), r.PathValue("username"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	if fc.Forecast == nil {
		fc.Forecast = []models.ForecastPoint{}
	}
	writeJSON(w, http.StatusOK, fc)
}

func (s *Server) handlePersonality(w http.ResponseWriter, r *http.Request) {
	metrics.IncAnalysisRequest("personality")
	p, err := s.dashboard.Personality(r.Context(), r.PathValue("username"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleTherapistSearch(w http.ResponseWriter, r *http.Request) {
	metrics.IncAnalysisRequest("therapist_search")
	q := r.URL.Query()
	res, err := s.therapist.Search(r.Context(), q.Get("name"), q.Get("emotion"))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePatient(w http.ResponseWriter, r *http.Request) {
	metrics.IncAnalysisRequest("patient")
	writeJSON(w, http.StatusOK, s.therapist.PatientInsights(r.Context(), r.PathValue("author")))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil && !s.health.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("[Server] Request failed",
		slog.String("request_id", RequestID(r.Context())),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("[Server] Template error",
			slog.String("template", name),
			slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("[Server] Failed to encode response", slog.String("error", err.Error()))
	}
}
