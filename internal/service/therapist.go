package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spacesedan/moodscope/internal/aura"
	"github.com/spacesedan/moodscope/internal/insights"
	"github.com/spacesedan/moodscope/internal/models"
	"github.com/spacesedan/moodscope/internal/sentiment"
	"golang.org/x/sync/errgroup"
)

const (
	MaxSearchResults = 50
	EmptyDatasetNote = "Cache empty. Please scrape first."

	SourceDataset = "dataset"
	SourceLive    = "live"
)

type SearchResult struct {
	Patients []models.PatientSummary `json:"patients"`
	Count    *int                    `json:"count,omitempty"`
	Note     string                  `json:"note,omitempty"`
}

// Therapist assembles the clinician-facing views over the scraped dataset,
// falling back to live Reddit fetches for unknown authors.
type Therapist struct {
	store      DatasetReader
	fetcher    PostFetcher
	classifier insights.EmotionClassifier
	aura       AuraAnalyzer
	lexicon    *insights.Lexicon
}

func NewTherapist(store DatasetReader, fetcher PostFetcher, classifier insights.EmotionClassifier,
	analyzer AuraAnalyzer, lexicon *insights.Lexicon) *Therapist {
	if lexicon == nil {
		lexicon = insights.DefaultLexicon()
	}
	return &Therapist{
		store:      store,
		fetcher:    fetcher,
		classifier: classifier,
		aura:       analyzer,
		lexicon:    lexicon,
	}
}

// Search filters authors by case-insensitive name substring and exact
// dominant emotion, returning at most MaxSearchResults rows.
func (t *Therapist) Search(ctx context.Context, name, emotion string) (SearchResult, error) {
	summaries, err := t.store.AuthorSummaries(ctx)
	if err != nil {
		return SearchResult{Patients: []models.PatientSummary{}}, err
	}
	if len(summaries) == 0 {
		return SearchResult{Patients: []models.PatientSummary{}, Note: EmptyDatasetNote}, nil
	}

	name = strings.ToLower(strings.TrimSpace(name))
	emotion = strings.ToLower(strings.TrimSpace(emotion))

	patients := make([]models.PatientSummary, 0, MaxSearchResults)
	for _, s := range summaries {
		if name != "" && !strings.Contains(strings.ToLower(s.Author), name) {
			continue
		}
		if emotion != "" && strings.ToLower(s.DominantEmotion) != emotion {
			continue
		}
		patients = append(patients, s)
		if len(patients) == MaxSearchResults {
			break
		}
	}
	count := len(patients)
	return SearchResult{Patients: patients, Count: &count}, nil
}

// PatientInsights never fails: missing posts and fetch errors produce the
// corresponding placeholder payloads.
func (t *Therapist) PatientInsights(ctx context.Context, author string) models.PatientInsights {
	posts, avg, source, err := t.loadPatientPosts(ctx, author)
	if err != nil {
		slog.Error("[Therapist] Failed to load posts",
			slog.String("author", author),
			slog.String("error", err.Error()))
		return ErrorInsights(author)
	}
	if len(posts) == 0 {
		return NoDataInsights(author)
	}

	texts := sentiment.PostTexts(posts)
	dates := sentiment.PostDates(posts)

	var (
		patientAura models.Aura
		trend       models.EmotionTrend
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := t.aura.Analyze(gctx, head(texts, aura.MaxTexts))
		if err != nil {
			slog.Warn("[Therapist] Aura analysis failed, using default",
				slog.String("author", author),
				slog.String("error", err.Error()))
			a = aura.Default()
		}
		patientAura = a
		return nil
	})
	g.Go(func() error {
		tr, err := t.lexicon.BuildEmotionTrend(gctx, t.classifier, texts, dates)
		if err != nil {
			slog.Warn("[Therapist] Emotion trend failed, using empty trend",
				slog.String("author", author),
				slog.String("error", err.Error()))
			tr = models.EmptyEmotionTrend()
		}
		trend = tr
		return nil
	})
	_ = g.Wait()

	risks := t.lexicon.AssessRisks(texts, avg, trend.Series)
	return models.PatientInsights{
		Author:       author,
		Source:       source,
		PostCount:    len(posts),
		Aura:         patientAura,
		Big5:         t.lexicon.EstimatePersonality(texts),
		Risks:        risks,
		AvgSentiment: avg,
		Trend:        trend,
		TrendSummary: t.lexicon.TrendSummary(trend.Series),
		QuickInsight: t.lexicon.QuickInsight(trend.Series, avg, patientAura),
		SessionTips:  insights.SessionTips(risks),
	}
}

// loadPatientPosts prefers the dataset and falls back to a live fetch when
// the author has no stored posts.
func (t *Therapist) loadPatientPosts(ctx context.Context, author string) ([]models.Post, float64, string, error) {
	if t.store != nil {
		rows, err := t.store.AuthorPosts(ctx, author)
		if err != nil {
			slog.Warn("[Therapist] Dataset lookup failed, trying live fetch",
				slog.String("author", author),
				slog.String("error", err.Error()))
		}
		if len(rows) > 0 {
			posts := make([]models.Post, len(rows))
			var sum float64
			for i, r := range rows {
				posts[i] = r.ToPost()
				sum += r.VaderCompound
			}
			return posts, sum / float64(len(rows)), SourceDataset, nil
		}
	}

	slog.Info("[Therapist] Fetching live Reddit data", slog.String("author", author))
	raw, err := t.fetcher.FetchUserSubmissions(ctx, author, FetchLimit)
	if err != nil {
		return nil, 0, SourceLive, fmt.Errorf("[Therapist] live fetch for %s: %w", author, err)
	}
	posts := make([]models.Post, len(raw))
	for i, r := range raw {
		posts[i] = sentiment.PostFromSubmission(r)
	}
	return posts, sentiment.AverageCompound(sentiment.ScorePosts(posts)), SourceLive, nil
}

func placeholderInsights(author string) models.PatientInsights {
	return models.PatientInsights{
		Author: author,
		Risks:  models.LowRiskProfile(),
		Trend:  models.EmptyEmotionTrend(),
	}
}

// NoDataInsights is returned for authors with no public posts.
func NoDataInsights(author string) models.PatientInsights {
	p := placeholderInsights(author)
	p.Aura = models.Aura{Aura: "(no data)", Description: "No public posts found for this user."}
	p.TrendSummary = "No data available."
	p.QuickInsight = "This Reddit user has no recent posts or profile is private."
	p.SessionTips = []string{"Ask user to engage or share reflections to analyze trends."}
	return p
}

// ErrorInsights is returned when the author's posts could not be fetched.
func ErrorInsights(author string) models.PatientInsights {
	p := placeholderInsights(author)
	p.Aura = models.Aura{Aura: "(error)", Description: "Unable to fetch data."}
	p.TrendSummary = "Error fetching data."
	p.QuickInsight = fmt.Sprintf("Failed to fetch Reddit data for %s.", author)
	p.SessionTips = []string{"Retry after a few minutes or verify username spelling."}
	return p
}

func head(xs []string, n int) []string {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}
