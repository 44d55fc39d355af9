package models

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

type RiskProfile struct {
	Depression    RiskLevel `json:"depression"`
	Anxiety       RiskLevel `json:"anxiety"`
	PTSD          RiskLevel `json:"ptsd"`
	Schizophrenia RiskLevel `json:"schizophrenia"`
	Suicidal      RiskLevel `json:"suicidal"`
}

// LowRiskProfile is the fallback used when nothing could be analyzed.
func LowRiskProfile() RiskProfile {
	return RiskProfile{
		Depression:    RiskLow,
		Anxiety:       RiskLow,
		PTSD:          RiskLow,
		Schizophrenia: RiskLow,
		Suicidal:      RiskLow,
	}
}

type PersonalityProfile struct {
	Openness          int `json:"openness"`
	Conscientiousness int `json:"conscientiousness"`
	Extraversion      int `json:"extraversion"`
	Agreeableness     int `json:"agreeableness"`
	Neuroticism       int `json:"neuroticism"`
}

type EmotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// EmotionTrend holds per-day emotion shares. Series values line up with Labels.
type EmotionTrend struct {
	Labels []string             `json:"labels"`
	Series map[string][]float64 `json:"series"`
}

func EmptyEmotionTrend() EmotionTrend {
	return EmotionTrend{Labels: []string{}, Series: map[string][]float64{}}
}

type EmotionDistribution struct {
	Emotions map[string]float64 `json:"emotions"`
	Dominant string             `json:"dominant"`
	Analyzed int                `json:"analyzed"`
}

type Aura struct {
	Aura        string `json:"aura"`
	Description string `json:"description"`
}

type ForecastBadge string

const (
	BadgeBeatForecast    ForecastBadge = "beat_forecast"
	BadgeStayingBalanced ForecastBadge = "staying_balanced"
)

// Title is the display text for a badge.
func (b ForecastBadge) Title() string {
	switch b {
	case BadgeBeatForecast:
		return "🥇 Beat the Forecast"
	case BadgeStayingBalanced:
		return "🌈 Staying Balanced"
	default:
		return ""
	}
}

type ForecastPoint struct {
	Date          string  `json:"date"`
	PredictedMood float64 `json:"predicted_mood"`
}

type MoodForecast struct {
	Forecast []ForecastPoint `json:"forecast"`
	Badge    *ForecastBadge  `json:"badge"`
	Message  string          `json:"message"`
}

type PatientInsights struct {
	Author       string             `json:"author"`
	Source       string             `json:"source"`
	PostCount    int                `json:"post_count"`
	Aura         Aura               `json:"aura"`
	Big5         PersonalityProfile `json:"big5"`
	Risks        RiskProfile        `json:"risks"`
	AvgSentiment float64            `json:"avg_sentiment"`
	Trend        EmotionTrend       `json:"trend"`
	TrendSummary string             `json:"trend_summary"`
	QuickInsight string             `json:"quick_insight"`
	SessionTips  []string           `json:"session_tips"`
}
