package insights

import (
	"math"
	"strings"

	"github.com/spacesedan/moodscope/internal/models"
)

// RiskScores are the capped, normalized scores in [0,1] before bucketing.
type RiskScores struct {
	Depression    float64 `json:"depression"`
	Anxiety       float64 `json:"anxiety"`
	PTSD          float64 `json:"ptsd"`
	Schizophrenia float64 `json:"schizophrenia"`
	Suicidal      float64 `json:"suicidal"`
}

// RiskInputs are the raw signals the risk formulas combine.
type RiskInputs struct {
	SuicideKeywords    int
	AnxietyKeywords    int
	PTSDKeywords       int
	PsychosisKeywords  int
	DepressionKeywords int

	Sadness  float64
	Fear     float64
	Anger    float64
	Disgust  float64
	Surprise float64
	Neutral  float64

	NegativeSentiment float64
}

// ExtractRiskInputs counts keyword phrases present in the corpus and reads the
// last-day emotion shares. Emotions missing from the series count as 0.
func (l *Lexicon) ExtractRiskInputs(texts []string, avgCompound float64, series map[string][]float64) RiskInputs {
	corpus := strings.ToLower(strings.Join(texts, " "))
	kw := l.Risk.Keywords
	last := LastValues(series)

	return RiskInputs{
		SuicideKeywords:    countPhrases(corpus, kw.Suicide),
		AnxietyKeywords:    countPhrases(corpus, kw.Anxiety),
		PTSDKeywords:       countPhrases(corpus, kw.PTSD),
		PsychosisKeywords:  countPhrases(corpus, kw.Psychosis),
		DepressionKeywords: countPhrases(corpus, kw.Depression),
		Sadness:            last["sadness"],
		Fear:               last["fear"],
		Anger:              last["anger"],
		Disgust:            last["disgust"],
		Surprise:           last["surprise"],
		Neutral:            last["neutral"],
		NegativeSentiment:  math.Max(0, -avgCompound),
	}
}

// Score combines the inputs with the policy weights and normalizes each
// score by its cap, clamped to 1.
func (l *Lexicon) Score(in RiskInputs) RiskScores {
	w := l.Risk.Weights
	caps := l.Risk.Caps

	dep := w.Depression.Sadness*in.Sadness +
		w.Depression.NonNeutral*(1-in.Neutral) +
		w.Depression.NegativeSentiment*in.NegativeSentiment +
		w.Depression.Keywords*float64(in.DepressionKeywords)
	anx := w.Anxiety.Fear*in.Fear +
		w.Anxiety.Surprise*in.Surprise +
		w.Anxiety.Keywords*float64(in.AnxietyKeywords) +
		w.Anxiety.NegativeSentiment*in.NegativeSentiment
	ptsd := w.PTSD.Keywords*float64(in.PTSDKeywords) +
		w.PTSD.Fear*in.Fear +
		w.PTSD.Anger*in.Anger
	sch := w.Schizophrenia.Keywords*float64(in.PsychosisKeywords) +
		w.Schizophrenia.Surprise*in.Surprise +
		w.Schizophrenia.Disgust*in.Disgust
	sui := w.Suicidal.Keywords*float64(in.SuicideKeywords) +
		w.Suicidal.Sadness*in.Sadness +
		w.Suicidal.NegativeSentiment*in.NegativeSentiment

	return RiskScores{
		Depression:    capScore(dep, caps.Depression),
		Anxiety:       capScore(anx, caps.Anxiety),
		PTSD:          capScore(ptsd, caps.PTSD),
		Schizophrenia: capScore(sch, caps.Schizophrenia),
		Suicidal:      capScore(sui, caps.Suicidal),
	}
}

func (l *Lexicon) Bucket(score float64) models.RiskLevel {
	switch {
	case score >= l.Risk.Thresholds.High:
		return models.RiskHigh
	case score >= l.Risk.Thresholds.Moderate:
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}

// AssessRisks buckets the heuristic risk scores into low/moderate/high.
// Not a diagnosis.
func (l *Lexicon) AssessRisks(texts []string, avgCompound float64, series map[string][]float64) models.RiskProfile {
	s := l.Score(l.ExtractRiskInputs(texts, avgCompound, series))
	return models.RiskProfile{
		Depression:    l.Bucket(s.Depression),
		Anxiety:       l.Bucket(s.Anxiety),
		PTSD:          l.Bucket(s.PTSD),
		Schizophrenia: l.Bucket(s.Schizophrenia),
		Suicidal:      l.Bucket(s.Suicidal),
	}
}

// countPhrases counts how many distinct phrases occur anywhere in corpus.
func countPhrases(corpus string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(corpus, p) {
			n++
		}
	}
	return n
}

func capScore(x, limit float64) float64 {
	return math.Min(x/limit, 1.0)
}
