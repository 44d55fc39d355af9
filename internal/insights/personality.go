package insights

import (
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/spacesedan/moodscope/internal/models"
)

// CategoryDensities counts, per category, how many of its words appear as
// whole words in the corpus, divided by the corpus word count (at least 1).
func (l *Lexicon) CategoryDensities(texts []string) map[string]float64 {
	text := strings.ToLower(strings.Join(texts, " "))
	words := float64(max(len(strings.Fields(text)), 1))

	densities := make(map[string]float64, len(l.Personality.Categories))
	for cat, ws := range l.Personality.Categories {
		n := 0
		for _, w := range ws {
			if wordPattern(w).MatchString(text) {
				n++
			}
		}
		densities[cat] = float64(n) / words
	}
	return densities
}

// EstimatePersonality maps lexicon densities onto 0-100 Big Five scores.
// Heuristic and non-diagnostic.
func (l *Lexicon) EstimatePersonality(texts []string) models.PersonalityProfile {
	d := l.CategoryDensities(texts)
	score := func(trait string) int {
		f := l.Personality.Traits[trait]
		var x float64
		for _, cat := range sortedKeys(f.Weights) {
			x += f.Weights[cat] * d[cat]
		}
		return clampInt(scaleToPercent(x, f.Min, f.Max), 0, 100)
	}

	return models.PersonalityProfile{
		Openness:          score("openness"),
		Conscientiousness: score("conscientiousness"),
		Extraversion:      score("extraversion"),
		Agreeableness:     score("agreeableness"),
		Neuroticism:       score("neuroticism"),
	}
}

// scaleToPercent clamps x into [lo,hi] and maps it onto 0-100, rounding half
// to even.
func scaleToPercent(x, lo, hi float64) int {
	if hi <= lo {
		return 0
	}
	x = math.Max(lo, math.Min(hi, x))
	return int(math.RoundToEven(100 * (x - lo) / (hi - lo)))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// wordPatterns caches compiled whole-word matchers keyed by word.
var wordPatterns sync.Map

func wordPattern(w string) *regexp.Regexp {
	if re, ok := wordPatterns.Load(w); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
	wordPatterns.Store(w, re)
	return re
}
