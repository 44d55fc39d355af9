package sentiment

import (
	"github.com/jonreiter/govader"
	"github.com/spacesedan/moodscope/internal/models"
)

var analyzer = govader.NewSentimentIntensityAnalyzer()

const (
	PositiveThreshold = 0.20
	NegativeThreshold = -0.20
)

// ScorePolarity runs VADER over already normalized text.
func ScorePolarity(text string) models.SentimentScore {
	scores := analyzer.PolarityScores(text)
	return models.SentimentScore{
		Compound: scores.Compound,
		Positive: scores.Positive,
		Negative: scores.Negative,
		Neutral:  scores.Neutral,
	}
}

func ScorePosts(posts []models.Post) []models.ScoredPost {
	results := make([]models.ScoredPost, 0, len(posts))
	for _, p := range posts {
		score := ScorePolarity(p.NormalizedText)
		score.PostID = p.ID
		results = append(results, models.ScoredPost{
			SentimentScore: score,
			Title:          p.Title,
			CreatedAt:      p.CreatedAt,
		})
	}
	return results
}

// AverageCompound is the mean compound score, 0 for no posts.
func AverageCompound(scored []models.ScoredPost) float64 {
	if len(scored) == 0 {
		return 0
	}
	var sum float64
	for _, s := range scored {
		sum += s.Compound
	}
	return sum / float64(len(scored))
}

// LabelFor buckets a compound score into positive, negative or neutral.
func LabelFor(score float64) string {
	switch {
	case score >= PositiveThreshold:
		return "positive"
	case score <= NegativeThreshold:
		return "negative"
	default:
		return "neutral"
	}
}
