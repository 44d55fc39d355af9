package insights

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/spacesedan/moodscope/internal/models"
)

const (
	// MaxTrendPosts bounds how many posts go through the classifier.
	MaxTrendPosts = 120
	// MaxClassifierChars is the longest prefix of a post sent to the classifier.
	MaxClassifierChars = 512
)

// EmotionClassifier scores a single text against emotion labels.
type EmotionClassifier interface {
	Classify(ctx context.Context, text string) ([]models.EmotionScore, error)
}

// ClassifyTexts runs the classifier over each text. Blank texts produce an
// empty mapping without a classifier call.
func ClassifyTexts(ctx context.Context, classifier EmotionClassifier, texts []string) ([]map[string]float64, error) {
	perPost := make([]map[string]float64, len(texts))
	for i, t := range texts {
		t = strings.TrimSpace(t)
		if t == "" {
			perPost[i] = map[string]float64{}
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := classifier.Classify(ctx, truncate(t, MaxClassifierChars))
		if err != nil {
			return nil, fmt.Errorf("[EmotionTrend] classifier failed on post %d: %w", i, err)
		}
		scores := make(map[string]float64, len(res))
		for _, r := range res {
			scores[strings.ToLower(r.Label)] += r.Score
		}
		perPost[i] = scores
	}
	return perPost, nil
}

// BuildEmotionTrend classifies up to MaxTrendPosts texts and aggregates them
// into per-day normalized series. texts and dates are paired by index.
func (l *Lexicon) BuildEmotionTrend(ctx context.Context, classifier EmotionClassifier, texts, dates []string) (models.EmotionTrend, error) {
	n := min(len(texts), len(dates), MaxTrendPosts)
	perPost, err := ClassifyTexts(ctx, classifier, texts[:n])
	if err != nil {
		return models.EmptyEmotionTrend(), err
	}
	return l.AggregateEmotionTrend(perPost, dates[:n]), nil
}

// AggregateEmotionTrend groups per-post label scores by date and divides each
// label's daily sum by that day's total over all labels. Labels that are zero
// on every date are dropped.
func (l *Lexicon) AggregateEmotionTrend(perPost []map[string]float64, dates []string) models.EmotionTrend {
	buckets := make(map[string]map[string]float64)
	for i, d := range dates {
		if i >= len(perPost) {
			break
		}
		agg, ok := buckets[d]
		if !ok {
			agg = make(map[string]float64)
			buckets[d] = agg
		}
		for label, score := range perPost[i] {
			agg[label] += score
		}
	}

	days := make([]string, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Strings(days)

	series := make(map[string][]float64, len(l.Emotions))
	for _, k := range l.Emotions {
		series[k] = make([]float64, 0, len(days))
	}
	for _, day := range days {
		agg := buckets[day]
		var total float64
		for _, label := range sortedKeys(agg) {
			total += agg[label]
		}
		for _, k := range l.Emotions {
			var val float64
			if total > 0 {
				val = agg[k] / total
			}
			series[k] = append(series[k], val)
		}
	}

	for k, vals := range series {
		if !anyPositive(vals) {
			delete(series, k)
		}
	}

	return models.EmotionTrend{Labels: days, Series: series}
}

// EmotionDistribution averages per-post label shares over the posts that
// produced any scores.
func EmotionDistribution(perPost []map[string]float64) models.EmotionDistribution {
	dist := models.EmotionDistribution{Emotions: map[string]float64{}}
	for _, scores := range perPost {
		var total float64
		for _, label := range sortedKeys(scores) {
			total += scores[label]
		}
		if total <= 0 {
			continue
		}
		dist.Analyzed++
		for label, s := range scores {
			dist.Emotions[label] += s / total
		}
	}
	if dist.Analyzed == 0 {
		return dist
	}
	for label := range dist.Emotions {
		dist.Emotions[label] /= float64(dist.Analyzed)
	}
	dist.Dominant = argmax(dist.Emotions)
	return dist
}

// LastValues returns the most recent value of every series.
func LastValues(series map[string][]float64) map[string]float64 {
	last := make(map[string]float64, len(series))
	for k, vals := range series {
		if len(vals) > 0 {
			last[k] = vals[len(vals)-1]
		} else {
			last[k] = 0
		}
	}
	return last
}

// DominantEmotion is the label with the largest last-day share, or "" when
// there is no trend. Ties go to the label listed first in the vocabulary;
// labels outside the vocabulary follow alphabetically.
func (l *Lexicon) DominantEmotion(series map[string][]float64) string {
	last := LastValues(series)
	order := make([]string, 0, len(last))
	for _, k := range l.Emotions {
		if _, ok := last[k]; ok {
			order = append(order, k)
		}
	}
	for _, k := range sortedKeys(last) {
		if !slices.Contains(l.Emotions, k) {
			order = append(order, k)
		}
	}

	best := ""
	bestVal := 0.0
	for _, k := range order {
		if best == "" || last[k] > bestVal {
			best, bestVal = k, last[k]
		}
	}
	return best
}

func argmax(m map[string]float64) string {
	best := ""
	bestVal := 0.0
	for _, k := range sortedKeys(m) {
		if best == "" || m[k] > bestVal {
			best, bestVal = k, m[k]
		}
	}
	return best
}

func anyPositive(vals []float64) bool {
	for _, v := range vals {
		if v > 0 {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
