package sentiment

import (
	"sort"
	"time"

	"github.com/spacesedan/moodscope/internal/models"
)

const (
	DefaultWindowDays = 60
	DateLayout        = "2006-01-02"
)

// DailyMood averages compound scores per UTC calendar day over the trailing
// window ending at now. Days without posts are absent, not zero.
func DailyMood(scored []models.ScoredPost, windowDays int, now time.Time) []models.DailyMoodPoint {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	cutoff := now.AddDate(0, 0, -windowDays)

	type bucket struct {
		sum   float64
		count int
	}
	buckets := make(map[string]*bucket)
	for _, s := range scored {
		if s.CreatedAt.Before(cutoff) {
			continue
		}
		day := s.CreatedAt.UTC().Format(DateLayout)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.sum += s.Compound
		b.count++
	}

	days := make([]string, 0, len(buckets))
	for d := range buckets {
		days = append(days, d)
	}
	sort.Strings(days)

	trend := make([]models.DailyMoodPoint, 0, len(days))
	for _, d := range days {
		b := buckets[d]
		trend = append(trend, models.DailyMoodPoint{
			Date:        d,
			AvgCompound: b.sum / float64(b.count),
		})
	}
	return trend
}

// PostDates returns the UTC calendar date of each post, in order.
func PostDates(posts []models.Post) []string {
	dates := make([]string, len(posts))
	for i, p := range posts {
		dates[i] = p.CreatedAt.UTC().Format(DateLayout)
	}
	return dates
}

// PostTexts returns each post's normalized text, in order.
func PostTexts(posts []models.Post) []string {
	texts := make([]string, len(posts))
	for i, p := range posts {
		texts[i] = p.NormalizedText
	}
	return texts
}
