package models

import "time"

type SentimentScore struct {
	PostID   string  `json:"id"`
	Compound float64 `json:"compound"`
	Positive float64 `json:"pos"`
	Negative float64 `json:"neg"`
	Neutral  float64 `json:"neu"`
}

// ScoredPost pairs a post's timestamp with its sentiment.
type ScoredPost struct {
	SentimentScore
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created"`
}

type DailyMoodPoint struct {
	Date        string  `json:"date"`
	AvgCompound float64 `json:"avg_compound"`
}
