package models

import (
	"strings"
	"time"
)

// DatasetPost is a scraped subreddit post kept in the therapist dataset.
type DatasetPost struct {
	AuthorKey     string    `json:"author_key" dynamodbav:"author_key"`
	PostID        string    `json:"post_id" dynamodbav:"post_id"`
	Author        string    `json:"author" dynamodbav:"author"`
	Subreddit     string    `json:"subreddit" dynamodbav:"subreddit"`
	Title         string    `json:"title" dynamodbav:"title"`
	Text          string    `json:"text" dynamodbav:"text"`
	CreatedUTC    int64     `json:"created_utc" dynamodbav:"created_utc"`
	VaderCompound float64   `json:"vader_compound" dynamodbav:"vader_compound"`
	ScrapedAt     time.Time `json:"scraped_at" dynamodbav:"scraped_at"`
}

func AuthorKey(author string) string {
	return strings.ToLower(strings.TrimSpace(author))
}

// ToPost converts a dataset row back into an analyzable post.
func (d DatasetPost) ToPost() Post {
	return Post{
		ID:             d.PostID,
		Author:         d.Author,
		Subreddit:      d.Subreddit,
		Title:          d.Title,
		CreatedAt:      time.Unix(d.CreatedUTC, 0).UTC(),
		RawText:        d.Text,
		NormalizedText: d.Text,
	}
}

type PatientSummary struct {
	Author          string  `json:"author"`
	PostCount       int     `json:"post_count"`
	AvgCompound     float64 `json:"avg_compound"`
	DominantEmotion string  `json:"dominant_emotion"`
}
