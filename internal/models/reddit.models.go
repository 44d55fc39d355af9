package models

import "time"

// Post is a single Reddit submission prepared for analysis.
type Post struct {
	ID             string    `json:"id"`
	Author         string    `json:"author,omitempty"`
	Subreddit      string    `json:"subreddit,omitempty"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
	RawText        string    `json:"raw_text"`
	NormalizedText string    `json:"text"`
}

type RedditAPIResponse struct {
	Data RedditAPIData `json:"data"`
}

type RedditAPIData struct {
	After    string           `json:"after"`
	Children []RedditAPIChild `json:"children"`
}

type RedditAPIChild struct {
	Kind string             `json:"kind"`
	Data RedditAPIChildData `json:"data"`
}

type RedditAPIChildData struct {
	Subreddit  string  `json:"subreddit"`
	Author     string  `json:"author"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Ups        int     `json:"ups"`
	CreatedUTC float64 `json:"created_utc"`
	ID         string  `json:"id"`
	Name       string  `json:"name"`
}

// CreatedTime converts the epoch seconds Reddit reports into UTC.
func (d RedditAPIChildData) CreatedTime() time.Time {
	sec := int64(d.CreatedUTC)
	nsec := int64((d.CreatedUTC - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
