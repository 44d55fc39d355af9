package sentiment

import (
	"html"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
	"github.com/spacesedan/moodscope/internal/models"
)

var (
	markdownLinkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern          = regexp.MustCompile(`http\S+|www\.\S+`)
	htmlTagPattern      = regexp.MustCompile(`<[^>]*>`)
	placeholderPattern  = regexp.MustCompile(`(?i)\[(removed|deleted)\]`)
	disallowedPattern   = regexp.MustCompile(`[^a-z0-9\s.,!?']`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// The renderer keeps state between nodes, so each call gets its own.
// Smartypants is left off so apostrophes survive normalization.
func newPlainRenderer() *blackfriday.HTMLRenderer {
	return blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.UseXHTML,
	})
}

func RemoveLinks(input string) string {
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	return urlPattern.ReplaceAllString(input, "")
}

// ConvertMarkdownToText renders Reddit markdown and strips the resulting
// markup, leaving plain text with links removed.
func ConvertMarkdownToText(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	input = markdownLinkPattern.ReplaceAllString(input, "$1")
	output := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions(), blackfriday.WithRenderer(newPlainRenderer()))
	plain := html.UnescapeString(htmlTagPattern.ReplaceAllString(string(output), " "))
	plainText := strings.Join(strings.Fields(plain), " ")

	return RemoveLinks(plainText)
}

// NormalizeText lowercases s, removes URLs, replaces anything outside
// [a-z0-9 .,!?'] with a space and collapses whitespace.
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = urlPattern.ReplaceAllString(s, "")
	s = disallowedPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// PrepareText builds the analysis text for a submission. Reddit's
// [removed] and [deleted] placeholders are dropped before normalizing.
func PrepareText(title, selftext string) string {
	text := title + " " + ConvertMarkdownToText(selftext)
	return NormalizeText(placeholderPattern.ReplaceAllString(text, " "))
}

// PostFromSubmission converts a raw Reddit submission into a prepared post.
func PostFromSubmission(d models.RedditAPIChildData) models.Post {
	raw := d.Title + " " + d.Selftext
	return models.Post{
		ID:             d.ID,
		Author:         d.Author,
		Subreddit:      d.Subreddit,
		Title:          d.Title,
		CreatedAt:      d.CreatedTime(),
		RawText:        raw,
		NormalizedText: PrepareText(d.Title, d.Selftext),
	}
}
