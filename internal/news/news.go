package news

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// ShortSummaryLimit is the display budget for short summaries, in runes.
const ShortSummaryLimit = 160

// PlaceholderTitle is stored when a feed entry carries no title.
const PlaceholderTitle = "(no title)"

// Item is a single aggregated news item. The JSON tags match the
// historical items.json layout, so an existing store file keeps working.
type Item struct {
	Link            string    `json:"link"`
	Title           string    `json:"title"`
	PublishedAt     time.Time `json:"published_at"`
	Source          string    `json:"source"`
	Summary         string    `json:"summary"`
	ShortSummary    string    `json:"short_summary"`
	TranslatedTitle string    `json:"translated_title_ja"`

	// FullText and Score live only for the duration of a run.
	FullText string `json:"-"`
	Score    int    `json:"-"`
}

// SetSummary updates the summary and keeps the short summary in sync.
func (it *Item) SetSummary(s string) {
	it.Summary = s
	it.ShortSummary = Truncate(s, ShortSummaryLimit)
}

// DisplayTitle returns the title, falling back to the placeholder.
func (it *Item) DisplayTitle() string {
	if strings.TrimSpace(it.Title) == "" {
		return PlaceholderTitle
	}
	return it.Title
}

// Truncate caps s at limit runes, appending an ellipsis when it cuts.
// A string that already fits is returned unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

// IdentityKey decides whether two items refer to the same content.
// The canonical link wins; items without a link key on title plus
// publish timestamp. The same key is used for in-run and cross-run dedup.
func IdentityKey(it *Item) string {
	if strings.TrimSpace(it.Link) != "" {
		return CanonicalLink(it.Link)
	}
	return fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(it.Title)), it.PublishedAt.Unix())
}

// CanonicalLink lowercases the scheme and host and drops a trailing
// slash. The path keeps its case: hostnames are case-insensitive,
// article paths upstream are not.
func CanonicalLink(link string) string {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(link, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""
	return u.String()
}
