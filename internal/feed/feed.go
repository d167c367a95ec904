// Package feed pulls raw entries from the configured sources and
// normalizes them into new item records, deduplicating against
// everything already seen.
package feed

import (
	"context"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"github.com/ainewsjp/ainews/internal/logger"
	"github.com/ainewsjp/ainews/internal/metrics"
	"github.com/ainewsjp/ainews/internal/news"
)

// SourcesConfig is the YAML config structure
// feeds:
//   - https://...
type SourcesConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadSources reads the feed URL list from a YAML file.
func LoadSources(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg SourcesConfig
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}
	return cfg.Feeds, nil
}

// Ingestor fetches and normalizes feed entries.
type Ingestor struct {
	parser  *gofeed.Parser
	timeout time.Duration
	now     func() time.Time
}

func NewIngestor(timeout time.Duration) *Ingestor {
	return &Ingestor{
		parser:  gofeed.NewParser(),
		timeout: timeout,
		now:     time.Now,
	}
}

// FetchAll downloads and parses every source, returning the items not
// present in seen. seen must be pre-seeded with the stored items' keys
// so already-published items are never re-ingested; it is extended with
// each accepted key, which also dedupes across sources within the run.
// A failing source is logged and skipped, never aborting the run.
func (g *Ingestor) FetchAll(ctx context.Context, urls []string, seen map[string]struct{}) []news.Item {
	var items []news.Item
	successCount := 0

	for _, u := range urls {
		fetched, err := g.fetchOne(ctx, u)
		if err != nil {
			logger.Warn("feed fetch failed", "url", u, "error", err)
			metrics.Global.IncrementSourcesFailed()
			continue
		}
		successCount++

		accepted := 0
		for _, entry := range fetched.Items {
			it, ok := g.normalize(entry, fetched.Title)
			if !ok {
				continue
			}
			key := news.IdentityKey(&it)
			if _, dup := seen[key]; dup {
				metrics.Global.IncrementDuplicatesFiltered()
				continue
			}
			seen[key] = struct{}{}
			items = append(items, it)
			accepted++
			metrics.Global.IncrementItemsIngested()
		}
		logger.Info("feed processed", "url", u, "entries", len(fetched.Items), "new", accepted)
	}

	logger.Info("feeds processed", "ok", successCount, "total", len(urls), "new_items", len(items))
	return items
}

func (g *Ingestor) fetchOne(ctx context.Context, url string) (*gofeed.Feed, error) {
	fctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.parser.ParseURLWithContext(url, fctx)
}

// normalize builds an item from a raw entry. Entries without a link are
// malformed for our purposes and dropped rather than stored.
func (g *Ingestor) normalize(entry *gofeed.Item, feedTitle string) (news.Item, bool) {
	if strings.TrimSpace(entry.Link) == "" {
		return news.Item{}, false
	}

	published := g.now()
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = *entry.UpdatedParsed
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		title = news.PlaceholderTitle
	}

	it := news.Item{
		Link:        strings.TrimSpace(entry.Link),
		Title:       title,
		PublishedAt: published,
		Source:      strings.TrimSpace(feedTitle),
	}
	it.SetSummary(pickSummary(entry))
	return it, true
}

// pickSummary takes the first non-empty of description (the snippet),
// full content, then nothing, stripped down to display-ready text.
func pickSummary(entry *gofeed.Item) string {
	for _, raw := range []string{entry.Description, entry.Content} {
		if s := StripHTML(raw); s != "" {
			return s
		}
	}
	return ""
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripHTML drops markup and collapses whitespace.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}
