package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ainewsjp/ainews/internal/config"
	"github.com/ainewsjp/ainews/internal/news"
	"github.com/ainewsjp/ainews/internal/translate"
)

const longSummary = "This summary is deliberately padded to stay above the enrichment threshold so the test run never fetches article bodies over the network. " +
	"It keeps going with more English words about artificial intelligence research and large language models until it is comfortably long enough."

func rssWithItems(links ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>Test AI Feed</title><link>https://example.com</link>`)
	for i, link := range links {
		fmt.Fprintf(&b, `<item><title>Story %d</title><link>%s</link><description>%s</description><pubDate>Mon, 03 Jun 2024 0%d:00:00 +0000</pubDate></item>`,
			i+1, link, longSummary, i+1)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

type env struct {
	cfg        *config.Config
	storePath  string
	libreHits  *int64
	libreError *atomic.Bool
}

func newEnv(t *testing.T, rssBody string) *env {
	t.Helper()
	dir := t.TempDir()

	rssSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssBody)
	}))
	t.Cleanup(rssSrv.Close)

	var hits int64
	var libreDown atomic.Bool
	libreSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		if libreDown.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"translatedText":"日本語のテキストです。"}`)
	}))
	t.Cleanup(libreSrv.Close)

	feedsPath := filepath.Join(dir, "feeds.yaml")
	require.NoError(t, os.WriteFile(feedsPath, []byte("feeds:\n  - "+rssSrv.URL+"\n"), 0o644))

	storePath := filepath.Join(dir, "items.json")

	return &env{
		cfg: &config.Config{
			FeedsConfigPath:  feedsPath,
			DataFilePath:     storePath,
			OutputDir:        filepath.Join(dir, "public"),
			SiteTitle:        "AI News JP",
			SiteLink:         "https://ainews.example",
			SiteDesc:         "test",
			MaxStoreItems:    500,
			MaxCandidates:    50,
			MaxSelected:      20,
			PageSize:         20,
			FeedItems:        20,
			FetchWorkers:     2,
			TranslateWorkers: 2,
			FetchTimeout:     2 * time.Second,
			RequestTimeout:   5 * time.Second,
			EnrichThreshold:  100,
			MinFullText:      100,
			LibreEndpoint:    libreSrv.URL,
			SourceLang:       "en",
			TargetLang:       "ja",
		},
		storePath:  storePath,
		libreHits:  &hits,
		libreError: &libreDown,
	}
}

func (e *env) seedStore(t *testing.T, items []news.Item) {
	t.Helper()
	data, err := json.Marshal(items)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(e.storePath, data, 0o644))
}

func (e *env) loadStore(t *testing.T) []news.Item {
	t.Helper()
	data, err := os.ReadFile(e.storePath)
	require.NoError(t, err)
	var items []news.Item
	require.NoError(t, json.Unmarshal(data, &items))
	return items
}

func TestRunFailsWithoutStoreFile(t *testing.T) {
	e := newEnv(t, rssWithItems("https://a/1"))
	err := Run(context.Background(), e.cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store")
}

func TestRunDedupesNewAgainstStored(t *testing.T) {
	e := newEnv(t, rssWithItems("https://a/1", "https://a/2"))
	e.seedStore(t, []news.Item{{
		Link:        "https://a/1",
		Title:       "Existing story",
		PublishedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Summary:     longSummary,
	}})

	require.NoError(t, Run(context.Background(), e.cfg))

	items := e.loadStore(t)
	assert.Len(t, items, 2, "pool must contain exactly two items, not three")
	links := []string{items[0].Link, items[1].Link}
	assert.Contains(t, links, "https://a/1")
	assert.Contains(t, links, "https://a/2")
}

func TestRunCompletesWhenTranslationAlwaysFails(t *testing.T) {
	e := newEnv(t, rssWithItems("https://a/1", "https://a/2"))
	e.seedStore(t, nil)
	e.libreError.Store(true)

	require.NoError(t, Run(context.Background(), e.cfg))

	for _, it := range e.loadStore(t) {
		assert.Empty(t, it.TranslatedTitle)
	}
	for _, name := range []string{"index.html", "style.css", "rss.xml"} {
		assert.FileExists(t, filepath.Join(e.cfg.OutputDir, name))
	}
}

func TestRunLocalizesSelectedItems(t *testing.T) {
	e := newEnv(t, rssWithItems("https://a/1"))
	e.seedStore(t, nil)

	require.NoError(t, Run(context.Background(), e.cfg))

	items := e.loadStore(t)
	require.Len(t, items, 1)
	assert.Equal(t, "日本語のテキストです。", items[0].TranslatedTitle)
	assert.False(t, translate.LooksEnglish(items[0].Summary))
	assert.Equal(t, items[0].Summary, items[0].ShortSummary)
}

func TestRunIsIdempotentAgainstUnchangedUpstream(t *testing.T) {
	e := newEnv(t, rssWithItems("https://a/1", "https://a/2"))
	e.seedStore(t, nil)

	require.NoError(t, Run(context.Background(), e.cfg))
	first := e.loadStore(t)
	firstHits := atomic.LoadInt64(e.libreHits)
	assert.Greater(t, firstHits, int64(0))

	require.NoError(t, Run(context.Background(), e.cfg))
	second := e.loadStore(t)

	assert.Equal(t, first, second, "second run against unchanged upstream must not change the store")
	assert.Equal(t, firstHits, atomic.LoadInt64(e.libreHits),
		"already-localized items must not be re-translated")
}
