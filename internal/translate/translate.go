// Package translate localizes titles and summaries into Japanese
// through whichever provider is available at startup.
package translate

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ainewsjp/ainews/internal/logger"
	"github.com/ainewsjp/ainews/internal/metrics"
	"github.com/ainewsjp/ainews/internal/news"
	"github.com/ainewsjp/ainews/internal/worker"
)

// summarizeInputLimit caps how much source text is handed to a provider.
const summarizeInputLimit = 8000

// Provider is the translation/summarization capability. Both calls are
// best-effort; a failed call must leave the caller free to continue.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
	Close() error
}

// Options selects and configures a provider.
type Options struct {
	GeminiAPIKey  string
	OpenAIAPIKey  string
	LibreEndpoint string
	SourceLang    string
	TargetLang    string
}

// NewProvider picks the session-based Gemini provider when a key is
// configured, falling back to the HTTP translation chain. The choice is
// made once per run. An error here is fatal for the run: the pipeline
// refuses to start without any translation capability.
func NewProvider(ctx context.Context, opts Options) (Provider, error) {
	if opts.GeminiAPIKey != "" {
		p, err := NewGemini(ctx, opts.GeminiAPIKey)
		if err == nil {
			logger.Info("translation provider ready", "provider", p.Name())
			return p, nil
		}
		logger.Warn("gemini init failed, falling back to HTTP translation", "error", err)
	}

	p, err := NewHTTPTranslator(opts)
	if err != nil {
		return nil, fmt.Errorf("no translation provider available: %w", err)
	}
	logger.Info("translation provider ready", "provider", p.Name())
	return p, nil
}

// EnrichAll localizes the selected items under a fixed worker pool.
// Titles are translated once and never refreshed; summaries are
// regenerated only while they still look untranslated. Every item is
// isolated: one failure never blocks the others.
func EnrichAll(ctx context.Context, p Provider, items []*news.Item, workers int) {
	worker.Run(workers, len(items), func(i int) {
		it := items[i]

		if it.TranslatedTitle == "" {
			translated, err := p.Translate(ctx, it.DisplayTitle())
			if err != nil {
				logger.Warn("title translation failed", "title", it.Title, "error", err)
				metrics.Global.IncrementTranslationsFailed()
			} else if t := strings.TrimSpace(translated); t != "" {
				it.TranslatedTitle = t
				metrics.Global.IncrementTranslationsOK()
			}
		}

		if !needsSummary(it) {
			return
		}
		source := summarySource(it)
		if source == "" {
			return
		}
		summary, err := p.Summarize(ctx, news.Truncate(source, summarizeInputLimit))
		if err != nil {
			logger.Warn("summarization failed", "title", it.Title, "error", err)
			return
		}
		if s := strings.TrimSpace(summary); s != "" {
			it.SetSummary(s)
			metrics.Global.IncrementSummariesOK()
		}
	})
}

// needsSummary reports whether the item's summary still wants
// localization: either it reads as English, or it is empty while a
// fetched body exists to summarize.
func needsSummary(it *news.Item) bool {
	if it.Summary == "" {
		return it.FullText != ""
	}
	return LooksEnglish(it.Summary)
}

// summarySource picks the richest available text to summarize.
func summarySource(it *news.Item) string {
	for _, s := range []string{it.FullText, it.Summary, it.ShortSummary} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

var latinRun = regexp.MustCompile(`(?i)[a-z]{3,}`)

// LooksEnglish checks the head of the text for a run of latin letters.
// A summary that was already localized stops matching, which is what
// keeps reruns from re-summarizing finished items.
func LooksEnglish(s string) bool {
	if s == "" {
		return false
	}
	head := s
	if utf8.RuneCountInString(head) > 40 {
		head = string([]rune(head)[:40])
	}
	return latinRun.MatchString(head)
}

// ExtractiveSummary picks the first couple of substantial sentences.
// Used when no model-generated summary is available.
func ExtractiveSummary(content string) string {
	c := strings.TrimSpace(content)
	if c == "" {
		return ""
	}
	sentences := strings.Split(c, ". ")
	var picked []string
	for _, s := range sentences {
		s = strings.TrimSpace(strings.TrimSuffix(s, "."))
		if len(s) < 25 {
			continue
		}
		picked = append(picked, s)
		if len(picked) >= 2 {
			break
		}
	}
	if len(picked) == 0 {
		return news.Truncate(c, 200)
	}
	return strings.Join(picked, ". ") + "."
}
