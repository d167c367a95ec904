// Package scraper fetches article pages and extracts best-effort body
// text for items whose inline summary is too thin to score or
// summarize well.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/time/rate"

	"github.com/ainewsjp/ainews/internal/logger"
	"github.com/ainewsjp/ainews/internal/metrics"
	"github.com/ainewsjp/ainews/internal/news"
	"github.com/ainewsjp/ainews/internal/worker"
)

const (
	userAgent   = "Mozilla/5.0 (compatible; ainews/1.0)"
	maxBodySize = 2 << 20 // bytes read from one page
)

// Scraper fetches article bodies under a fixed timeout, pacing requests
// so upstream sites are not hammered.
type Scraper struct {
	client   *http.Client
	limiter  *rate.Limiter
	workers  int
	minChars int
}

// New creates a scraper with the given per-request timeout, worker
// count and minimum extracted-text floor.
func New(timeout time.Duration, workers, minChars int) *Scraper {
	return &Scraper{
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		workers:  workers,
		minChars: minChars,
	}
}

// EnrichAll fetches body text for every item whose summary is shorter
// than threshold. Items are processed by a fixed worker pool; any
// failure leaves that item without full text and never affects the
// rest of the batch.
func (s *Scraper) EnrichAll(ctx context.Context, items []news.Item, threshold int) {
	worker.Run(s.workers, len(items), func(i int) {
		it := &items[i]
		if len(it.Summary) >= threshold {
			return
		}
		text, err := s.Fetch(ctx, it.Link)
		if err != nil {
			logger.Debug("article fetch failed", "url", it.Link, "error", err)
			return
		}
		if len(text) < s.minChars {
			logger.Debug("extracted text too short", "url", it.Link, "chars", len(text))
			return
		}
		it.FullText = text
		metrics.Global.IncrementBodiesFetched()
		logger.Debug("article enriched", "url", it.Link, "chars", len(text))
	})
}

// Fetch downloads one page and extracts its visible text.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Scheme == "" || pageURL.Host == "" {
		return "", fmt.Errorf("invalid URL: %s", rawURL)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}

	return ExtractText(body, pageURL), nil
}

// ExtractText recovers article text from an HTML page: readability
// first, then the first non-empty of article, main and body elements.
// Whitespace is normalized either way.
func ExtractText(html []byte, pageURL *url.URL) string {
	if article, err := readability.FromReader(bytes.NewReader(html), pageURL); err == nil {
		if text := normalize(article.TextContent); text != "" {
			return text
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return ""
	}
	for _, selector := range []string{"article", "main", "body"} {
		if text := normalize(doc.Find(selector).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
