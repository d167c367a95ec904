// Package render turns the published item set into the static artifact
// set: paginated HTML documents, a stylesheet and an RSS feed. Every
// artifact is regenerated in full on every run.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/gorilla/feeds"

	"github.com/ainewsjp/ainews/internal/logger"
	"github.com/ainewsjp/ainews/internal/news"
)

// Options carries site metadata and pagination knobs.
type Options struct {
	OutputDir string
	SiteTitle string
	SiteLink  string
	SiteDesc  string
	PageSize  int
	FeedItems int
}

// Renderer writes the output artifact set. All writes are whole-file
// overwrites, so a failed run leaves only complete artifacts behind.
type Renderer struct {
	opts Options
	tmpl *template.Template
	now  func() time.Time
}

func New(opts Options) *Renderer {
	return &Renderer{
		opts: opts,
		tmpl: template.Must(template.New("page").Parse(pageTemplate)),
		now:  time.Now,
	}
}

// RenderAll writes the index, the numbered pages, the stylesheet and
// the feed document for the given ordered item set.
func (r *Renderer) RenderAll(items []*news.Item) error {
	if err := os.MkdirAll(r.opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	pages := paginate(items, r.opts.PageSize)
	for i, pageItems := range pages {
		if err := r.renderPage(i+1, len(pages), pageItems); err != nil {
			return err
		}
	}

	if err := r.writeFile("style.css", []byte(styleSheet)); err != nil {
		return err
	}
	if err := r.renderFeed(items); err != nil {
		return err
	}

	logger.Info("site rendered", "items", len(items), "pages", len(pages))
	return nil
}

// paginate splits items into pageSize chunks, always yielding at least
// one (possibly empty) page so the index exists even on a dry run.
func paginate(items []*news.Item, pageSize int) [][]*news.Item {
	if pageSize <= 0 {
		return [][]*news.Item{items}
	}
	var pages [][]*news.Item
	for start := 0; start < len(items); start += pageSize {
		end := start + pageSize
		if end > len(items) {
			end = len(items)
		}
		pages = append(pages, items[start:end])
	}
	if len(pages) == 0 {
		pages = append(pages, nil)
	}
	return pages
}

func pageFileName(n int) string {
	if n == 1 {
		return "index.html"
	}
	return fmt.Sprintf("page%d.html", n)
}

type pageData struct {
	SiteTitle   string
	PageNum     int
	TotalPages  int
	Items       []*news.Item
	PrevPath    string
	NextPath    string
	GeneratedAt string
}

func (r *Renderer) renderPage(num, total int, items []*news.Item) error {
	data := pageData{
		SiteTitle:   r.opts.SiteTitle,
		PageNum:     num,
		TotalPages:  total,
		Items:       items,
		GeneratedAt: r.now().Format("2006-01-02 15:04 MST"),
	}
	if num > 1 {
		data.PrevPath = pageFileName(num - 1)
	}
	if num < total {
		data.NextPath = pageFileName(num + 1)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render page %d: %w", num, err)
	}
	return r.writeFile(pageFileName(num), buf.Bytes())
}

func (r *Renderer) renderFeed(items []*news.Item) error {
	feed := &feeds.Feed{
		Title:       r.opts.SiteTitle,
		Link:        &feeds.Link{Href: r.opts.SiteLink},
		Description: r.opts.SiteDesc,
		Created:     r.now(),
	}

	limit := r.opts.FeedItems
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}
	for _, it := range items[:limit] {
		title := it.DisplayTitle()
		if it.TranslatedTitle != "" {
			title = it.TranslatedTitle
		}
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       title,
			Link:        &feeds.Link{Href: it.Link},
			Description: it.ShortSummary,
			Created:     it.PublishedAt,
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return fmt.Errorf("build rss feed: %w", err)
	}
	return r.writeFile("rss.xml", []byte(rss))
}

func (r *Renderer) writeFile(name string, data []byte) error {
	path := filepath.Join(r.opts.OutputDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

const pageTemplate = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.SiteTitle}}{{if gt .PageNum 1}} — page {{.PageNum}}{{end}}</title>
<link rel="stylesheet" href="style.css">
<link rel="alternate" type="application/rss+xml" title="{{.SiteTitle}}" href="rss.xml">
</head>
<body>
<header>
<h1>{{.SiteTitle}}</h1>
</header>
<main>
{{range .Items}}
<article>
<h2><a href="{{.Link}}">{{.DisplayTitle}}</a></h2>
{{if .TranslatedTitle}}<p class="translated-title">{{.TranslatedTitle}}</p>{{end}}
<p class="meta">{{.Source}} · {{.PublishedAt.Format "2006-01-02 15:04"}}</p>
{{if .ShortSummary}}<p class="summary">{{.ShortSummary}}</p>{{end}}
</article>
{{else}}
<p class="empty">No items yet.</p>
{{end}}
</main>
<nav>
{{if .PrevPath}}<a class="prev" href="{{.PrevPath}}">&laquo; Newer</a>{{end}}
<span class="page">{{.PageNum}} / {{.TotalPages}}</span>
{{if .NextPath}}<a class="next" href="{{.NextPath}}">Older &raquo;</a>{{end}}
</nav>
<footer>
<p>Generated {{.GeneratedAt}}</p>
</footer>
</body>
</html>
`

// styleSheet is static: byte-identical output on every run.
const styleSheet = `:root {
  --fg: #1a1a1a;
  --muted: #6b6b6b;
  --accent: #0a5bd3;
  --bg: #fdfdfd;
  --card: #ffffff;
  --border: #e3e3e3;
}

* { box-sizing: border-box; }

body {
  margin: 0 auto;
  max-width: 46rem;
  padding: 0 1rem 3rem;
  font-family: "Hiragino Sans", "Noto Sans JP", system-ui, sans-serif;
  color: var(--fg);
  background: var(--bg);
  line-height: 1.65;
}

header h1 {
  font-size: 1.6rem;
  border-bottom: 2px solid var(--accent);
  padding-bottom: .4rem;
}

article {
  background: var(--card);
  border: 1px solid var(--border);
  border-radius: 6px;
  padding: 1rem 1.2rem;
  margin-bottom: 1rem;
}

article h2 { font-size: 1.1rem; margin: 0 0 .3rem; }
article h2 a { color: var(--accent); text-decoration: none; }
article h2 a:hover { text-decoration: underline; }

.translated-title { margin: 0 0 .3rem; font-weight: 600; }
.meta { margin: 0 0 .5rem; color: var(--muted); font-size: .85rem; }
.summary { margin: 0; }
.empty { color: var(--muted); }

nav {
  display: flex;
  justify-content: space-between;
  align-items: center;
  margin-top: 1.5rem;
}

nav .page { color: var(--muted); }
nav a { color: var(--accent); text-decoration: none; }

footer { margin-top: 2rem; color: var(--muted); font-size: .8rem; }
`
