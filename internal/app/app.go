// Package app wires the pipeline: ingest, enrich, score, select,
// localize, render, persist.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ainewsjp/ainews/internal/config"
	"github.com/ainewsjp/ainews/internal/feed"
	"github.com/ainewsjp/ainews/internal/logger"
	"github.com/ainewsjp/ainews/internal/metrics"
	"github.com/ainewsjp/ainews/internal/news"
	"github.com/ainewsjp/ainews/internal/render"
	"github.com/ainewsjp/ainews/internal/scraper"
	"github.com/ainewsjp/ainews/internal/store"
	"github.com/ainewsjp/ainews/internal/translate"
)

// Run executes one full pipeline pass. Startup failures (missing store,
// no translation capability, unreadable feeds config) return an error
// before any artifact is touched; per-source and per-item failures are
// absorbed by the stages themselves.
func Run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()
	defer func() {
		metrics.Global.RecordProcessingTime(time.Since(start))
	}()

	st := store.New(cfg.DataFilePath, cfg.MaxStoreItems)
	stored, err := st.Load()
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	logger.Info("store loaded", "items", len(stored))

	sources, err := feed.LoadSources(cfg.FeedsConfigPath)
	if err != nil {
		return fmt.Errorf("load feeds config: %w", err)
	}

	provider, err := translate.NewProvider(ctx, translate.Options{
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OpenAIAPIKey:  cfg.OpenAIAPIKey,
		LibreEndpoint: cfg.LibreEndpoint,
		SourceLang:    cfg.SourceLang,
		TargetLang:    cfg.TargetLang,
	})
	if err != nil {
		return err
	}
	defer provider.Close()

	seen := make(map[string]struct{}, len(stored))
	for i := range stored {
		seen[news.IdentityKey(&stored[i])] = struct{}{}
	}

	ingestor := feed.NewIngestor(cfg.RequestTimeout)
	newItems := ingestor.FetchAll(ctx, sources, seen)

	scr := scraper.New(cfg.FetchTimeout, cfg.FetchWorkers, cfg.MinFullText)
	scr.EnrichAll(ctx, newItems, cfg.EnrichThreshold)

	pool := make([]news.Item, 0, len(newItems)+len(stored))
	pool = append(pool, newItems...)
	pool = append(pool, stored...)
	for i := range pool {
		pool[i].Score = news.Score(&pool[i])
	}

	selected := news.Select(pool, cfg.MaxCandidates, cfg.MaxSelected)
	logger.Info("selection done", "pool", len(pool), "selected", len(selected))

	translate.EnrichAll(ctx, provider, selected, cfg.TranslateWorkers)

	renderer := render.New(render.Options{
		OutputDir: cfg.OutputDir,
		SiteTitle: cfg.SiteTitle,
		SiteLink:  cfg.SiteLink,
		SiteDesc:  cfg.SiteDesc,
		PageSize:  cfg.PageSize,
		FeedItems: cfg.FeedItems,
	})
	if err := renderer.RenderAll(selected); err != nil {
		return fmt.Errorf("render output: %w", err)
	}

	if err := st.Save(pool); err != nil {
		return fmt.Errorf("save store: %w", err)
	}

	metrics.Global.SetLastRun()
	logger.Info("run complete",
		"new_items", len(newItems),
		"pool_items", len(pool),
		"published", len(selected),
		"elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}
