package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Paths
	FeedsConfigPath string
	DataFilePath    string
	OutputDir       string

	// Site metadata
	SiteTitle string
	SiteLink  string
	SiteDesc  string

	// Selection policy
	MaxStoreItems int
	MaxCandidates int
	MaxSelected   int

	// Output layout
	PageSize  int
	FeedItems int

	// Enrichment
	FetchWorkers     int
	TranslateWorkers int
	FetchTimeout     time.Duration
	RequestTimeout   time.Duration
	EnrichThreshold  int // summary length below which the body is fetched
	MinFullText      int // extracted text shorter than this is discarded

	// Translation
	GeminiAPIKey  string
	OpenAIAPIKey  string
	LibreEndpoint string
	SourceLang    string
	TargetLang    string

	// App
	Schedule string // cron expression; empty means run once
	Debug    bool
}

func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		FeedsConfigPath:  "configs/feeds.yaml",
		DataFilePath:     "data/items.json",
		OutputDir:        "public",
		SiteTitle:        "AI News JP",
		SiteLink:         "https://example.com/",
		SiteDesc:         "AI news, translated and summarized in Japanese",
		MaxStoreItems:    500,
		MaxCandidates:    50,
		MaxSelected:      20,
		PageSize:         20,
		FeedItems:        20,
		FetchWorkers:     3,
		TranslateWorkers: 3,
		FetchTimeout:     15 * time.Second,
		RequestTimeout:   30 * time.Second,
		EnrichThreshold:  200,
		MinFullText:      200,
		SourceLang:       "en",
		TargetLang:       "ja",
	}

	cfg.FeedsConfigPath = getEnvOrDefault("FEEDS_CONFIG_PATH", cfg.FeedsConfigPath)
	cfg.DataFilePath = getEnvOrDefault("DATA_FILE_PATH", cfg.DataFilePath)
	cfg.OutputDir = getEnvOrDefault("OUTPUT_DIR", cfg.OutputDir)
	cfg.SiteTitle = getEnvOrDefault("SITE_TITLE", cfg.SiteTitle)
	cfg.SiteLink = getEnvOrDefault("SITE_LINK", cfg.SiteLink)
	cfg.SiteDesc = getEnvOrDefault("SITE_DESCRIPTION", cfg.SiteDesc)

	cfg.MaxStoreItems = getEnvIntOrDefault("MAX_STORE_ITEMS", cfg.MaxStoreItems)
	cfg.MaxCandidates = getEnvIntOrDefault("MAX_CANDIDATES", cfg.MaxCandidates)
	cfg.MaxSelected = getEnvIntOrDefault("MAX_SELECTED", cfg.MaxSelected)
	cfg.PageSize = getEnvIntOrDefault("PAGE_SIZE", cfg.PageSize)
	cfg.FeedItems = getEnvIntOrDefault("FEED_ITEMS", cfg.FeedItems)
	cfg.FetchWorkers = getEnvIntOrDefault("FETCH_WORKERS", cfg.FetchWorkers)
	cfg.TranslateWorkers = getEnvIntOrDefault("TRANSLATE_WORKERS", cfg.TranslateWorkers)
	cfg.EnrichThreshold = getEnvIntOrDefault("ENRICH_THRESHOLD", cfg.EnrichThreshold)
	cfg.MinFullText = getEnvIntOrDefault("MIN_FULL_TEXT", cfg.MinFullText)

	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.FetchTimeout = time.Duration(val) * time.Second
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LibreEndpoint = os.Getenv("LIBRETRANSLATE_ENDPOINT")
	cfg.SourceLang = getEnvOrDefault("SOURCE_LANG", cfg.SourceLang)
	cfg.TargetLang = getEnvOrDefault("TARGET_LANG", cfg.TargetLang)

	cfg.Schedule = os.Getenv("RUN_SCHEDULE")
	if debug := os.Getenv("DEBUG"); debug == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if c.FeedsConfigPath == "" {
		return fmt.Errorf("feeds config path is required")
	}
	if c.DataFilePath == "" {
		return fmt.Errorf("data file path is required")
	}
	if c.MaxSelected > c.MaxCandidates {
		return fmt.Errorf("MAX_SELECTED (%d) must not exceed MAX_CANDIDATES (%d)", c.MaxSelected, c.MaxCandidates)
	}
	if c.MaxStoreItems < c.MaxSelected {
		return fmt.Errorf("MAX_STORE_ITEMS (%d) must hold at least one published set (%d)", c.MaxStoreItems, c.MaxSelected)
	}
	return nil
}
