// Package store persists the ordered item collection as a single JSON
// file, read in full at pipeline start and rewritten in full at the end.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ainewsjp/ainews/internal/news"
)

// Store manages data/items.json. A single scheduled run owns the file;
// there is no cross-run locking.
type Store struct {
	filePath string
	maxItems int
}

// New creates a store over filePath keeping at most maxItems records.
func New(filePath string, maxItems int) *Store {
	return &Store{filePath: filePath, maxItems: maxItems}
}

// Load reads the full item array. A missing file is an error: the store
// is created out of band and its absence means the job is misconfigured.
func (s *Store) Load() ([]news.Item, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("store file %s missing: %w", s.filePath, err)
		}
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var items []news.Item
	if len(data) > 0 {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("unmarshal store file: %w", err)
		}
	}

	for i := range items {
		if items[i].ShortSummary == "" && items[i].Summary != "" {
			items[i].ShortSummary = news.Truncate(items[i].Summary, news.ShortSummaryLimit)
		}
	}
	return items, nil
}

// Save dedupes by identity key, sorts by publish time descending, caps
// the retained window and rewrites the file atomically: the JSON goes to
// a temp file in the same directory which then replaces the old one, so
// a failed write leaves the previous store intact.
func (s *Store) Save(items []news.Item) error {
	items = Normalize(items, s.maxItems)

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "items-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

// Normalize applies the store invariants to an item list: unique by
// identity key (first occurrence wins), publishedAt descending, at most
// maxItems records.
func Normalize(items []news.Item, maxItems int) []news.Item {
	seen := make(map[string]struct{}, len(items))
	unique := make([]news.Item, 0, len(items))
	for _, it := range items {
		key := news.IdentityKey(&it)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, it)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].PublishedAt.After(unique[j].PublishedAt)
	})

	if maxItems > 0 && len(unique) > maxItems {
		unique = unique[:maxItems]
	}
	return unique
}
