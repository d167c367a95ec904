package news

import (
	"regexp"
	"sort"
	"strings"
)

// perKeywordCap keeps one heavily repeated term from dominating the score.
const perKeywordCap = 5

// sourceBoost is added when the source name itself is AI-flavoured.
const sourceBoost = 3

// topicKeywords drive relevance scoring. Short tokens are matched on
// word boundaries so "ai" does not fire inside "said".
var topicKeywords = []string{
	"ai",
	"artificial intelligence",
	"machine learning",
	"deep learning",
	"neural network",
	"llm",
	"large language model",
	"gpt",
	"chatgpt",
	"openai",
	"anthropic",
	"claude",
	"gemini",
	"transformer",
	"generative",
	"agent",
	"inference",
	"fine-tuning",
}

var keywordPatterns = compileKeywords(topicKeywords)

var sourceMarker = regexp.MustCompile(`\bai\b`)

func compileKeywords(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		expr := regexp.QuoteMeta(k)
		if len(k) <= 3 {
			expr = `\b` + expr + `\b`
		}
		patterns = append(patterns, regexp.MustCompile(expr))
	}
	return patterns
}

// Score rates an item's topical relevance from its text alone. Each
// keyword contributes min(count, 5); an AI-flavoured source name adds a
// fixed boost. Pure function, recomputed every run, never persisted.
func Score(it *Item) int {
	text := strings.ToLower(it.Title + " " + it.Summary + " " + it.FullText)

	score := 0
	for _, p := range keywordPatterns {
		count := len(p.FindAllStringIndex(text, perKeywordCap))
		score += count
	}
	if sourceMarker.MatchString(strings.ToLower(it.Source)) {
		score += sourceBoost
	}
	return score
}

// Select picks the published set from the candidate pool: the most
// recent maxCandidates items re-ranked by score, top maxSelected kept.
// The recency prefix stops keyword density from resurrecting very old
// items; the score re-rank stops freshness alone from crowding out more
// topical ones inside that window. Returned pointers alias the pool so
// later enrichment is visible at store-write time.
func Select(pool []Item, maxCandidates, maxSelected int) []*Item {
	candidates := make([]*Item, len(pool))
	for i := range pool {
		candidates[i] = &pool[i]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})
	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].PublishedAt.After(candidates[j].PublishedAt)
	})
	if len(candidates) > maxSelected {
		candidates = candidates[:maxSelected]
	}
	return candidates
}
