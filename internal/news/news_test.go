package news

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateKeepsShortStrings(t *testing.T) {
	s := "a short summary"
	assert.Equal(t, s, Truncate(s, ShortSummaryLimit))
}

func TestTruncateCapsAndMarks(t *testing.T) {
	long := strings.Repeat("à", ShortSummaryLimit+40)
	got := Truncate(long, ShortSummaryLimit)
	assert.LessOrEqual(t, utf8.RuneCountInString(got), ShortSummaryLimit)
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestSetSummaryRecomputesShortSummary(t *testing.T) {
	var it Item
	it.SetSummary("brief")
	assert.Equal(t, "brief", it.ShortSummary)

	long := strings.Repeat("word ", 100)
	it.SetSummary(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(it.ShortSummary), ShortSummaryLimit)
	assert.NotEqual(t, it.Summary, it.ShortSummary)
}

func TestIdentityKeyPrefersLink(t *testing.T) {
	it := Item{Link: "https://a/1", Title: "ignored", PublishedAt: time.Now()}
	assert.Equal(t, "https://a/1", IdentityKey(&it))
}

func TestIdentityKeyFallbackWithoutLink(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	a := Item{Title: "Some Headline", PublishedAt: ts}
	b := Item{Title: "some headline", PublishedAt: ts}
	c := Item{Title: "some headline", PublishedAt: ts.Add(time.Hour)}

	assert.Equal(t, IdentityKey(&a), IdentityKey(&b))
	assert.NotEqual(t, IdentityKey(&a), IdentityKey(&c))
}

func TestIdentityKeyCanonicalization(t *testing.T) {
	tests := []struct {
		name  string
		left  string
		right string
		same  bool
	}{
		{"host case ignored", "https://Example.com/a/1", "https://example.com/a/1", true},
		{"scheme case ignored", "HTTPS://example.com/a/1", "https://example.com/a/1", true},
		{"trailing slash ignored", "https://example.com/a/1/", "https://example.com/a/1", true},
		{"path case significant", "https://example.com/A/1", "https://example.com/a/1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Item{Link: tt.left}
			r := Item{Link: tt.right}
			if tt.same {
				assert.Equal(t, IdentityKey(&l), IdentityKey(&r))
			} else {
				assert.NotEqual(t, IdentityKey(&l), IdentityKey(&r))
			}
		})
	}
}

func TestScoreMonotonicInKeywordCount(t *testing.T) {
	one := Item{Title: "AI breakthrough", Summary: "plain text"}
	three := Item{Title: "AI breakthrough", Summary: "AI beats AI at go"}
	assert.GreaterOrEqual(t, Score(&three), Score(&one))
}

func TestScoreCapsRepeatedKeyword(t *testing.T) {
	spam := Item{Summary: strings.Repeat("llm ", 50)}
	assert.Equal(t, perKeywordCap, Score(&spam))
}

func TestScoreWordBoundaryForShortTokens(t *testing.T) {
	it := Item{Summary: "he said it is paid maintenance"}
	assert.Equal(t, 0, Score(&it))
}

func TestScoreSourceBoost(t *testing.T) {
	plain := Item{Summary: "nothing topical"}
	boosted := Item{Summary: "nothing topical", Source: "AI Weekly"}
	assert.Equal(t, Score(&plain)+sourceBoost, Score(&boosted))
}

func TestSelectBoundsPublishedSet(t *testing.T) {
	now := time.Now()
	pool := make([]Item, 100)
	for i := range pool {
		pool[i] = Item{
			Link:        "https://example.com/" + strings.Repeat("x", i+1),
			PublishedAt: now.Add(-time.Duration(i) * time.Minute),
			Score:       i % 7,
		}
	}

	selected := Select(pool, 50, 20)
	require.Len(t, selected, 20)
}

func TestSelectPrefersScoreInsideRecencyWindow(t *testing.T) {
	now := time.Now()
	pool := []Item{
		{Link: "https://a/new-dull", PublishedAt: now, Score: 0},
		{Link: "https://a/older-topical", PublishedAt: now.Add(-time.Hour), Score: 9},
	}

	selected := Select(pool, 50, 1)
	require.Len(t, selected, 1)
	assert.Equal(t, "https://a/older-topical", selected[0].Link)
}

func TestSelectRecencyTieBreak(t *testing.T) {
	now := time.Now()
	pool := []Item{
		{Link: "https://a/old", PublishedAt: now.Add(-time.Hour), Score: 5},
		{Link: "https://a/new", PublishedAt: now, Score: 5},
	}

	selected := Select(pool, 50, 2)
	require.Len(t, selected, 2)
	assert.Equal(t, "https://a/new", selected[0].Link)
}

func TestSelectExcludesOldItemsByRecencyPrefix(t *testing.T) {
	now := time.Now()
	pool := make([]Item, 0, 51)
	for i := 0; i < 50; i++ {
		pool = append(pool, Item{
			Link:        "https://a/recent",
			PublishedAt: now.Add(-time.Duration(i) * time.Minute),
			Score:       1,
		})
	}
	// Very topical but far outside the recency window.
	pool = append(pool, Item{
		Link:        "https://a/ancient",
		PublishedAt: now.Add(-90 * 24 * time.Hour),
		Score:       100,
	})

	for _, sel := range Select(pool, 50, 20) {
		assert.NotEqual(t, "https://a/ancient", sel.Link)
	}
}

func TestSelectReturnsPointersIntoPool(t *testing.T) {
	pool := []Item{{Link: "https://a/1", PublishedAt: time.Now(), Score: 1}}
	selected := Select(pool, 50, 20)
	require.Len(t, selected, 1)

	selected[0].TranslatedTitle = "翻訳"
	assert.Equal(t, "翻訳", pool[0].TranslatedTitle)
}
