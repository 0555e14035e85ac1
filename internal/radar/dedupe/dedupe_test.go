package dedupe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caijingx/newsradar/internal/radar/dedupe"
	"github.com/caijingx/newsradar/internal/radar/model"
)

func item(url, source string) model.NewsItem {
	return model.NewsItem{Title: "t", Content: "c", URL: url, Source: source}
}

func TestByURLFirstWins(t *testing.T) {
	// Two sources report the same URL; the earlier reporter keeps it.
	in := []model.NewsItem{
		item("https://x/1", "sina"),
		item("https://x/2", "sina"),
		item("https://x/1", "eastmoney"),
	}
	out := dedupe.ByURL(in)

	require.Len(t, out, 2)
	require.Equal(t, "https://x/1", out[0].URL)
	require.Equal(t, "sina", out[0].Source)
	require.Equal(t, "https://x/2", out[1].URL)
}

func TestByURLIdempotent(t *testing.T) {
	in := []model.NewsItem{
		item("u1", "a"), item("u2", "a"), item("u1", "b"), item("u3", "b"), item("u2", "b"),
	}
	once := dedupe.ByURL(in)
	twice := dedupe.ByURL(once)
	require.Equal(t, once, twice)

	seen := map[string]bool{}
	for _, it := range once {
		require.False(t, seen[it.URL], "duplicate url %s survived", it.URL)
		seen[it.URL] = true
	}
}

func TestByURLEmpty(t *testing.T) {
	require.Empty(t, dedupe.ByURL(nil))
}
