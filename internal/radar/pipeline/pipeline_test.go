package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/caijingx/newsradar/internal/radar/classifier"
	"github.com/caijingx/newsradar/internal/radar/model"
	"github.com/caijingx/newsradar/internal/radar/sources"
	"github.com/caijingx/newsradar/internal/radar/stockcode"
)

type stubAdapter struct {
	id    string
	items []model.NewsItem
	errs  []sources.FetchError
}

func (s *stubAdapter) ID() string   { return s.id }
func (s *stubAdapter) Name() string { return s.id }

func (s *stubAdapter) Fetch(context.Context, time.Duration) ([]model.NewsItem, []sources.FetchError) {
	return s.items, s.errs
}

func newTestClassifier(t *testing.T) *classifier.Classifier {
	t.Helper()
	mapping, err := stockcode.LoadMapping(filepath.Join(t.TempDir(), "mapping.json"))
	if err != nil {
		t.Fatal(err)
	}
	c, err := classifier.New(stockcode.NewResolver(mapping, nil), 5)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestRunEndToEnd(t *testing.T) {
	registry := sources.NewRegistry(2)
	registry.Register(&stubAdapter{
		id: "alpha",
		items: []model.NewsItem{
			{Title: "央行发布重大新政策", Content: "新的货币政策今日公布。", URL: "https://n/policy", Source: "alpha"},
			{Title: "科技行业周报", Content: "科技公司本周表现活跃。", URL: "https://n/tech", Source: "alpha"},
			{Title: "缺内容", URL: "https://n/empty", Source: "alpha"},
		},
	})
	registry.Register(&stubAdapter{
		id: "beta",
		items: []model.NewsItem{
			// Same URL as alpha's tech item: dropped by dedupe.
			{Title: "科技行业周报(转载)", Content: "转载内容。", URL: "https://n/tech", Source: "beta"},
		},
		errs: []sources.FetchError{{Source: "beta", URL: "https://n/bad", Err: errors.New("boom")}},
	})

	p := New(registry, newTestClassifier(t), 24*time.Hour, time.Minute)
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if result.Fetched != 4 {
		t.Errorf("fetched = %d, want 4", result.Fetched)
	}
	if result.Deduped != 3 {
		t.Errorf("deduped = %d, want 3 (one duplicate URL)", result.Deduped)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (item without content)", result.Skipped)
	}
	if len(result.Items) != 2 {
		t.Fatalf("classified %d items, want 2", len(result.Items))
	}
	if len(result.FetchErrors) != 1 {
		t.Errorf("fetch errors = %d, want 1", len(result.FetchErrors))
	}

	// First-wins dedupe keeps the registration-order earlier source.
	for _, item := range result.Items {
		if item.URL == "https://n/tech" && item.Source != "alpha" {
			t.Errorf("duplicate resolution kept %s, want alpha", item.Source)
		}
	}

	// Both grouped views cover every classified item.
	typed := 0
	for _, group := range result.ByType {
		typed += len(group)
	}
	if typed != len(result.Items) {
		t.Errorf("ByType covers %d items, want %d", typed, len(result.Items))
	}
	if len(result.ByIndustry) == 0 {
		t.Error("ByIndustry is empty")
	}

	if result.Duration <= 0 || result.StartedAt.IsZero() {
		t.Error("run bookkeeping not populated")
	}
}

func TestRunEmptyRegistry(t *testing.T) {
	p := New(sources.NewRegistry(1), newTestClassifier(t), 24*time.Hour, 0)
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Fetched != 0 || len(result.Items) != 0 || len(result.FetchErrors) != 0 {
		t.Fatalf("empty registry produced %+v", result)
	}
}

func TestRunCanceledContext(t *testing.T) {
	registry := sources.NewRegistry(1)
	registry.Register(&stubAdapter{id: "alpha"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New(registry, newTestClassifier(t), time.Hour, 0).Run(ctx); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
