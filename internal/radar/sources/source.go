// Package sources defines the news source adapter interface and the
// registry that fans fetches out across all enabled sources.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/caijingx/newsradar/internal/radar/model"
)

// FetchError records a failure for one URL of one source. Adapters collect
// these instead of aborting the batch, so the registry can report partial
// success.
type FetchError struct {
	Source string
	URL    string
	Err    error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("%s: fetch %s: %v", e.Source, e.URL, e.Err)
}

func (e FetchError) Unwrap() error { return e.Err }

// Adapter fetches and normalizes raw items from one external news source.
// Fetch returns the items published within the recency window plus any
// per-URL errors; it must not fail the whole batch for a single bad page.
type Adapter interface {
	// ID is the stable source identifier used in configuration.
	ID() string
	// Name is the human-readable source name stamped onto items.
	Name() string
	Fetch(ctx context.Context, window time.Duration) ([]model.NewsItem, []FetchError)
}

// Registry holds the enabled adapters in registration order and fetches
// from all of them concurrently through a bounded worker pool.
type Registry struct {
	adapters []Adapter
	workers  int
	logger   *slog.Logger
}

// NewRegistry creates a registry. workers bounds concurrent source
// fetches; zero or negative means one worker per adapter.
func NewRegistry(workers int) *Registry {
	return &Registry{workers: workers, logger: slog.Default()}
}

// Register appends an adapter. Registration order is the cross-source
// tie-break for deduplication downstream.
func (r *Registry) Register(a Adapter) {
	r.adapters = append(r.adapters, a)
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int { return len(r.adapters) }

// FetchAll runs every adapter and merges results in registration order,
// preserving each adapter's emission order. A failing source contributes
// its errors but never blocks the others.
func (r *Registry) FetchAll(ctx context.Context, window time.Duration) ([]model.NewsItem, []FetchError) {
	workers := r.workers
	if workers <= 0 || workers > len(r.adapters) {
		workers = len(r.adapters)
	}
	if workers == 0 {
		return nil, nil
	}

	itemsBySource := make([][]model.NewsItem, len(r.adapters))
	errsBySource := make([][]FetchError, len(r.adapters))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, a := range r.adapters {
		wg.Add(1)
		go func(idx int, adapter Adapter) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			items, errs := adapter.Fetch(ctx, window)
			itemsBySource[idx] = items
			errsBySource[idx] = errs
			r.logger.Info("source fetched",
				"source", adapter.ID(),
				"items", len(items),
				"errors", len(errs),
				"duration", time.Since(start))
		}(i, a)
	}
	wg.Wait()

	var allItems []model.NewsItem
	var allErrs []FetchError
	for i := range r.adapters {
		allItems = append(allItems, itemsBySource[i]...)
		allErrs = append(allErrs, errsBySource[i]...)
	}
	return allItems, allErrs
}

// withinWindow reports whether t falls inside the trailing window ending
// at now. The boundary instant itself is included.
func withinWindow(t, now time.Time, window time.Duration) bool {
	return now.Sub(t) <= window
}
