// Package pipeline wires the ingestion stages together: fan-out fetch,
// cross-source deduplication, classification, and grouping.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/caijingx/newsradar/internal/radar/classifier"
	"github.com/caijingx/newsradar/internal/radar/dedupe"
	"github.com/caijingx/newsradar/internal/radar/grouper"
	"github.com/caijingx/newsradar/internal/radar/model"
	"github.com/caijingx/newsradar/internal/radar/sources"
)

// Result is the outcome of one pipeline run: the classified items, both
// grouped views, and the run's bookkeeping. Fetch errors are carried along
// rather than aborting the run.
type Result struct {
	Items      []model.ClassifiedItem
	ByType     map[model.NewsType][]model.ClassifiedItem
	ByIndustry map[string][]model.ClassifiedItem

	FetchErrors []sources.FetchError
	Fetched     int
	Deduped     int
	Skipped     int
	StartedAt   time.Time
	Duration    time.Duration
}

// Pipeline runs the ingestion and classification stages as one batch.
type Pipeline struct {
	registry   *sources.Registry
	classifier *classifier.Classifier
	window     time.Duration
	timeout    time.Duration
	logger     *slog.Logger
}

// New assembles a pipeline. timeout bounds a whole run; zero disables the
// deadline.
func New(registry *sources.Registry, cls *classifier.Classifier, window, timeout time.Duration) *Pipeline {
	return &Pipeline{
		registry:   registry,
		classifier: cls,
		window:     window,
		timeout:    timeout,
		logger:     slog.Default(),
	}
}

// Run executes fetch -> dedupe -> classify -> group. Individual source and
// item failures are isolated; the run itself only fails on a dead context.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	p.logger.Info("pipeline run started", "window", p.window, "sources", p.registry.Len())

	raw, fetchErrs := p.registry.FetchAll(ctx, p.window)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.logger.Info("fetch complete", "items", len(raw), "errors", len(fetchErrs))

	unique := dedupe.ByURL(raw)
	if dropped := len(raw) - len(unique); dropped > 0 {
		p.logger.Info("duplicates removed", "dropped", dropped)
	}

	classified, skipped := p.classifier.ClassifyAll(ctx, unique)

	result := &Result{
		Items:       classified,
		ByType:      grouper.ByType(classified),
		ByIndustry:  grouper.ByIndustry(classified),
		FetchErrors: fetchErrs,
		Fetched:     len(raw),
		Deduped:     len(unique),
		Skipped:     skipped,
		StartedAt:   start,
		Duration:    time.Since(start),
	}
	p.logger.Info("pipeline run finished",
		"classified", len(classified),
		"skipped", skipped,
		"duration", result.Duration)
	return result, nil
}
