// Package scheduler runs the pipeline on a fixed interval for serve mode.
package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job is one scheduled task.
type Job struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Scheduler runs its jobs once immediately and then on every tick. Job
// failures are logged and do not stop the loop.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{logger: slog.Default()}
}

// Add registers a job.
func (s *Scheduler) Add(job Job) {
	s.jobs = append(s.jobs, job)
}

// RunOnce executes all jobs sequentially.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, job := range s.jobs {
		start := time.Now()
		s.logger.Info("job started", "name", job.Name)
		if err := job.Fn(ctx); err != nil {
			s.logger.Error("job failed", "name", job.Name, "error", err, "duration", time.Since(start))
			continue
		}
		s.logger.Info("job finished", "name", job.Name, "duration", time.Since(start))
	}
}

// Start blocks, running the jobs immediately and then every interval,
// until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	s.logger.Info("scheduler started", "interval", interval, "jobs", len(s.jobs))
	s.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
