package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunOnceContinuesPastFailures(t *testing.T) {
	s := New()
	var ran []string
	s.Add(Job{Name: "first", Fn: func(context.Context) error {
		ran = append(ran, "first")
		return errors.New("boom")
	}})
	s.Add(Job{Name: "second", Fn: func(context.Context) error {
		ran = append(ran, "second")
		return nil
	}})

	s.RunOnce(context.Background())

	if len(ran) != 2 || ran[0] != "first" || ran[1] != "second" {
		t.Fatalf("jobs ran = %v, want [first second]", ran)
	}
}

func TestStartRunsImmediatelyAndTicks(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{})

	s := New()
	s.Add(Job{Name: "tick", Fn: func(context.Context) error {
		if runs.Add(1) >= 2 {
			select {
			case <-done:
			default:
				close(done)
			}
		}
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-done
		cancel()
	}()

	started := make(chan struct{})
	go func() {
		defer close(started)
		s.Start(ctx, 10*time.Millisecond)
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	if runs.Load() < 2 {
		t.Fatalf("expected immediate run plus at least one tick, got %d", runs.Load())
	}
}
