// Package scheduler bounds how many work items may execute concurrently.
//
// The scheduler holds no domain knowledge: it only gates admission through a
// channel semaphore and measures how long each item waited for a slot.
package scheduler

import (
	"context"
	"time"
)

// Concurrency limits are clamped into this range.
const (
	MinConcurrency = 1
	MaxConcurrency = 50
)

// Scheduler admits at most Limit() callers at a time. Excess callers wait in
// admission order as slots free up; cancellation of the caller's context
// unwinds a queued caller without running it.
type Scheduler struct {
	slots chan struct{}
	limit int
}

// New creates a scheduler with the given concurrency limit, clamped to
// [MinConcurrency, MaxConcurrency].
func New(limit int) *Scheduler {
	if limit < MinConcurrency {
		limit = MinConcurrency
	}
	if limit > MaxConcurrency {
		limit = MaxConcurrency
	}
	return &Scheduler{
		slots: make(chan struct{}, limit),
		limit: limit,
	}
}

// Limit returns the effective concurrency limit.
func (s *Scheduler) Limit() int {
	return s.limit
}

// Run blocks until a slot frees, then invokes fn with the measured queue wait.
// If ctx is cancelled before admission, fn never runs and ctx.Err() is
// returned. The slot is released when fn returns.
func (s *Scheduler) Run(ctx context.Context, fn func(queued time.Duration)) error {
	enqueued := time.Now()
	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.slots }()

	// A slot may free at the same moment the context is cancelled; the
	// cancelled context wins and the item is never admitted.
	if err := ctx.Err(); err != nil {
		return err
	}

	fn(time.Since(enqueued))
	return nil
}
