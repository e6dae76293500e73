package automation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/use-agent/dailyclaim/report"
)

// ErrRunInProgress is returned when a run is requested while one is active.
var ErrRunInProgress = errors.New("a run is already in progress")

// RunFunc performs one complete run.
type RunFunc func(ctx context.Context) *report.Summary

// RunLock guarantees at most one run at a time across the scheduler and
// the API. A trigger that finds the lock held is rejected, never queued.
type RunLock struct {
	mu      sync.Mutex
	running atomic.Bool
	started atomic.Int64
	last    atomic.Pointer[report.Summary]
}

// TryRun runs fn synchronously if no other run is active. done, when
// non-nil, receives the summary before the lock is released.
func (l *RunLock) TryRun(ctx context.Context, fn RunFunc, done func(*report.Summary)) (*report.Summary, error) {
	if !l.acquire() {
		return nil, ErrRunInProgress
	}
	return l.run(ctx, fn, done), nil
}

// Start runs fn in the background if no other run is active. done, when
// non-nil, receives the summary before the lock is released, so Running
// stays true until the report is published.
func (l *RunLock) Start(ctx context.Context, fn RunFunc, done func(*report.Summary)) error {
	if !l.acquire() {
		return ErrRunInProgress
	}
	go l.run(ctx, fn, done)
	return nil
}

func (l *RunLock) acquire() bool {
	if !l.mu.TryLock() {
		return false
	}
	l.running.Store(true)
	l.started.Add(1)
	return true
}

// run must be called after a successful acquire; it releases the lock.
func (l *RunLock) run(ctx context.Context, fn RunFunc, done func(*report.Summary)) *report.Summary {
	defer l.mu.Unlock()
	defer l.running.Store(false)

	s := fn(ctx)
	if s != nil {
		l.last.Store(s)
	}
	if done != nil {
		done(s)
	}
	return s
}

// Running reports whether a run is active.
func (l *RunLock) Running() bool { return l.running.Load() }

// RunsStarted returns how many runs have been started.
func (l *RunLock) RunsStarted() int64 { return l.started.Load() }

// Last returns the most recent finished summary, or nil.
func (l *RunLock) Last() *report.Summary { return l.last.Load() }

// LastRunAt returns the finish time of the last run, or nil.
func (l *RunLock) LastRunAt() *time.Time {
	s := l.last.Load()
	if s == nil {
		return nil
	}
	t := s.FinishedAt
	return &t
}
