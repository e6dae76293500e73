// Package scheduler triggers runs on a cron schedule for `serve`.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/report"
)

const jobName = "daily-checkin"

// Scheduler owns one cron job that runs through the shared RunLock, so a
// scheduled run never overlaps a manual one.
type Scheduler struct {
	cron  gocron.Scheduler
	job   gocron.Job
	lock  *automation.RunLock
	run   automation.RunFunc
	after func(*report.Summary)
	ctx   context.Context
	log   *slog.Logger
}

// New validates the schedule and registers the job. Nothing runs until
// Start. after, when non-nil, receives every run's summary (nil when the
// run was aborted) while the run lock is still held.
func New(cfg config.ScheduleConfig, lock *automation.RunLock, run automation.RunFunc, after func(*report.Summary)) (*Scheduler, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(cfg.Timezone); err != nil {
			return nil, fmt.Errorf("scheduler: timezone %q: %w", cfg.Timezone, err)
		}
	}

	cron, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	s := &Scheduler{
		cron:  cron,
		lock:  lock,
		run:   run,
		after: after,
		ctx:   context.Background(),
		log:   slog.With("component", "scheduler"),
	}

	opts := []gocron.JobOption{
		gocron.WithName(jobName),
		gocron.WithTags("schedule:" + cfg.Cron),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if cfg.RunOnStart {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	s.job, err = cron.NewJob(gocron.CronJob(cfg.Cron, false), gocron.NewTask(s.trigger), opts...)
	if err != nil {
		_ = cron.Shutdown()
		return nil, fmt.Errorf("scheduler: cron %q: %w", cfg.Cron, err)
	}
	return s, nil
}

// Start begins firing the job. Runs started by the scheduler use ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	if next := s.NextRun(); next != nil {
		s.log.Info("scheduler started", "next_run", next.Format(time.RFC3339))
	}
}

// NextRun returns the next scheduled fire time, or nil when unknown.
func (s *Scheduler) NextRun() *time.Time {
	next, err := s.job.NextRun()
	if err != nil || next.IsZero() {
		return nil
	}
	return &next
}

// Shutdown stops the scheduler and waits for a running job to return.
func (s *Scheduler) Shutdown() error {
	return s.cron.Shutdown()
}

func (s *Scheduler) trigger() {
	if s.ctx.Err() != nil {
		return
	}
	if _, err := s.lock.TryRun(s.ctx, s.run, s.after); errors.Is(err, automation.ErrRunInProgress) {
		s.log.Warn("scheduled run skipped, another run is active")
	}
}
