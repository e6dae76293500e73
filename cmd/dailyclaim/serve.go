package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/dailyclaim/api"
	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/notify"
	"github.com/use-agent/dailyclaim/report"
	"github.com/use-agent/dailyclaim/scheduler"
)

const (
	shutdownGrace = 5 * time.Second
	runDrainLimit = 30 * time.Second
)

func newServeCmd(c *cli) *cobra.Command {
	var noAPI bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run on a cron schedule and expose the status API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := c.cfg

			site, err := c.site()
			if err != nil {
				return err
			}
			j := &job{
				cfg:      cfg,
				site:     site,
				accounts: cfg.AccountsFile,
				notifier: notify.New(cfg.Notify),
			}
			lock := &automation.RunLock{}
			after := func(s *report.Summary) { j.publish(ctx, s) }

			// ── 1. Scheduler ──
			var nextRun func() *time.Time
			if cfg.Schedule.Cron != "" {
				sched, err := scheduler.New(cfg.Schedule, lock, j.run, after)
				if err != nil {
					return err
				}
				sched.Start(ctx)
				defer func() {
					if err := sched.Shutdown(); err != nil {
						slog.Warn("scheduler shutdown failed", "error", err)
					}
				}()
				nextRun = sched.NextRun
			}

			// ── 2. Status API ──
			var srv *http.Server
			if !noAPI {
				router := api.NewRouter(cfg, api.Deps{
					Ctx:       ctx,
					Lock:      lock,
					Run:       j.run,
					After:     after,
					NextRun:   nextRun,
					StartTime: time.Now(),
				})
				addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
				srv = &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

				errCh := make(chan error, 1)
				go func() {
					slog.Info("HTTP server listening", "addr", addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
				}()
				select {
				case err := <-errCh:
					return fmt.Errorf("http server: %w", err)
				case <-ctx.Done():
				}
			} else {
				<-ctx.Done()
			}

			// ── 3. Graceful shutdown ──
			slog.Info("shutdown signal received")
			if srv != nil {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
				defer cancel()
				if err := srv.Shutdown(sctx); err != nil {
					slog.Error("HTTP server forced shutdown", "error", err)
				} else {
					slog.Info("HTTP server drained gracefully")
				}
			}
			waitForRun(lock, runDrainLimit)
			slog.Info("dailyclaim stopped")
			return nil
		},
	}

	cmd.Flags().BoolVar(&noAPI, "no-api", false, "run the schedule without the status API")
	return cmd
}

// waitForRun gives an in-flight run time to release its session and
// record its remaining accounts.
func waitForRun(lock *automation.RunLock, limit time.Duration) {
	deadline := time.Now().Add(limit)
	for lock.Running() {
		if time.Now().After(deadline) {
			slog.Warn("run still active at shutdown")
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}
