package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/use-agent/dailyclaim/accounts"
	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/browser"
	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/extract"
	"github.com/use-agent/dailyclaim/notify"
	"github.com/use-agent/dailyclaim/report"
)

// notifyTimeout bounds delivery after a run, including one cut short by a
// signal.
const notifyTimeout = 30 * time.Second

// job is one configured check-in run: a site, a credential file and the
// places results go.
type job struct {
	cfg      *config.Config
	site     config.Site
	accounts string
	notifier notify.Notifier

	// console receives the summary table; nil in serve mode.
	console io.Writer
}

// execute performs one run. It fails only when the browser cannot start;
// every per-account problem ends up in the summary instead.
func (j *job) execute(ctx context.Context) (*report.Summary, error) {
	// ── 1. Credentials (re-read every run) ──
	creds, skipped, err := accounts.Load(j.accounts)
	if err != nil {
		slog.Error("no credentials available", "path", j.accounts, "error", err)
	}
	slog.Info("starting run", "site", j.site.Name, "accounts", len(creds), "skipped_lines", skipped)

	// ── 2. Browser (only when there is work) ──
	var provider automation.SessionProvider
	if len(creds) > 0 {
		b, err := browser.Launch(j.cfg.Browser)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := b.Close(); err != nil {
				slog.Warn("browser close failed", "error", err)
			}
		}()
		provider = b
	}

	// ── 3. Process accounts ──
	runner := automation.NewRunner(
		provider,
		automation.NewSteps(j.site, automation.TimingFrom(j.cfg.Run)),
		extract.ForSite(j.site),
		automation.RunnerConfigFrom(j.cfg.Run),
	)
	return runner.Run(ctx, creds), nil
}

// run adapts execute to automation.RunFunc for the scheduler and the API.
func (j *job) run(ctx context.Context) *report.Summary {
	s, err := j.execute(ctx)
	if err != nil {
		j.abort(ctx, err)
		return nil
	}
	return s
}

// abort logs a run that never started and tells the notification channels.
func (j *job) abort(ctx context.Context, cause error) {
	slog.Error("run aborted", "site", j.site.Name, "error", cause)
	if j.notifier == nil || !j.notifier.Enabled() {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := j.notifier.NotifyError(nctx, j.site.Name, cause); err != nil {
		slog.Warn("abort notification delivery incomplete", "error", err)
	}
}

// publish writes the report artifact, prints the table and notifies.
// Failures are logged and never change the run's result.
func (j *job) publish(ctx context.Context, s *report.Summary) {
	if s == nil {
		return
	}

	if path, err := report.WriteFile(j.cfg.ReportDir, s); err != nil {
		slog.Error("failed to write run report", "dir", j.cfg.ReportDir, "error", err)
	} else {
		slog.Info("run report written", "path", path)
	}

	if j.console != nil {
		if err := report.PrintTable(j.console, s); err != nil {
			slog.Warn("failed to print summary table", "error", err)
		}
	}

	if j.notifier == nil || !j.notifier.Enabled() {
		return
	}
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := j.notifier.Notify(nctx, j.site.Name, s); err != nil {
		slog.Warn("notification delivery incomplete", "run_id", s.RunID, "error", err)
	}
}
