package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"time"

	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/extract"
	"github.com/use-agent/dailyclaim/models"
	"github.com/use-agent/dailyclaim/report"
)

// RunnerConfig holds the pacing of a run.
type RunnerConfig struct {
	MinDelay          time.Duration
	MaxDelay          time.Duration
	AccountTimeout    time.Duration
	NavigationTimeout time.Duration
}

// RunnerConfigFrom copies the pacing out of the run configuration.
func RunnerConfigFrom(rc config.RunConfig) RunnerConfig {
	return RunnerConfig{
		MinDelay:          rc.MinDelay,
		MaxDelay:          rc.MaxDelay,
		AccountTimeout:    rc.AccountTimeout,
		NavigationTimeout: rc.NavigationTimeout,
	}
}

// Runner processes credentials one at a time, each in its own session.
// A Runner keeps no state between runs; every Run returns a fresh summary.
type Runner struct {
	provider SessionProvider
	steps    *Steps
	engine   *extract.Engine
	cfg      RunnerConfig
	log      *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(provider SessionProvider, steps *Steps, engine *extract.Engine, cfg RunnerConfig) *Runner {
	return &Runner{
		provider: provider,
		steps:    steps,
		engine:   engine,
		cfg:      cfg,
		log:      slog.With("component", "runner", "site", steps.Site().Name),
	}
}

// Run processes creds in order and returns one outcome per credential.
// When ctx is cancelled the current account is finished with its session
// released, and the remaining accounts are recorded as interrupted.
func (r *Runner) Run(ctx context.Context, creds []models.Credential) *report.Summary {
	summary := report.NewSummary(r.steps.Site().Name)
	summary.RewardFormat = r.steps.Site().RewardAmount.Format
	r.log.Info("run started", "run_id", summary.RunID, "accounts", len(creds))

	for i, cred := range creds {
		if i > 0 {
			if err := sleep(ctx, r.pause()); err != nil {
				r.interrupt(summary, creds[i:])
				break
			}
		}
		if ctx.Err() != nil {
			r.interrupt(summary, creds[i:])
			break
		}

		out := r.processAccount(ctx, cred)
		summary.Add(out)
		r.log.Info("account processed",
			"account", cred.Identifier,
			"index", i+1,
			"succeeded", out.Succeeded,
			"status", out.Status,
			"duration_ms", out.Duration.Milliseconds(),
		)
	}

	summary.Finish()
	r.log.Info("run finished",
		"run_id", summary.RunID,
		"succeeded", summary.Succeeded(),
		"total", summary.Total(),
		"elapsed_ms", summary.Elapsed().Milliseconds(),
	)
	return summary
}

// pause returns a uniform random delay in [MinDelay, MaxDelay].
func (r *Runner) pause() time.Duration {
	lo, hi := r.cfg.MinDelay, r.cfg.MaxDelay
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func (r *Runner) interrupt(summary *report.Summary, rest []models.Credential) {
	r.log.Warn("run interrupted", "remaining", len(rest))
	now := time.Now()
	for _, cred := range rest {
		summary.Add(models.AccountOutcome{
			Identifier: cred.Identifier,
			Status:     models.StatusInterrupted,
			Error:      "run interrupted before this account was processed",
			FinishedAt: now,
		})
	}
}

// processAccount runs the full flow for one credential. Every exit path,
// including a panic, produces an outcome and releases the session.
func (r *Runner) processAccount(ctx context.Context, cred models.Credential) (out models.AccountOutcome) {
	start := time.Now()
	log := r.log.With("account", cred.Identifier)

	defer func() {
		if p := recover(); p != nil {
			log.Error("account processing panicked", "panic", p, "stack", string(debug.Stack()))
			out = failure(cred, models.StatusFailed, fmt.Sprintf("panic: %v", p))
		}
		if !out.Succeeded && ctx.Err() != nil {
			out.Status = models.StatusInterrupted
		}
		out.Identifier = cred.Identifier
		out.Duration = time.Since(start)
		out.FinishedAt = time.Now()
	}()

	actx, cancel := context.WithTimeout(ctx, r.cfg.AccountTimeout)
	defer cancel()
	site := r.steps.Site()

	// ── 1. Open an isolated session ──
	sess, err := r.provider.Open(actx)
	if err != nil {
		return failure(cred, models.StatusFailed, describe(models.ErrCodeSessionOpen, "cannot open browser session", err))
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warn("session close failed", "error", err)
		}
	}()
	page := sess.Page()

	// ── 2. Open the login page ──
	navCtx, navCancel := context.WithTimeout(actx, r.cfg.NavigationTimeout)
	err = page.Navigate(navCtx, site.LoginURL)
	navCancel()
	if err != nil {
		return failure(cred, models.StatusFailed, describe(models.ErrCodeNavigation, "cannot open login page", err))
	}
	if err := sleep(actx, r.steps.timing.SettleDelay); err != nil {
		return failure(cred, models.StatusFailed, describe(models.ErrCodeTimeout, "interrupted", err))
	}

	// ── 3. Dismiss interstitials ──
	r.steps.Dismiss(actx, page)

	// ── 4. Authenticate ──
	auth, err := r.steps.Login(actx, page, cred)
	if err != nil {
		return failure(cred, models.StatusFailed, describe(models.ErrCodeFieldNotFound, "login form incomplete", err))
	}
	log.Info("login classified", "result", auth.String(), "url", page.URL())
	if auth == AuthInvalid {
		return failure(cred, models.StatusInvalidCredential, "")
	}

	// ── 5. Dismiss post-login popups ──
	r.steps.Dismiss(actx, page)

	// ── 6. Reward action ──
	reward, err := r.steps.Claim(actx, page)
	if err != nil {
		return failure(cred, models.StatusFailed, describe(models.ErrCodeNavigation, "reward step failed", err))
	}

	// ── 7. Extract values ──
	rec := r.engine.Run(actx, page)
	amount, ok := r.rewardFromPage(actx, page)
	if ok && rec.Get(extract.FieldReward) == "" {
		rec.Set(extract.FieldReward, extract.Value{
			Text:   extract.FormatReward(amount, site.RewardAmount),
			Source: "page-text",
			Rank:   extract.RankDOM,
		})
	}

	status := reward.Status()
	if auth == AuthAmbiguous {
		status += models.UncertainSuffix
	}
	return models.AccountOutcome{
		Identifier: cred.Identifier,
		Succeeded:  reward.Succeeded(),
		Status:     status,
		Extracted:  rec.Balance(),
		Reward:     amount,
	}
}

// rewardFromPage parses a reward amount from the visible page text, which
// catches toasts that never reach the serialized HTML.
func (r *Runner) rewardFromPage(ctx context.Context, page Page) (float64, bool) {
	ra := r.steps.Site().RewardAmount
	if ra.Pattern == "" {
		return 0, false
	}
	text, err := page.Text(ctx)
	if err != nil {
		return 0, false
	}
	return extract.ParseReward(text, ra)
}

func failure(cred models.Credential, status, msg string) models.AccountOutcome {
	return models.AccountOutcome{
		Identifier: cred.Identifier,
		Status:     status,
		Error:      msg,
	}
}

// describe wraps err in a CheckinError, mapping context errors to TIMEOUT,
// and returns its text.
func describe(code, msg string, err error) string {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		code = models.ErrCodeTimeout
	}
	var ce *models.CheckinError
	if errors.As(err, &ce) && code != models.ErrCodeTimeout {
		return ce.Error()
	}
	return models.NewCheckinError(code, msg, err).Error()
}
