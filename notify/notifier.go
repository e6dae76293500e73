// Package notify delivers run summaries to the configured channels.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/report"
)

// Notifier delivers one finished run, or the reason a run never started.
type Notifier interface {
	Enabled() bool
	Notify(ctx context.Context, site string, s *report.Summary) error
	NotifyError(ctx context.Context, site string, cause error) error
}

type channel struct {
	name string
	n    Notifier
}

// Dispatcher fans a summary out to every enabled channel, retrying each
// one independently. With no channels it is a no-op.
type Dispatcher struct {
	channels []channel
	attempts uint
	delay    time.Duration
	log      *slog.Logger
}

var _ Notifier = (*Dispatcher)(nil)

// New builds the channels described by cfg. A channel that cannot be
// constructed is logged and left out; it never prevents a run.
func New(cfg config.NotifyConfig) *Dispatcher {
	d := NewDispatcher(cfg.Attempts, cfg.RetryDelay)
	if !cfg.Enabled {
		d.log.Info("notifications disabled")
		return d
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		tg, err := NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			d.log.Warn("telegram channel unavailable", "error", err)
		} else {
			d.Use("telegram", tg)
		}
	}
	if cfg.WebhookURL != "" {
		d.Use("webhook", NewWebhook(cfg.WebhookURL, cfg.WebhookSecret))
	}
	return d
}

// NewDispatcher returns a dispatcher without channels.
func NewDispatcher(attempts uint, delay time.Duration) *Dispatcher {
	if attempts == 0 {
		attempts = 1
	}
	return &Dispatcher{
		attempts: attempts,
		delay:    delay,
		log:      slog.With("component", "notify"),
	}
}

// Use registers a channel. Disabled notifiers are skipped at send time.
func (d *Dispatcher) Use(name string, n Notifier) *Dispatcher {
	d.channels = append(d.channels, channel{name: name, n: n})
	return d
}

// Channels returns the names of the registered channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.channels))
	for i, ch := range d.channels {
		names[i] = ch.name
	}
	return names
}

// Enabled reports whether at least one channel would send.
func (d *Dispatcher) Enabled() bool {
	for _, ch := range d.channels {
		if ch.n.Enabled() {
			return true
		}
	}
	return false
}

// Notify sends s to every enabled channel. A failing channel does not stop
// the others; all failures are returned joined.
func (d *Dispatcher) Notify(ctx context.Context, site string, s *report.Summary) error {
	return d.fanOut(ctx, "run_id", s.RunID, func(n Notifier) error {
		return n.Notify(ctx, site, s)
	})
}

// NotifyError reports an aborted run to every enabled channel.
func (d *Dispatcher) NotifyError(ctx context.Context, site string, cause error) error {
	return d.fanOut(ctx, "site", site, func(n Notifier) error {
		return n.NotifyError(ctx, site, cause)
	})
}

func (d *Dispatcher) fanOut(ctx context.Context, key, value string, send func(Notifier) error) error {
	var errs []error
	for _, ch := range d.channels {
		if !ch.n.Enabled() {
			continue
		}
		if err := d.deliver(ctx, ch, send); err != nil {
			d.log.Error("notification failed", "channel", ch.name, key, value, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", ch.name, err))
			continue
		}
		d.log.Info("notification sent", "channel", ch.name, key, value)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) deliver(ctx context.Context, ch channel, send func(Notifier) error) error {
	return retry.Do(
		func() error { return send(ch.n) },
		retry.Attempts(d.attempts),
		retry.Delay(d.delay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			d.log.Warn("notification attempt failed", "channel", ch.name, "attempt", n+1, "error", err)
		}),
	)
}
