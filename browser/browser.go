// Package browser implements the automation session contract on go-rod.
// One Chromium process serves a whole run; every account gets its own
// incognito context and stealth page.
package browser

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"

	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/models"
)

// Browser owns the launched Chromium process and opens per-account sessions.
// It is safe for concurrent use.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      config.BrowserConfig
	opened   atomic.Int64
	log      *slog.Logger
}

var _ automation.SessionProvider = (*Browser)(nil)

// Launch starts Chromium with stealth flags and connects to it.
func Launch(cfg config.BrowserConfig) (*Browser, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	if cfg.AcceptLanguage != "" {
		l.Set(flags.Flag("lang"), primaryLanguage(cfg.AcceptLanguage))
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewCheckinError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, models.NewCheckinError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &Browser{
		browser:  b,
		launcher: l,
		cfg:      cfg,
		log:      slog.With("component", "browser"),
	}, nil
}

// Open creates an isolated session: a fresh incognito context with one
// stealth page. Nothing is shared with previously opened sessions.
func (b *Browser) Open(ctx context.Context) (automation.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := newSession(ctx, b.browser, b.cfg)
	if err != nil {
		return nil, err
	}
	n := b.opened.Add(1)
	b.log.Debug("session opened", "session", n)
	return sess, nil
}

// SessionsOpened returns how many sessions this browser has opened.
func (b *Browser) SessionsOpened() int64 { return b.opened.Load() }

// Close closes the browser and kills the Chromium process.
// Call this on shutdown to prevent zombie Chrome processes.
func (b *Browser) Close() error {
	b.log.Info("closing browser", "sessions_opened", b.opened.Load())
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

// primaryLanguage returns the first tag of an Accept-Language value,
// e.g. "zh-CN" for "zh-CN,zh;q=0.9".
func primaryLanguage(acceptLanguage string) string {
	for i, r := range acceptLanguage {
		if r == ',' || r == ';' {
			return acceptLanguage[:i]
		}
	}
	return acceptLanguage
}
