package browser

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/config"
	"github.com/use-agent/dailyclaim/models"
)

// Session is one account's incognito browser context and its page.
type Session struct {
	context *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	closed  bool
}

var _ automation.Session = (*Session)(nil)

// newSession prepares an isolated page.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Incognito context: no cookies or storage survive from other accounts
//  2. Stealth page: navigator.webdriver etc. masked before any navigation
//  3. Identity: user agent, Accept-Language and viewport
//  4. Hijack mount: block heavy resource types (before navigation!)
//
// Any failure after step 1 disposes the context before returning.
func newSession(ctx context.Context, b *rod.Browser, cfg config.BrowserConfig) (_ *Session, err error) {
	// ── 1. Incognito context ──────────────────────────────────────────
	incognito, err := b.Incognito()
	if err != nil {
		return nil, models.NewCheckinError(models.ErrCodeSessionOpen, "failed to create incognito context", err)
	}
	s := &Session{context: incognito}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	// ── 2. Stealth page ───────────────────────────────────────────────
	page, err := stealth.Page(incognito)
	if err != nil {
		return nil, models.NewCheckinError(models.ErrCodeSessionOpen, "failed to create stealth page", err)
	}
	s.page = page
	p := page.Context(ctx)

	// ── 3. Identity ───────────────────────────────────────────────────
	if cfg.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.AcceptLanguage,
		}); err != nil {
			return nil, categorizeError(err, models.ErrCodeSessionOpen, "failed to set user agent")
		}
	} else if cfg.AcceptLanguage != "" {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": cfg.AcceptLanguage}),
		}.Call(p)
	}
	if cfg.ViewportWidth > 0 && cfg.ViewportHeight > 0 {
		if err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             cfg.ViewportWidth,
			Height:            cfg.ViewportHeight,
			DeviceScaleFactor: 1,
		}); err != nil {
			return nil, categorizeError(err, models.ErrCodeSessionOpen, "failed to set viewport")
		}
	}

	// ── 4. Mount hijack router ────────────────────────────────────────
	s.router = setupHijack(page, cfg.BlockedResourceTypes)

	return s, nil
}

// Page returns the session page.
func (s *Session) Page() automation.Page {
	return &rodPage{page: s.page}
}

// Close stops request interception, closes the page and disposes the
// incognito context. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			slog.Debug("session page close failed", "error", err)
		}
	}
	// Close on an incognito browser disposes only its context.
	if err := s.context.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
