package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/use-agent/dailyclaim/automation"
	"github.com/use-agent/dailyclaim/models"
)

// domStableWindow is how long the DOM must stay unchanged after a
// navigation before the page is handed back to the steps.
const domStableWindow = 300 * time.Millisecond

const bodyTextJS = `() => document.body ? document.body.innerText : ''`

// rodPage adapts a rod page to automation.Page. Every call binds ctx to
// the underlying page, so a cancelled account aborts in-flight CDP calls.
type rodPage struct {
	page *rod.Page
}

var _ automation.Page = (*rodPage)(nil)

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return categorizeError(err, models.ErrCodeNavigation, "navigation to "+url+" failed")
	}
	if err := pg.WaitDOMStable(domStableWindow, 0.1); err != nil {
		if ctx.Err() != nil {
			return categorizeError(err, models.ErrCodeNavigation, "page did not settle")
		}
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "url", url, "error", err)
	}
	return nil
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *rodPage) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) Text(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(bodyTextJS)
	if err != nil {
		return "", err
	}
	s, _ := res.Value.Val().(string)
	return s, nil
}

func (p *rodPage) Query(ctx context.Context, selector string) ([]automation.Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]automation.Element, len(els))
	for i, el := range els {
		out[i] = &rodElement{el: el}
	}
	return out, nil
}

func (p *rodPage) PressKey(ctx context.Context, key automation.Key) error {
	k, err := toInputKey(key)
	if err != nil {
		return err
	}
	return p.page.Context(ctx).KeyActions().Press(k).Do()
}

func (p *rodPage) Eval(ctx context.Context, js string, args ...any) (gson.JSON, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return gson.New(nil), err
	}
	return res.Value, nil
}

// rodElement adapts a rod element to automation.Element.
type rodElement struct {
	el *rod.Element
}

var _ automation.Element = (*rodElement)(nil)

func (e *rodElement) Text() (string, error) { return e.el.Text() }

func (e *rodElement) Visible() (bool, error) { return e.el.Visible() }

func (e *rodElement) Enabled() (bool, error) {
	disabled, err := e.el.Disabled()
	return !disabled, err
}

// Click performs a real mouse click and falls back to a DOM click when
// the element is covered or not interactable.
func (e *rodElement) Click(ctx context.Context) error {
	el := e.el.Context(ctx)
	err := el.Click(proto.InputMouseButtonLeft, 1)
	if err == nil || ctx.Err() != nil {
		return err
	}
	if _, jsErr := el.Eval(`() => this.click()`); jsErr != nil {
		return fmt.Errorf("click: %w", errors.Join(err, jsErr))
	}
	return nil
}

// Fill replaces the element's value with v.
func (e *rodElement) Fill(ctx context.Context, v string) error {
	el := e.el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("select field text: %w", err)
	}
	return el.Input(v)
}

func (e *rodElement) Press(ctx context.Context, key automation.Key) error {
	k, err := toInputKey(key)
	if err != nil {
		return err
	}
	return e.el.Context(ctx).Type(k)
}

func toInputKey(key automation.Key) (input.Key, error) {
	switch key {
	case automation.KeyEscape:
		return input.Escape, nil
	case automation.KeyEnter:
		return input.Enter, nil
	default:
		return 0, fmt.Errorf("unsupported key %q", key)
	}
}

// categorizeError maps Rod/context errors to CheckinError codes.
func categorizeError(err error, code, msg string) *models.CheckinError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewCheckinError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewCheckinError(models.ErrCodeTimeout, "operation canceled", err)
	default:
		return models.NewCheckinError(code, msg, err)
	}
}
