package automation

import (
	"context"
	"strings"
	"time"
)

// clickableSelector is the default scope for text-based matchers.
const clickableSelector = `button, a, [role="button"], input[type="submit"], input[type="button"]`

// Matcher is one link of a ranked element-lookup chain.
type Matcher struct {
	// Name identifies the matcher in logs.
	Name string

	// Selector scopes the lookup. Empty means clickableSelector.
	Selector string

	// Texts, when non-empty, require the element text to contain one of them.
	Texts []string

	// Exclude rejects elements whose text contains it.
	Exclude string

	// AllowDisabled accepts disabled elements (input fields only).
	AllowDisabled bool
}

// Chain is an ordered list of matchers. The first matcher that yields a
// usable element wins.
type Chain []Matcher

// SelectorChain builds one matcher per CSS selector.
func SelectorChain(name string, selectors []string) Chain {
	chain := make(Chain, 0, len(selectors))
	for _, sel := range selectors {
		chain = append(chain, Matcher{Name: name + ":" + sel, Selector: sel})
	}
	return chain
}

// TextChain builds one matcher per text, each over clickable elements.
func TextChain(name string, texts []string, exclude string) Chain {
	chain := make(Chain, 0, len(texts))
	for _, text := range texts {
		chain = append(chain, Matcher{Name: name + ":" + text, Texts: []string{text}, Exclude: exclude})
	}
	return chain
}

// First returns the first visible and enabled element matched by the
// chain, or nil. Lookup errors on one matcher fall through to the next.
func (c Chain) First(ctx context.Context, page Page) (Element, *Matcher) {
	for i := range c {
		if ctx.Err() != nil {
			return nil, nil
		}
		if el := c[i].find(ctx, page); el != nil {
			return el, &c[i]
		}
	}
	return nil, nil
}

// Wait polls First until it matches or timeout elapses.
func (c Chain) Wait(ctx context.Context, page Page, timeout, interval time.Duration) (Element, *Matcher) {
	var (
		found Element
		which *Matcher
	)
	poll(ctx, timeout, interval, func() bool {
		found, which = c.First(ctx, page)
		return found != nil
	})
	return found, which
}

func (m *Matcher) find(ctx context.Context, page Page) Element {
	sel := m.Selector
	if sel == "" {
		sel = clickableSelector
	}
	els, err := page.Query(ctx, sel)
	if err != nil {
		return nil
	}
	for _, el := range els {
		if m.usable(el) {
			return el
		}
	}
	return nil
}

func (m *Matcher) usable(el Element) bool {
	if len(m.Texts) > 0 || m.Exclude != "" {
		text, err := el.Text()
		if err != nil {
			return false
		}
		if len(m.Texts) > 0 && !containsAny(text, m.Texts) {
			return false
		}
		if m.Exclude != "" && strings.Contains(text, m.Exclude) {
			return false
		}
	}
	if visible, err := el.Visible(); err != nil || !visible {
		return false
	}
	if m.AllowDisabled {
		return true
	}
	enabled, err := el.Enabled()
	return err == nil && enabled
}

// containsAny reports whether s contains any of subs. Empty subs never match.
func containsAny(s string, subs []string) bool {
	return firstContained(s, subs) != ""
}

// firstContained returns the first element of subs contained in s.
func firstContained(s string, subs []string) string {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return sub
		}
	}
	return ""
}
