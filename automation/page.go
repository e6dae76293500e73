// Package automation drives one account through the check-in flow:
// interstitial dismissal, login, the reward action and value extraction.
//
// The steps only see the Page and Element interfaces below. The browser
// package implements them on top of go-rod; tests use an in-memory fake.
package automation

import (
	"context"

	"github.com/ysmood/gson"
)

// Key is a keyboard key understood by Page.PressKey and Element.Press.
type Key string

const (
	KeyEscape Key = "Escape"
	KeyEnter  Key = "Enter"
)

// Page is a live, navigable document bound to one account's session.
type Page interface {
	// Navigate loads url and returns once the DOM is ready.
	Navigate(ctx context.Context, url string) error

	// URL returns the current document URL.
	URL() string

	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)

	// Text returns the rendered text of the document body.
	Text(ctx context.Context) (string, error)

	// Query returns all elements matching a CSS selector, in document order.
	Query(ctx context.Context, selector string) ([]Element, error)

	// PressKey dispatches a key press to the focused element.
	PressKey(ctx context.Context, key Key) error

	// Eval runs a JavaScript function expression in the page and returns
	// its (awaited) result.
	Eval(ctx context.Context, js string, args ...any) (gson.JSON, error)
}

// Element is a handle to one DOM element.
type Element interface {
	Text() (string, error)
	Visible() (bool, error)
	Enabled() (bool, error)
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	Press(ctx context.Context, key Key) error
}

// Session is an isolated browser context plus its page.
type Session interface {
	Page() Page
	Close() error
}

// SessionProvider opens one isolated session per account.
type SessionProvider interface {
	Open(ctx context.Context) (Session, error)
}
