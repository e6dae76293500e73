package automation

import (
	"context"
	"strings"

	"github.com/use-agent/dailyclaim/models"
)

// AuthResult classifies a login attempt.
type AuthResult int

const (
	// AuthAmbiguous means neither success nor failure was observed in time.
	// It is treated as a soft success.
	AuthAmbiguous AuthResult = iota
	AuthSuccess
	AuthInvalid
)

func (r AuthResult) String() string {
	switch r {
	case AuthSuccess:
		return "success"
	case AuthInvalid:
		return "invalid"
	default:
		return "ambiguous"
	}
}

// Login fills and submits the login form, then classifies the result.
// The page must already show the login form. An error means a required
// field could not be found.
func (s *Steps) Login(ctx context.Context, page Page, cred models.Credential) (AuthResult, error) {
	t := s.timing

	// ── 1. Reveal the identifier form if it sits behind a login option ──
	if len(s.site.LoginOptionTexts) > 0 {
		if el, _ := TextChain("login-option", s.site.LoginOptionTexts, "").First(ctx, page); el != nil {
			if err := el.Click(ctx); err != nil {
				s.log.Debug("login option click failed", "error", err)
			}
		}
	}

	// ── 2. Identifier ──
	idField, _ := s.inputChain("identifier", s.site.IdentifierSelectors).Wait(ctx, page, t.ElementWait, t.PollInterval)
	if idField == nil {
		return AuthAmbiguous, models.NewCheckinError(models.ErrCodeFieldNotFound, "identifier field not found", ctx.Err())
	}
	if err := idField.Fill(ctx, cred.Identifier); err != nil {
		return AuthAmbiguous, models.NewCheckinError(models.ErrCodeFieldNotFound, "cannot fill identifier field", err)
	}

	// ── 3. Password, with an optional reveal submission first ──
	pwChain := s.inputChain("password", s.site.PasswordSelectors)
	pwField, _ := pwChain.First(ctx, page)
	if pwField == nil {
		s.log.Debug("password field absent, submitting identifier first")
		s.submit(ctx, page, idField)
		pwField, _ = pwChain.Wait(ctx, page, t.ElementWait, t.PollInterval)
		if pwField == nil {
			return AuthAmbiguous, models.NewCheckinError(models.ErrCodeFieldNotFound, "password field not found", ctx.Err())
		}
	}
	if err := pwField.Fill(ctx, cred.Secret); err != nil {
		return AuthAmbiguous, models.NewCheckinError(models.ErrCodeFieldNotFound, "cannot fill password field", err)
	}

	// ── 4. Submit ──
	s.Dismiss(ctx, page)
	s.submit(ctx, page, pwField)

	// ── 5. Classify ──
	result := AuthAmbiguous
	poll(ctx, t.LoginWait, t.PollInterval, func() bool {
		result = s.classifyLogin(ctx, page)
		return result != AuthAmbiguous
	})
	return result, nil
}

func (s *Steps) inputChain(name string, selectors []string) Chain {
	chain := SelectorChain(name, selectors)
	for i := range chain {
		chain[i].AllowDisabled = true
	}
	return chain
}

// submit clicks the first usable submit control, falling back to Enter
// in field.
func (s *Steps) submit(ctx context.Context, page Page, field Element) {
	chain := append(SelectorChain("submit", s.site.SubmitSelectors), TextChain("submit", s.site.SubmitTexts, "")...)
	if el, m := chain.First(ctx, page); el != nil {
		if err := el.Click(ctx); err == nil {
			s.log.Debug("login submitted", "matcher", m.Name)
			return
		}
	}
	if err := field.Press(ctx, KeyEnter); err != nil {
		s.log.Debug("enter key submit failed", "error", err)
	}
}

// classifyLogin checks success markers before failure markers.
func (s *Steps) classifyLogin(ctx context.Context, page Page) AuthResult {
	url := page.URL()
	for _, p := range s.site.PostLoginPatterns {
		if p != "" && strings.Contains(url, p) {
			return AuthSuccess
		}
	}

	text, err := page.Text(ctx)
	if err != nil {
		return AuthAmbiguous
	}
	if containsAny(text, s.site.LoginSuccessTexts) {
		return AuthSuccess
	}
	if containsAny(text, s.site.InvalidCredentialTexts) {
		return AuthInvalid
	}
	return AuthAmbiguous
}
