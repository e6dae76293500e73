package automation

import (
	"context"

	"github.com/use-agent/dailyclaim/extract"
	"github.com/use-agent/dailyclaim/models"
)

// RewardResult classifies the reward step.
type RewardResult int

const (
	RewardSkipped RewardResult = iota
	RewardClaimed
	RewardAlreadyDone
	RewardNotFound
	// RewardUnconfirmed means a control was clicked but nothing on the page
	// confirmed it. It is the only result that fails the account.
	RewardUnconfirmed
)

func (r RewardResult) String() string {
	switch r {
	case RewardClaimed:
		return "claimed"
	case RewardAlreadyDone:
		return "already-done"
	case RewardNotFound:
		return "not-found"
	case RewardUnconfirmed:
		return "unconfirmed"
	default:
		return "skipped"
	}
}

// Succeeded reports whether the result counts as a successful check-in.
func (r RewardResult) Succeeded() bool {
	return r != RewardUnconfirmed
}

// Status maps the result to its outcome label.
func (r RewardResult) Status() string {
	switch r {
	case RewardClaimed:
		return models.StatusCheckedIn
	case RewardAlreadyDone:
		return models.StatusAlreadyCheckedIn
	case RewardNotFound:
		return models.StatusRewardNotFound
	case RewardUnconfirmed:
		return models.StatusCheckinUnknown
	default:
		return models.StatusLoggedIn
	}
}

// Claim triggers the daily reward action at most once. Only a failed
// navigation to the check-in page is returned as an error.
func (s *Steps) Claim(ctx context.Context, page Page) (RewardResult, error) {
	if !s.site.HasRewardVocabulary() {
		return RewardSkipped, nil
	}

	// ── 1. Move to the check-in page ──
	if s.site.CheckinURL != "" {
		if err := page.Navigate(ctx, s.site.CheckinURL); err != nil {
			return RewardSkipped, models.NewCheckinError(models.ErrCodeNavigation, "cannot open check-in page", err)
		}
		if err := sleep(ctx, s.timing.SettleDelay); err != nil {
			return RewardSkipped, err
		}
		s.Dismiss(ctx, page)
	}

	// ── 2. Already claimed today ──
	if s.alreadyDone(ctx, page) {
		s.log.Info("reward already claimed today")
		return RewardAlreadyDone, nil
	}

	// ── 3. Find and click the reward control ──
	selectors := SelectorChain("reward", s.site.RewardSelectors)
	for i := range selectors {
		selectors[i].Exclude = s.site.RewardDoneExclude
	}
	chain := append(TextChain("reward", s.site.RewardTexts, s.site.RewardDoneExclude), selectors...)
	el, m := chain.Wait(ctx, page, s.timing.ElementWait, s.timing.PollInterval)
	if el == nil {
		s.log.Info("reward control not found")
		return RewardNotFound, nil
	}
	if err := el.Click(ctx); err != nil {
		s.log.Warn("reward control click failed", "matcher", m.Name, "error", err)
		return RewardUnconfirmed, nil
	}
	s.log.Info("reward control clicked", "matcher", m.Name)

	// ── 4. Confirm ──
	if len(s.site.RewardConfirmTexts) == 0 && len(s.site.RewardDoneTexts) == 0 && len(s.site.RewardDoneHints) == 0 && s.site.RewardAmount.Pattern == "" {
		return RewardClaimed, nil
	}
	confirmed := poll(ctx, s.timing.ConfirmWait, s.timing.PollInterval, func() bool {
		text, err := page.Text(ctx)
		if err != nil {
			return false
		}
		if containsAny(text, s.site.RewardConfirmTexts) || containsAny(text, s.site.RewardDoneTexts) || containsAny(text, s.site.RewardDoneHints) {
			return true
		}
		_, ok := extract.ParseReward(text, s.site.RewardAmount)
		return ok
	})
	if !confirmed {
		return RewardUnconfirmed, nil
	}
	return RewardClaimed, nil
}

// alreadyDone reports whether the page says today's reward was claimed.
// A done marker wins over any control still on the page.
func (s *Steps) alreadyDone(ctx context.Context, page Page) bool {
	if len(s.site.RewardDoneTexts) == 0 && len(s.site.RewardDoneHints) == 0 {
		return false
	}
	text, err := page.Text(ctx)
	if err != nil {
		return false
	}
	if containsAny(text, s.site.RewardDoneTexts) {
		return true
	}
	return containsAny(text, s.site.RewardDoneHints) && !containsAny(text, s.site.RewardPendingTexts)
}
