package automation

import (
	"context"
)

// removeOverlaysJS deletes every element matching the given selectors and
// returns how many were removed.
const removeOverlaysJS = `(selectors) => {
	let removed = 0;
	for (const sel of selectors) {
		document.querySelectorAll(sel).forEach((el) => { el.remove(); removed++; });
	}
	if (removed > 0 && document.body) {
		document.body.style.overflow = '';
	}
	return removed;
}`

// Dismiss closes announcement popups and modal overlays. It is best-effort:
// it never fails and reports whether any strategy acted.
//
// The strategies run in order and the first that acts wins: a labelled
// close control, an Escape key press, then forced removal of the overlay
// containers. Escape only counts when an overlay was visible before the key
// press and none is left afterwards.
func (s *Steps) Dismiss(ctx context.Context, page Page) bool {
	// ── 1. Labelled dismiss control ──
	chain := append(TextChain("dismiss", s.site.DismissTexts, ""), SelectorChain("dismiss", s.site.DismissSelectors)...)
	if el, m := chain.First(ctx, page); el != nil {
		if err := el.Click(ctx); err == nil {
			s.log.Debug("interstitial dismissed", "strategy", "control", "matcher", m.Name)
			return true
		}
	}

	// ── 2. Escape ──
	before := s.overlayVisible(ctx, page)
	if err := page.PressKey(ctx, KeyEscape); err == nil && before && !s.overlayVisible(ctx, page) {
		s.log.Debug("interstitial dismissed", "strategy", "escape")
		return true
	}

	// ── 3. Forced overlay removal ──
	if len(s.site.OverlaySelectors) == 0 {
		return false
	}
	res, err := page.Eval(ctx, removeOverlaysJS, s.site.OverlaySelectors)
	if err != nil {
		s.log.Debug("overlay removal failed", "error", err)
		return false
	}
	if n := res.Int(); n > 0 {
		s.log.Debug("interstitial dismissed", "strategy", "removal", "removed", n)
		return true
	}
	return false
}

func (s *Steps) overlayVisible(ctx context.Context, page Page) bool {
	if len(s.site.OverlaySelectors) == 0 {
		return false
	}
	chain := SelectorChain("overlay", s.site.OverlaySelectors)
	for i := range chain {
		chain[i].AllowDisabled = true
	}
	el, _ := chain.First(ctx, page)
	return el != nil
}
