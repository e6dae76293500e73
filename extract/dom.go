package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/dailyclaim/config"
)

var (
	bareCountRe = regexp.MustCompile(`^"?[0-9][0-9,]*"?$`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// skippedTags never hold visible values.
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true,
}

// DOMStrategy infers values from the rendered document. Each leaf element
// holding a currency or count shaped text is bucketed by the labels found
// in its parent, then its parent and grandparent together.
type DOMStrategy struct {
	site       config.Site
	currencyRe *regexp.Regexp
}

func NewDOMStrategy(site config.Site) *DOMStrategy {
	symbol := `[$¥€£]`
	if site.CurrencySymbol != "" {
		symbol = regexp.QuoteMeta(site.CurrencySymbol)
	}
	return &DOMStrategy{
		site:       site,
		currencyRe: regexp.MustCompile(`-?` + symbol + `\s?-?[0-9][0-9,]*(?:\.[0-9]+)?`),
	}
}

func (s *DOMStrategy) Name() string { return "dom" }
func (s *DOMStrategy) Rank() int    { return RankDOM }

func (s *DOMStrategy) Extract(ctx context.Context, page Page) (Record, error) {
	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	return s.parse(html)
}

func (s *DOMStrategy) parse(html string) (Record, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	rec := make(Record)
	put := func(f Field, text string) {
		rec.Set(f, Value{Text: text, Source: s.Name(), Rank: s.Rank()})
	}

	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 0 || skippedTags[goquery.NodeName(sel)] {
			return
		}
		text := strings.TrimSpace(sel.Text())
		if text == "" {
			return
		}

		if m := s.currencyRe.FindString(text); m != "" {
			if f := s.bucket(sel, config.LabelCurrency); f != "" {
				put(f, spaceRe.ReplaceAllString(m, ""))
			}
			return
		}
		if bareCountRe.MatchString(text) {
			if f := s.bucket(sel, config.LabelCount); f != "" {
				put(f, strings.Trim(text, `"`))
			}
		}
	})

	if v, ok := ParseReward(doc.Find("body").Text(), s.site.RewardAmount); ok {
		put(FieldReward, FormatReward(v, s.site.RewardAmount))
	}
	return rec, nil
}

// bucket returns the field of the first label of kind found near sel.
// The parent alone is searched before the parent and grandparent together,
// so a shared container does not pull every value into its first label.
func (s *DOMStrategy) bucket(sel *goquery.Selection, kind string) Field {
	parent := sel.Parent()
	near := parent.Text()
	wide := near + " | " + parent.Parent().Text()

	for _, scope := range []string{near, wide} {
		for _, l := range s.site.DOMLabels {
			if l.Kind != kind {
				continue
			}
			if containsAnyLabel(scope, l.Labels) {
				return Field(l.Field)
			}
		}
	}
	return ""
}

func containsAnyLabel(s string, labels []string) bool {
	for _, l := range labels {
		if l != "" && strings.Contains(s, l) {
			return true
		}
	}
	return false
}
