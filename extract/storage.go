package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/use-agent/dailyclaim/config"
)

var errNoProfile = errors.New("no cached profile in client storage")

// cachedProfileJS returns the parsed client-side profile or null.
const cachedProfileJS = `(key) => {
	try {
		const raw = localStorage.getItem(key);
		return raw ? JSON.parse(raw) : null;
	} catch (e) {
		return null;
	}
}`

// StorageStrategy reads the user profile the site caches in localStorage.
// It is the weakest source for balances but often the only one for the
// display name.
type StorageStrategy struct {
	site config.Site
}

func NewStorageStrategy(site config.Site) *StorageStrategy {
	return &StorageStrategy{site: site}
}

func (s *StorageStrategy) Name() string { return "storage" }
func (s *StorageStrategy) Rank() int    { return RankStorage }

func (s *StorageStrategy) Extract(ctx context.Context, page Page) (Record, error) {
	res, err := page.Eval(ctx, cachedProfileJS, s.site.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read cached profile: %w", err)
	}
	if _, ok := res.Val().(map[string]interface{}); !ok {
		return nil, errNoProfile
	}

	rec := make(Record)
	put := func(f Field, text string) {
		rec.Set(f, Value{Text: text, Source: s.Name(), Rank: s.Rank()})
	}

	quota, hasQuota := num(res, "quota")
	used, hasUsed := num(res, "used_quota")
	if hasQuota {
		// The cached quota is the total granted; remaining excludes usage.
		put(FieldBalance, FormatUnits(rawUnits(quota)-rawUnits(used), s.site.ScaleFactor, s.site.CurrencySymbol))
	}
	if hasUsed {
		put(FieldUsed, FormatUnits(rawUnits(used), s.site.ScaleFactor, s.site.CurrencySymbol))
	}
	put(FieldRequests, count(res, "request_count"))

	name := str(res, "display_name")
	if name == "" {
		name = str(res, "username")
	}
	put(FieldDisplayName, name)
	return rec, nil
}
