package extract

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ysmood/gson"

	"github.com/use-agent/dailyclaim/config"
)

var (
	errNoUserID = errors.New("no user id in client storage")
	errNoData   = errors.New("endpoint returned no data")
)

// userIDJS reads the id of the cached user profile.
const userIDJS = `(key) => {
	try {
		const user = JSON.parse(localStorage.getItem(key) || '{}');
		return user.id == null ? null : String(user.id);
	} catch (e) {
		return null;
	}
}`

// fetchSelfJS calls the profile endpoint with the page's own session.
const fetchSelfJS = `async (path, header, id) => {
	try {
		const headers = { 'Accept': 'application/json' };
		if (header) headers[header] = id;
		const resp = await fetch(path, { method: 'GET', headers, credentials: 'include' });
		return await resp.json();
	} catch (e) {
		return null;
	}
}`

// EndpointStrategy reads ground-truth quota values from the site's JSON
// profile endpoint.
type EndpointStrategy struct {
	site config.Site
}

func NewEndpointStrategy(site config.Site) *EndpointStrategy {
	return &EndpointStrategy{site: site}
}

func (s *EndpointStrategy) Name() string { return "endpoint" }
func (s *EndpointStrategy) Rank() int    { return RankEndpoint }

func (s *EndpointStrategy) Extract(ctx context.Context, page Page) (Record, error) {
	idRes, err := page.Eval(ctx, userIDJS, s.site.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("read user id: %w", err)
	}
	id, ok := idRes.Val().(string)
	if !ok || id == "" {
		return nil, errNoUserID
	}

	res, err := page.Eval(ctx, fetchSelfJS, s.site.Endpoint.Path, s.site.Endpoint.UserHeader, id)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", s.site.Endpoint.Path, err)
	}
	if !res.Get("success").Bool() {
		return nil, errNoData
	}
	data := res.Get("data")
	if _, ok := data.Val().(map[string]interface{}); !ok {
		return nil, errNoData
	}

	rec := make(Record)
	s.put(rec, FieldBalance, money(data, "quota", s.site))
	s.put(rec, FieldUsed, money(data, "used_quota", s.site))
	s.put(rec, FieldRequests, count(data, "request_count"))
	name := str(data, "display_name")
	if name == "" {
		name = str(data, "username")
	}
	s.put(rec, FieldDisplayName, name)
	return rec, nil
}

func (s *EndpointStrategy) put(rec Record, f Field, text string) {
	rec.Set(f, Value{Text: text, Source: s.Name(), Rank: s.Rank()})
}

// num returns the number stored at key, if any.
func num(j gson.JSON, key string) (float64, bool) {
	v, ok := j.Get(key).Val().(float64)
	return v, ok
}

func money(j gson.JSON, key string, site config.Site) string {
	v, ok := num(j, key)
	if !ok {
		return ""
	}
	return FormatUnits(rawUnits(v), site.ScaleFactor, site.CurrencySymbol)
}

func count(j gson.JSON, key string) string {
	v, ok := num(j, key)
	if !ok {
		return ""
	}
	return strconv.FormatInt(rawUnits(v), 10)
}

func str(j gson.JSON, key string) string {
	v, _ := j.Get(key).Val().(string)
	return v
}
