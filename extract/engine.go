// Package extract reads balance and reward values from a logged-in page.
//
// Several strategies run against the same page and their records are
// merged by rank: the direct endpoint beats the DOM heuristics, which beat
// the cached profile in client storage.
package extract

import (
	"context"
	"log/slog"
	"sort"

	"github.com/ysmood/gson"

	"github.com/use-agent/dailyclaim/config"
)

// Page is the part of a browser page the strategies need.
type Page interface {
	HTML(ctx context.Context) (string, error)
	Eval(ctx context.Context, js string, args ...any) (gson.JSON, error)
}

// Strategy is one way of reading values from a page.
type Strategy interface {
	// Name returns the strategy identifier (e.g. "endpoint", "dom").
	Name() string

	// Rank orders strategies. Lower ranks win on merge.
	Rank() int

	// Extract reads whatever fields it can. Values must carry Rank().
	Extract(ctx context.Context, page Page) (Record, error)
}

// Strategy ranks.
const (
	RankEndpoint = 1
	RankDOM      = 2
	RankStorage  = 3
)

// Engine runs all strategies for one site and merges their records.
type Engine struct {
	strategies []Strategy
	log        *slog.Logger
}

// NewEngine creates an engine with the given strategies, sorted by rank.
func NewEngine(strategies ...Strategy) *Engine {
	sorted := append([]Strategy(nil), strategies...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank() < sorted[j].Rank() })
	return &Engine{
		strategies: sorted,
		log:        slog.With("component", "extract"),
	}
}

// ForSite builds the strategies a site profile supports.
func ForSite(site config.Site) *Engine {
	var strategies []Strategy
	if site.Endpoint.Path != "" && site.StorageKey != "" {
		strategies = append(strategies, NewEndpointStrategy(site))
	}
	if len(site.DOMLabels) > 0 || site.RewardAmount.Pattern != "" {
		strategies = append(strategies, NewDOMStrategy(site))
	}
	if site.StorageKey != "" {
		strategies = append(strategies, NewStorageStrategy(site))
	}
	return NewEngine(strategies...)
}

// Strategies returns the strategy names in rank order.
func (e *Engine) Strategies() []string {
	names := make([]string, len(e.strategies))
	for i, s := range e.strategies {
		names[i] = s.Name()
	}
	return names
}

// Run executes every strategy. A failing strategy contributes nothing.
func (e *Engine) Run(ctx context.Context, page Page) Record {
	records := make([]Record, 0, len(e.strategies))
	for _, s := range e.strategies {
		if ctx.Err() != nil {
			break
		}
		rec, err := s.Extract(ctx, page)
		if err != nil {
			e.log.Debug("extraction strategy produced nothing", "strategy", s.Name(), "error", err)
			continue
		}
		e.log.Debug("extraction strategy finished", "strategy", s.Name(), "fields", len(rec))
		records = append(records, rec)
	}
	return Merge(records...)
}
