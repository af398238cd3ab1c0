// Package pipeline turns a store snapshot and view parameters into the
// ordered sequence a presentation renders, plus stats over the whole store.
package pipeline

import (
	"sort"
	"strings"

	"token_radar/models"
	"token_radar/view"
)

// Derive runs filter, then search, then a stable descending sort. The input
// slice is not modified. Unknown filter values keep every token and unknown
// sort keys keep the input order.
func Derive(tokens []models.Token, params view.Params) []models.Token {
	out := make([]models.Token, 0, len(tokens))
	query := strings.ToLower(params.SearchQuery)

	for _, t := range tokens {
		if !matchesFilter(t, params.Filter) {
			continue
		}
		if !matchesSearch(t, query) {
			continue
		}
		out = append(out, t)
	}

	if less := comparator(params.SortBy); less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i], out[j])
		})
	}
	return out
}

func matchesFilter(t models.Token, f models.Filter) bool {
	switch f {
	case models.FilterTrending:
		return t.Status == models.StatusTrending
	case models.FilterNew:
		return t.Status == models.StatusNew
	case models.FilterActive:
		return t.Status == models.StatusActive
	default:
		return true
	}
}

// query must already be lowercased
func matchesSearch(t models.Token, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Name), query) ||
		strings.Contains(strings.ToLower(t.Symbol), query) ||
		strings.Contains(strings.ToLower(t.Agent), query)
}

func comparator(key models.SortKey) func(a, b models.Token) bool {
	switch key {
	case models.SortByMarketCap:
		return func(a, b models.Token) bool { return a.MarketCap > b.MarketCap }
	case models.SortByChange24h:
		return func(a, b models.Token) bool { return a.Change24h > b.Change24h }
	case models.SortByLaunchDate:
		return func(a, b models.Token) bool { return a.LaunchDate.After(b.LaunchDate.Time) }
	default:
		return nil
	}
}

// ComputeStats aggregates over the full collection it is given. Callers pass
// the unfiltered store snapshot, never a derived view.
func ComputeStats(tokens []models.Token) models.Stats {
	stats := models.Stats{TotalTokens: len(tokens)}
	agents := make(map[string]struct{}, len(tokens))

	for _, t := range tokens {
		stats.TotalMarketCap += t.MarketCap
		if t.Status == models.StatusTrending {
			stats.TrendingCount++
		}
		agents[t.Agent] = struct{}{}
	}
	stats.ActiveAgents = len(agents)
	return stats
}
