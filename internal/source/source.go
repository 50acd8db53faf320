// Package source provides the feed sources polled for keyword matches.
package source

import (
	"context"

	"keyword_bot/internal/filter"
	"keyword_bot/internal/model"
)

// Source fetches the most recent items matching a keyword.
type Source interface {
	Name() string
	Fetch(ctx context.Context, keyword string, limit int) ([]model.Item, error)
}

func truncateItems(items []model.Item, limit int) []model.Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// search splits a keyword expression into the query sent to a search engine
// and the rules its results must still pass.
func search(keyword string) (string, []filter.Rule) {
	rules := filter.Parse(keyword)
	return filter.Query(rules), filter.Residual(rules)
}

func matchItems(items []model.Item, rules []filter.Rule) []model.Item {
	if len(rules) == 0 {
		return items
	}
	out := items[:0]
	for _, it := range items {
		if filter.Match(filter.FeedItem{Title: it.Title, Description: it.Description}, rules) {
			out = append(out, it)
		}
	}
	return out
}
