package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"keyword_bot/internal/metrics"
	"keyword_bot/internal/model"
)

// Multi queries several sources concurrently and merges their items.
type Multi struct {
	sources []Source
	log     *slog.Logger
}

// NewMulti combines sources. Failures of single sources are logged to log.
func NewMulti(log *slog.Logger, sources ...Source) *Multi {
	return &Multi{sources: sources, log: log}
}

// Name implements Source.
func (m *Multi) Name() string { return "multi" }

// Fetch interleaves the items of every source, taking one item from each in
// turn, drops repeated links and keeps at most limit items. It fails only
// when every source fails.
func (m *Multi) Fetch(ctx context.Context, keyword string, limit int) ([]model.Item, error) {
	results := make([][]model.Item, len(m.sources))
	errs := make([]error, len(m.sources))

	var g errgroup.Group
	for i, src := range m.sources {
		g.Go(func() error {
			items, err := src.Fetch(ctx, keyword, limit)
			metrics.RecordFetch(src.Name(), err)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				return nil
			}
			results[i] = items
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if len(m.sources) > 0 && failed == len(m.sources) {
		return nil, errors.Join(errs...)
	}
	for _, err := range errs {
		if err != nil {
			m.log.Warn("source failed", "keyword", keyword, "error", err)
		}
	}

	return truncateItems(interleave(results), limit), nil
}

func interleave(results [][]model.Item) []model.Item {
	seen := make(map[string]struct{})
	var merged []model.Item
	for i := 0; ; i++ {
		more := false
		for _, items := range results {
			if i >= len(items) {
				continue
			}
			more = true
			it := items[i]
			if it.Link != "" {
				if _, dup := seen[it.Link]; dup {
					continue
				}
				seen[it.Link] = struct{}{}
			}
			merged = append(merged, it)
		}
		if !more {
			return merged
		}
	}
}
