package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"gopkg.in/yaml.v3"

	"keyword_bot/internal/fetcher"
	"keyword_bot/internal/filter"
	"keyword_bot/internal/model"
)

// FeedsConfig is the YAML layout of the static feed list:
//
//	feeds:
//	  - https://...
type FeedsConfig struct {
	Feeds []string `yaml:"feeds"`
}

// LoadFeeds reads the list of feed URLs from a YAML file.
func LoadFeeds(path string) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("open feeds file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var cfg FeedsConfig
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode feeds file: %w", err)
	}

	var feeds []string
	for _, u := range cfg.Feeds {
		if u = strings.TrimSpace(u); u != "" {
			feeds = append(feeds, u)
		}
	}
	return feeds, nil
}

type cachedFeed struct {
	feed      *gofeed.Feed
	fetchedAt time.Time
}

// RSS matches the items of a fixed list of feeds against keyword expressions.
// Downloaded feeds are reused for a short time so that one polling cycle
// downloads every feed once, however many keywords are watched.
type RSS struct {
	fetcher *fetcher.Fetcher
	urls    []string
	ttl     time.Duration
	now     func() time.Time

	mu    sync.Mutex
	cache map[string]cachedFeed
}

// NewRSS creates a source over the given feed URLs.
func NewRSS(f *fetcher.Fetcher, urls []string, ttl time.Duration) *RSS {
	return &RSS{
		fetcher: f,
		urls:    urls,
		ttl:     ttl,
		now:     time.Now,
		cache:   make(map[string]cachedFeed),
	}
}

// Name implements Source.
func (r *RSS) Name() string { return "rss" }

// Fetch returns up to limit matching items, in feed list order and then
// feed order. Feeds that fail are skipped unless every feed fails.
func (r *RSS) Fetch(ctx context.Context, keyword string, limit int) ([]model.Item, error) {
	rules := filter.Parse(keyword)

	var (
		items []model.Item
		errs  []error
	)
	for _, u := range r.urls {
		feed, err := r.feed(ctx, u)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", u, err))
			continue
		}
		for _, it := range feed.Items {
			fi := filter.FeedItem{
				Title:       fetcher.CleanTitle(it.Title),
				Description: fetcher.PlainText(it.Description),
			}
			if !filter.Match(fi, rules) {
				continue
			}
			items = append(items, model.Item{
				Title:       fi.Title,
				Link:        strings.TrimSpace(it.Link),
				Description: fetcher.Truncate(fi.Description, 300),
				Source:      r.Name(),
				PublishedAt: it.PublishedParsed,
			})
		}
	}

	if len(r.urls) > 0 && len(errs) == len(r.urls) {
		return nil, errors.Join(errs...)
	}
	return truncateItems(items, limit), nil
}

func (r *RSS) feed(ctx context.Context, url string) (*gofeed.Feed, error) {
	r.mu.Lock()
	c, ok := r.cache[url]
	r.mu.Unlock()
	if ok && r.now().Sub(c.fetchedAt) < r.ttl {
		return c.feed, nil
	}

	feed, err := r.fetcher.FetchFeed(ctx, url)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[url] = cachedFeed{feed: feed, fetchedAt: r.now()}
	r.mu.Unlock()
	return feed, nil
}
