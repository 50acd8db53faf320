package source

import (
	"context"
	"net/url"
	"strings"

	"keyword_bot/internal/fetcher"
	"keyword_bot/internal/model"
)

const googleNewsEndpoint = "https://news.google.com/rss/search"

// GoogleNews searches the Google News RSS search feed.
type GoogleNews struct {
	fetcher  *fetcher.Fetcher
	endpoint string
	lang     string
	region   string
}

// NewGoogleNews creates a Google News source for a language such as
// "en-US" and a region such as "US".
func NewGoogleNews(f *fetcher.Fetcher, lang, region string) *GoogleNews {
	return &GoogleNews{fetcher: f, endpoint: googleNewsEndpoint, lang: lang, region: region}
}

// Name implements Source.
func (g *GoogleNews) Name() string { return "googlenews" }

func (g *GoogleNews) searchURL(keyword string) string {
	base, _, _ := strings.Cut(g.lang, "-")
	q := url.Values{}
	q.Set("q", keyword)
	q.Set("hl", g.lang)
	q.Set("gl", g.region)
	q.Set("ceid", g.region+":"+base)
	return g.endpoint + "?" + q.Encode()
}

// Fetch returns up to limit items in feed order. Only the plain terms of
// keyword are searched; the rest of the expression filters the results.
func (g *GoogleNews) Fetch(ctx context.Context, keyword string, limit int) ([]model.Item, error) {
	query, rules := search(keyword)
	if query == "" {
		return nil, nil
	}

	feed, err := g.fetcher.FetchFeed(ctx, g.searchURL(query))
	if err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, model.Item{
			Title:       fetcher.CleanTitle(it.Title),
			Link:        strings.TrimSpace(it.Link),
			Description: fetcher.PlainText(it.Description),
			Source:      g.Name(),
			PublishedAt: it.PublishedParsed,
		})
	}
	return truncateItems(matchItems(items, rules), limit), nil
}
