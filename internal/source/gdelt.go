package source

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"keyword_bot/internal/fetcher"
	"keyword_bot/internal/model"
)

const gdeltEndpoint = "https://api.gdeltproject.org/api/v2/doc/doc"

const gdeltTimeLayout = "20060102T150405Z"

// GDELT searches the GDELT DOC 2.0 article list.
type GDELT struct {
	fetcher  *fetcher.Fetcher
	endpoint string
}

// NewGDELT creates a GDELT source using the public endpoint.
func NewGDELT(f *fetcher.Fetcher) *GDELT {
	return &GDELT{fetcher: f, endpoint: gdeltEndpoint}
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

type gdeltArticle struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	SeenDate string `json:"seendate"`
	Domain   string `json:"domain"`
}

// Name implements Source.
func (g *GDELT) Name() string { return "gdelt" }

// Fetch returns up to limit articles, newest first. Only the plain terms of
// keyword are searched; the rest of the expression filters the results.
func (g *GDELT) Fetch(ctx context.Context, keyword string, limit int) ([]model.Item, error) {
	query, rules := search(keyword)
	if query == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("mode", "ArtList")
	q.Set("format", "json")
	q.Set("maxrecords", strconv.Itoa(limit))
	q.Set("sort", "DateDesc")

	var resp gdeltResponse
	if err := g.fetcher.FetchJSON(ctx, g.endpoint+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		item := model.Item{
			Title:       fetcher.CleanTitle(a.Title),
			Link:        a.URL,
			Description: a.Domain,
			Source:      g.Name(),
		}
		if t, err := time.Parse(gdeltTimeLayout, a.SeenDate); err == nil {
			item.PublishedAt = &t
		}
		items = append(items, item)
	}
	return truncateItems(matchItems(items, rules), limit), nil
}
