// Package fetcher performs the HTTP requests of the feed sources: rate
// limited, retried GETs with bounded bodies, feed and JSON decoding, and
// HTML to text helpers.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sethvargo/go-retry"
)

const maxBodySize = 5 * 1024 * 1024

// Error kinds returned by the fetcher. Callers classify failures with errors.Is.
var (
	ErrNetwork = errors.New("network error")
	ErrParse   = errors.New("parse error")
)

// StatusError reports a non-200 HTTP response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher downloads and decodes remote documents.
type Fetcher struct {
	client    HTTPClient
	limiter   *HostLimiter
	retries   uint64
	retryBase time.Duration
}

// New creates a Fetcher with the given HTTP client. Requests are retried
// twice and hosts are not rate limited until SetHostInterval is called.
func New(client HTTPClient) *Fetcher {
	return &Fetcher{
		client:    client,
		limiter:   NewHostLimiter(0),
		retries:   2,
		retryBase: 500 * time.Millisecond,
	}
}

// SetRetries overrides the number of retries after a failed request.
func (f *Fetcher) SetRetries(n int) {
	if n < 0 {
		n = 0
	}
	f.retries = uint64(n)
}

// SetHostInterval sets the minimum delay between two requests to the same host.
func (f *Fetcher) SetHostInterval(d time.Duration) {
	f.limiter = NewHostLimiter(d)
}

// Get downloads the body of url. Transport failures, 429 and 5xx responses
// are retried with exponential backoff. All failures wrap ErrNetwork.
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx, url); err != nil {
		return nil, fmt.Errorf("%w: wait for host: %w", ErrNetwork, err)
	}

	var body []byte
	backoff := retry.WithMaxRetries(f.retries, retry.NewExponential(f.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		data, err := f.get(ctx, url)
		if err != nil {
			if retryable(ctx, err) {
				return retry.RetryableError(err)
			}
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrNetwork) {
			err = fmt.Errorf("%w: %w", ErrNetwork, err)
		}
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %w", ErrNetwork, err)
	}
	req.Header.Set("User-Agent", "KeywordNotifyBot/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http get: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, &StatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrNetwork, err)
	}
	return body, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// FetchFeed downloads and parses an RSS or Atom feed.
func (f *Fetcher) FetchFeed(ctx context.Context, url string) (*gofeed.Feed, error) {
	body, err := f.Get(ctx, url)
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %w", ErrParse, err)
	}
	return feed, nil
}

// FetchJSON downloads url and decodes its JSON body into v.
func (f *Fetcher) FetchJSON(ctx context.Context, url string, v any) error {
	body, err := f.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode json: %w", ErrParse, err)
	}
	return nil
}
