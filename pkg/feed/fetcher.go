package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/umputun/rssalert/pkg/domain"
)

// DefaultUserAgent is sent with every feed request unless overridden
const DefaultUserAgent = "rssalert/1.0 (+https://github.com/umputun/rssalert)"

// Request describes a single feed fetch
type Request struct {
	URL      string
	Name     string
	Username string
	Password string
	Timeout  time.Duration
}

// StatusError is returned when the feed server responds with a non-200 status
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d fetching %s", e.Code, e.URL)
}

// HTTPFetcher fetches RSS/Atom feeds via HTTP
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a new feed fetcher. Timeouts are per request, see Request.Timeout.
func NewHTTPFetcher(userAgent string) *HTTPFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTTPFetcher{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// Fetch retrieves and parses a feed. Entries are returned in feed order with the raw
// published string, normalization is up to the caller.
func (f *HTTPFetcher) Fetch(ctx context.Context, r Request) ([]domain.Entry, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	addFeedHeaders(req, f.userAgent)
	if r.Username != "" && r.Password != "" {
		req.SetBasicAuth(r.Username, r.Password)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", r.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: r.URL, Code: resp.StatusCode}
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// deadline hit while reading the body, the read error doesn't carry it
			return nil, fmt.Errorf("parse feed %s: %w", r.URL, errors.Join(ctxErr, err))
		}
		return nil, fmt.Errorf("parse feed %s: %w", r.URL, err)
	}

	entries := make([]domain.Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entry := domain.Entry{
			GUID:         item.GUID,
			Link:         item.Link,
			Title:        item.Title,
			Description:  item.Description,
			PublishedRaw: item.Published,
		}
		if entry.PublishedRaw == "" {
			entry.PublishedRaw = item.Updated
		}
		if entry.Description == "" {
			entry.Description = item.Content
		}
		if entry.GUID == "" {
			entry.GUID = item.Link
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
