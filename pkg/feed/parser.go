package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pkgz/repeater/v2"
	"github.com/mmcdole/gofeed"

	"github.com/umputun/feedlens/pkg/domain"
)

// errTerminalStatus marks HTTP responses that should not be retried,
// i.e. any non-2xx status outside the retryable set.
var errTerminalStatus = errors.New("terminal http status")

// RetryableStatus reports if an HTTP status is worth retrying.
// Shared with the bookmark client so both outbound calls follow one policy.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Parser fetches and parses RSS/Atom feeds
type Parser struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	backoff    time.Duration
}

// NewParser creates a feed parser. The client follows redirects and applies
// the given timeout per attempt; transient failures are retried maxRetries
// times with exponential backoff seeded by backoff.
func NewParser(timeout time.Duration, userAgent string, maxRetries int, backoff time.Duration) *Parser {
	return &Parser{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent:  userAgent,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Fetch retrieves the feed document from url and parses it into a ParsedFeed.
// Transport errors and retryable statuses (429, 5xx) are retried per policy;
// retry exhaustion, terminal statuses and malformed documents all surface as
// errors for the caller to demote to an empty result.
func (p *Parser) Fetch(ctx context.Context, url string) (*domain.ParsedFeed, error) {
	var body []byte
	var etag, lastModified string

	retrier := repeater.NewBackoff(p.maxRetries, p.backoff, repeater.WithMaxDelay(30*time.Second))
	err := retrier.Do(ctx, func() error {
		var e error
		body, etag, lastModified, e = p.fetch(ctx, url)
		return e
	}, errTerminalStatus)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", url, err)
	}

	return p.convert(feed, etag, lastModified), nil
}

// fetch performs a single GET attempt and returns the body along with
// the caching headers the server reported
func (p *Parser) fetch(ctx context.Context, url string) (body []byte, etag, lastModified string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, "", "", fmt.Errorf("%w: create request: %s", errTerminalStatus, err)
	}

	req.Header.Set("User-Agent", p.userAgent)
	setFeedHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if RetryableStatus(resp.StatusCode) {
			return nil, "", "", fmt.Errorf("retryable status %d", resp.StatusCode)
		}
		return nil, "", "", fmt.Errorf("%w: %d", errTerminalStatus, resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("read body: %w", err)
	}

	return body, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

// convert maps a gofeed document to our intermediate types, collecting image
// candidates from media extensions and enclosures. Feed modification time is
// taken from headers, then the feed itself, then the latest entry timestamp.
func (p *Parser) convert(feed *gofeed.Feed, etag, lastModified string) *domain.ParsedFeed {
	result := &domain.ParsedFeed{
		Title: feed.Title,
		Link:  feed.Link,
		ETag:  etag,
		Items: make([]domain.ParsedItem, 0, len(feed.Items)),
	}

	if feed.Image != nil {
		result.Image = feed.Image.URL
	}

	for _, item := range feed.Items {
		parsed := domain.ParsedItem{
			Title:       item.Title,
			Link:        item.Link,
			Description: item.Description,
			Content:     item.Content,
			Published:   item.PublishedParsed,
			Updated:     item.UpdatedParsed,
			Tags:        item.Categories,
		}

		if item.Author != nil {
			parsed.Author = item.Author.Name
		}

		parsed.MediaURL = extensionURL(item, "content")
		parsed.ThumbnailURL = extensionURL(item, "thumbnail")

		for _, enc := range item.Enclosures {
			if enc == nil {
				continue
			}
			parsed.Enclosures = append(parsed.Enclosures, domain.Enclosure{URL: enc.URL, Type: enc.Type})
		}

		result.Items = append(result.Items, parsed)
	}

	result.Modified = resolveModified(feed, lastModified, result.Items)

	return result
}

// resolveModified picks the feed modification time: Last-Modified header,
// then the feed's own updated/published stamp, then the latest entry timestamp
func resolveModified(feed *gofeed.Feed, lastModified string, items []domain.ParsedItem) *time.Time {
	if lastModified != "" {
		if ts, err := http.ParseTime(lastModified); err == nil {
			return &ts
		}
	}
	if feed.UpdatedParsed != nil {
		return feed.UpdatedParsed
	}
	if feed.PublishedParsed != nil {
		return feed.PublishedParsed
	}

	var latest *time.Time
	for i := range items {
		ts := items[i].Updated
		if ts == nil {
			ts = items[i].Published
		}
		if ts != nil && (latest == nil || ts.After(*latest)) {
			latest = ts
		}
	}
	return latest
}

// extensionURL reads the url attribute of a media RSS extension element,
// e.g. media:content or media:thumbnail. Empty string when absent.
func extensionURL(item *gofeed.Item, name string) string {
	media, ok := item.Extensions["media"]
	if !ok {
		return ""
	}
	for _, ext := range media[name] {
		if url := ext.Attrs["url"]; url != "" {
			return url
		}
	}
	return ""
}
