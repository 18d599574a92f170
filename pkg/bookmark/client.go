// Package bookmark enriches entries with social-bookmark metadata: the
// bookmark count, community tags and a preview screenshot reported by the
// bookmark service for a given URL.
package bookmark

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater/v2"

	"github.com/umputun/feedlens/pkg/domain"
	"github.com/umputun/feedlens/pkg/feed"
)

// noImageFile is the basename of the service's "no real screenshot"
// placeholder, never adopted as an entry image
const noImageFile = "noimage.png"

// Client calls the bookmark-metadata service. Failures never propagate to
// the caller: an entry that can't be enriched keeps bookmark count 0 and
// its tags and image untouched.
type Client struct {
	client     *http.Client
	endpoint   string
	userAgent  string
	maxRetries int
	backoff    time.Duration
}

// entryInfo is the service's JSON response for one URL. The service returns
// a JSON null for URLs it has never seen.
type entryInfo struct {
	Count     int    `json:"count"`
	Bookmarks []struct {
		Tags []string `json:"tags"`
	} `json:"bookmarks"`
	Screenshot string `json:"screenshot"`
}

// NewClient creates an enrichment client for the given service endpoint,
// sharing the retry policy shape of the feed fetcher.
func NewClient(endpoint string, timeout time.Duration, userAgent string, maxRetries int, backoff time.Duration) *Client {
	return &Client{
		client:     &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		userAgent:  userAgent,
		maxRetries: maxRetries,
		backoff:    backoff,
	}
}

// Enrich looks the entry's canonical URL up in the bookmark service and
// returns a copy with count, tags and image updated. Any failure, including
// retry exhaustion, is logged and leaves the entry unchanged.
func (c *Client) Enrich(ctx context.Context, entry domain.Entry) domain.Entry {
	info, err := c.lookup(ctx, entry.URL)
	if err != nil {
		lgr.Printf("[WARN] bookmark lookup failed for %s: %v", entry.URL, err)
		return entry
	}
	if info == nil { // service has no record for this URL
		return entry
	}

	entry.BookmarkCount = info.Count

	for _, b := range info.Bookmarks {
		entry.Tags = domain.MergeTags(entry.Tags, b.Tags)
	}

	if entry.ImageURL == "" && usableScreenshot(info.Screenshot) {
		entry.ImageURL = info.Screenshot
	}

	return entry
}

// lookup performs the GET with retry, decoding the service response.
// A nil info with nil error means the service reported no record.
func (c *Client) lookup(ctx context.Context, entryURL string) (*entryInfo, error) {
	reqURL := c.endpoint + "?url=" + url.QueryEscape(entryURL)

	var info *entryInfo
	retrier := repeater.NewBackoff(c.maxRetries, c.backoff, repeater.WithMaxDelay(30*time.Second))
	err := retrier.Do(ctx, func() error {
		var e error
		info, e = c.get(ctx, reqURL)
		return e
	}, errBadResponse)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// errBadResponse marks failures retrying can't help with
var errBadResponse = fmt.Errorf("bad bookmark response")

func (c *Client) get(ctx context.Context, reqURL string) (*entryInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %s", errBadResponse, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if feed.RetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("retryable status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: status %d", errBadResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var info *entryInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: decode: %s", errBadResponse, err)
	}
	return info, nil // nil when the body was a JSON null
}

// usableScreenshot rejects empty values and the service's no-image placeholder
func usableScreenshot(screenshot string) bool {
	if screenshot == "" {
		return false
	}
	return !strings.EqualFold(path.Base(screenshot), noImageFile)
}
