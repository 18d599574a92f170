package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedlens/pkg/bookmark"
	"github.com/umputun/feedlens/pkg/domain"
	"github.com/umputun/feedlens/pkg/feed"
	"github.com/umputun/feedlens/pkg/pipeline/mocks"
)

func TestPipeline_Run_OrderAndIsolation(t *testing.T) {
	now := time.Now()

	fetcher := &mocks.FetcherMock{
		FetchFunc: func(ctx context.Context, url string) (*domain.ParsedFeed, error) {
			if url == "https://bad.example/feed" {
				return nil, fmt.Errorf("status 500 after retries")
			}
			return &domain.ParsedFeed{
				Title: "feed " + url,
				Link:  "https://site.example",
				Items: []domain.ParsedItem{{Link: url + "/post", Updated: &now}},
			}, nil
		},
	}
	normalizer := &mocks.NormalizerMock{
		NormalizeFunc: func(parsed *domain.ParsedFeed, src domain.Source) []domain.Entry {
			entries := make([]domain.Entry, 0, len(parsed.Items))
			for _, item := range parsed.Items {
				entries = append(entries, domain.Entry{URL: item.Link, Updated: item.Updated})
			}
			return entries
		},
	}
	enricher := &mocks.EnricherMock{
		EnrichFunc: func(ctx context.Context, entry domain.Entry) domain.Entry {
			entry.BookmarkCount = 42
			return entry
		},
	}

	p := New(fetcher, normalizer, enricher, 4)
	sources := []domain.Source{
		{URL: "https://a.example/feed"},
		{URL: "https://bad.example/feed"},
		{URL: "https://c.example/feed"},
	}

	results := p.Run(context.Background(), sources)
	require.Len(t, results, 3)

	// output order matches input order regardless of completion order
	assert.Equal(t, "https://a.example/feed", results[0].FeedURL)
	assert.Equal(t, "https://bad.example/feed", results[1].FeedURL)
	assert.Equal(t, "https://c.example/feed", results[2].FeedURL)

	// the failing feed has an empty entry list, siblings are intact
	require.Len(t, results[0].Entries, 1)
	assert.Empty(t, results[1].Entries)
	assert.Empty(t, results[1].FeedTitle)
	require.Len(t, results[2].Entries, 1)

	assert.Equal(t, 42, results[0].Entries[0].BookmarkCount)
	assert.Equal(t, "https://a.example/feed/post", results[0].Entries[0].URL)

	assert.Len(t, fetcher.FetchCalls(), 3)
	assert.Len(t, normalizer.NormalizeCalls(), 2, "failed feed never reaches normalization")
	assert.Len(t, enricher.EnrichCalls(), 2)
}

func TestPipeline_Run_FeedMetadataCarried(t *testing.T) {
	modified := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	fetcher := &mocks.FetcherMock{
		FetchFunc: func(ctx context.Context, url string) (*domain.ParsedFeed, error) {
			return &domain.ParsedFeed{
				Title:    "My Feed",
				Link:     "https://site.example",
				Image:    "https://site.example/logo.png",
				ETag:     `"v1"`,
				Modified: &modified,
			}, nil
		},
	}
	normalizer := &mocks.NormalizerMock{
		NormalizeFunc: func(parsed *domain.ParsedFeed, src domain.Source) []domain.Entry { return nil },
	}
	enricher := &mocks.EnricherMock{
		EnrichFunc: func(ctx context.Context, entry domain.Entry) domain.Entry { return entry },
	}

	p := New(fetcher, normalizer, enricher, 1)
	results := p.Run(context.Background(), []domain.Source{{URL: "https://a.example/feed"}})

	require.Len(t, results, 1)
	assert.Equal(t, "My Feed", results[0].FeedTitle)
	assert.Equal(t, "https://site.example", results[0].PageURL)
	assert.Equal(t, "https://site.example/logo.png", results[0].FeedImage)
	assert.Equal(t, `"v1"`, results[0].FeedETag)
	assert.Equal(t, modified, *results[0].Modified)
	assert.Empty(t, enricher.EnrichCalls())
}

func TestPipeline_Run_NoSources(t *testing.T) {
	p := New(&mocks.FetcherMock{}, &mocks.NormalizerMock{}, &mocks.EnricherMock{}, 4)
	results := p.Run(context.Background(), nil)
	assert.Empty(t, results)
}

// full scenario with real fetcher, normalizer and bookmark client against
// httptest servers: one item published two days ago, tracking query on its
// link, service reports count/tags/screenshot
func TestPipeline_Run_EndToEnd(t *testing.T) {
	pubDate := time.Now().Add(-48 * time.Hour).Format(time.RFC1123Z)
	rssContent := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Example Feed</title>
	<link>https://example.com</link>
	<item>
		<title>Example Post</title>
		<link>https://example.com/post?utm=1</link>
		<pubDate>%s</pubDate>
		<category>News</category>
	</item>
</channel>
</rss>`, pubDate)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssContent))
	}))
	defer feedSrv.Close()

	bookmarkSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://example.com/post", r.URL.Query().Get("url"), "canonical url used for enrichment")
		w.Write([]byte(`{"count": 5, "bookmarks": [{"tags": ["news"]}], "screenshot": "https://x/shot.png"}`))
	}))
	defer bookmarkSrv.Close()

	p := New(
		feed.NewParser(5*time.Second, "feedlens/1.0", 3, time.Millisecond),
		feed.NewNormalizer(100, 30*24*time.Hour),
		bookmark.NewClient(bookmarkSrv.URL, 5*time.Second, "feedlens/1.0", 3, time.Millisecond),
		2,
	)

	results := p.Run(context.Background(), []domain.Source{{URL: feedSrv.URL}})
	require.Len(t, results, 1)
	assert.Equal(t, "Example Feed", results[0].FeedTitle)
	assert.Equal(t, "https://example.com", results[0].PageURL)

	require.Len(t, results[0].Entries, 1)
	entry := results[0].Entries[0]
	assert.Equal(t, "https://example.com/post", entry.URL)
	assert.Equal(t, []string{"news"}, entry.Tags)
	assert.Equal(t, 5, entry.BookmarkCount)
	assert.Equal(t, "https://x/shot.png", entry.ImageURL)
}
