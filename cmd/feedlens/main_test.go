package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/feedlens/pkg/store"
)

func TestRun_MissingConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	opts := Opts{Config: "non-existent-config.yml", Feeds: "feed.json"}

	err := run(ctx, opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load config")
}

func TestRun_MissingSources(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	opts := Opts{Feeds: filepath.Join(t.TempDir(), "no-such-feed.json")}

	err := run(ctx, opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load sources")
}

func TestRun_FullPass(t *testing.T) {
	pubDate := time.Now().Add(-24 * time.Hour).Format(time.RFC1123Z)
	rssContent := fmt.Sprintf(`<?xml version="1.0"?>
<rss version="2.0"><channel>
	<title>CLI Feed</title>
	<link>https://example.com</link>
	<item>
		<title>Post</title>
		<link>https://example.com/post?ref=rss</link>
		<pubDate>%s</pubDate>
	</item>
</channel></rss>`, pubDate)

	feedSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(rssContent))
	}))
	defer feedSrv.Close()

	bookmarkSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"count": 3}`))
	}))
	defer bookmarkSrv.Close()

	dir := t.TempDir()

	feedsPath := filepath.Join(dir, "feed.json")
	require.NoError(t, os.WriteFile(feedsPath, fmt.Appendf(nil, `[{"url": %q}]`, feedSrv.URL), 0o600))

	configPath := filepath.Join(dir, "config.yml")
	configContent := fmt.Sprintf(`
http:
  backoff: 1ms
bookmark:
  endpoint: %q
output:
  file: %q
  json_file: %q
`, bookmarkSrv.URL, filepath.Join(dir, "result.parquet"), filepath.Join(dir, "result.json"))
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx, Opts{Config: configPath, Feeds: feedsPath})
	require.NoError(t, err)

	rows, err := parquet.ReadFile[store.EntryRow](filepath.Join(dir, "result.parquet"))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "CLI Feed", rows[0].FeedTitle)
	assert.Equal(t, "https://example.com/post", rows[0].EntryURL)
	assert.Equal(t, int64(3), rows[0].BookmarkCount)

	_, err = os.Stat(filepath.Join(dir, "result.json"))
	require.NoError(t, err)
}

func TestRun_PersistenceFailureIsFatal(t *testing.T) {
	feedsPath := filepath.Join(t.TempDir(), "feed.json")
	require.NoError(t, os.WriteFile(feedsPath, []byte(`[]`), 0o600))

	badOutput := filepath.Join(t.TempDir(), "missing-dir", "result.parquet")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := run(ctx, Opts{Feeds: feedsPath, Output: badOutput})
	require.Error(t, err)
	assert.Contains(t, err.Error(), badOutput)
}

func TestLoadConfig_OutputOverride(t *testing.T) {
	cfg, err := loadConfig(Opts{Output: "custom.parquet"})
	require.NoError(t, err)
	assert.Equal(t, "custom.parquet", cfg.Output.File)
}
