// Package store persists a run's results: per-feed results flattened to one
// row per entry and written as a single columnar (parquet) file, overwritten
// on every run. Downstream ranking queries the file by source and time.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/umputun/feedlens/pkg/domain"
)

// EntryRow is the flat output record, one per surviving entry. Parent feed
// metadata repeats on every row so the file is queryable without joins.
type EntryRow struct {
	FeedTitle     string   `parquet:"feed_title"`
	PageURL       string   `parquet:"page_url"`
	FeedURL       string   `parquet:"feed_url"`
	EntryTitle    string   `parquet:"entry_title"`
	EntryAuthor   string   `parquet:"entry_author"`
	EntryURL      string   `parquet:"entry_url"`
	EntryImageURL *string  `parquet:"entry_image_url,optional"`
	EntryTags     []string `parquet:"entry_tags,list"`
	EntryUpdated  *string  `parquet:"entry_updated,optional"` // ISO-8601 or null
	BookmarkCount int64    `parquet:"bookmark_count"`
}

// Flatten converts the per-feed result list to row records, carrying each
// parent feed's title and urls onto its entries. Failed feeds contribute
// no rows.
func Flatten(results []domain.FeedResult) []EntryRow {
	var rows []EntryRow
	for _, res := range results {
		for _, entry := range res.Entries {
			row := EntryRow{
				FeedTitle:     res.FeedTitle,
				PageURL:       res.PageURL,
				FeedURL:       res.FeedURL,
				EntryTitle:    entry.Title,
				EntryAuthor:   entry.Author,
				EntryURL:      entry.URL,
				EntryTags:     entry.Tags,
				BookmarkCount: int64(entry.BookmarkCount),
			}
			if entry.ImageURL != "" {
				img := entry.ImageURL
				row.EntryImageURL = &img
			}
			if entry.Updated != nil {
				updated := entry.Updated.Format(time.RFC3339)
				row.EntryUpdated = &updated
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteParquet writes rows to a parquet file at path, atomically: the data
// goes to a temp file in the same directory which replaces the destination
// only after a successful close. Any failure reports the destination path.
func WriteParquet(path string, rows []EntryRow) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".feedlens-*.parquet")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	writer := parquet.NewGenericWriter[EntryRow](tmp, parquet.Compression(&parquet.Snappy))
	if _, err := writer.Write(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write rows to %s: %w", path, err)
	}
	if err := writer.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("finalize parquet file %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
