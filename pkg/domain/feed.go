package domain

import "time"

// Source is a single configured feed: where to fetch it from and, optionally,
// which topic tags the operator cares about. An empty tag list means "everything".
type Source struct {
	URL  string   `json:"url"`
	Tags []string `json:"tags,omitempty"`
}

// ParsedFeed is the intermediate form of one fetched feed document,
// before filtering and enrichment.
type ParsedFeed struct {
	Title    string
	Link     string // site home page
	Image    string
	ETag     string
	Modified *time.Time
	Items    []ParsedItem
}

// ParsedItem is one raw feed entry as it came out of the document.
// All fields are optional; the normalizer decides what survives.
type ParsedItem struct {
	Title       string
	Author      string
	Link        string
	Description string
	Content     string
	Published   *time.Time
	Updated     *time.Time
	Tags        []string // raw category terms, document order

	// image candidates, in resolution priority order
	MediaURL     string // media:content url
	ThumbnailURL string // media:thumbnail url
	Enclosures   []Enclosure
}

// Enclosure is a media attachment on a feed entry
type Enclosure struct {
	URL  string
	Type string // MIME type
}

// Entry is a normalized, filter-surviving feed entry. URL is canonical
// (no query string, no fragment) and acts as the entry's dedup and
// enrichment key. BookmarkCount stays 0 until enrichment succeeds.
type Entry struct {
	Title         string     `json:"entry_title"`
	Author        string     `json:"entry_author,omitempty"`
	URL           string     `json:"entry_url"`
	ImageURL      string     `json:"entry_image_url,omitempty"`
	Tags          []string   `json:"entry_tags,omitempty"`
	Updated       *time.Time `json:"entry_updated,omitempty"`
	BookmarkCount int        `json:"bookmark_count"`
}

// FeedResult is the per-source output bundle: feed metadata plus the
// filtered, enriched entries. A failed source yields one with empty Entries.
// Never mutated after the orchestrator assembles it.
type FeedResult struct {
	FeedURL   string     `json:"feed_url"`
	PageURL   string     `json:"page_url,omitempty"`
	FeedTitle string     `json:"feed_title,omitempty"`
	FeedImage string     `json:"feed_image,omitempty"`
	FeedETag  string     `json:"feed_etag,omitempty"`
	Modified  *time.Time `json:"feed_modified,omitempty"`
	Entries   []Entry    `json:"entries"`
}
