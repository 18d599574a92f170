package feed

import (
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/net/html"

	"github.com/umputun/feedlens/pkg/domain"
)

// Normalizer converts raw feed items to normalized entries and applies
// the recency and interest-tag filters. It never mutates parsed input.
type Normalizer struct {
	maxEntries int           // per-feed cap on items considered, document order
	expiry     time.Duration // age window for the recency filter
	now        func() time.Time
}

// NewNormalizer creates a normalizer keeping at most maxEntries items per feed
// and dropping entries older than expiry.
func NewNormalizer(maxEntries int, expiry time.Duration) *Normalizer {
	return &Normalizer{maxEntries: maxEntries, expiry: expiry, now: time.Now}
}

// Normalize processes every item of a parsed feed against the source's
// interest tags and returns the surviving entries. Items without a usable
// link are dropped, canonical URLs are deduplicated keeping the first
// occurrence, and timestamps missing on an item fall back to the feed's
// modification time.
func (n *Normalizer) Normalize(parsed *domain.ParsedFeed, src domain.Source) []domain.Entry {
	interest := domain.FoldTags(src.Tags)

	items := parsed.Items
	if n.maxEntries > 0 && len(items) > n.maxEntries {
		items = items[:n.maxEntries]
	}

	entries := make([]domain.Entry, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for i := range items {
		item := &items[i]

		entry, ok := n.normalizeItem(item, parsed.Modified)
		if !ok {
			continue
		}
		if _, dup := seen[entry.URL]; dup {
			lgr.Printf("[DEBUG] duplicate entry %s in feed %s", entry.URL, src.URL)
			continue
		}
		if !matchesInterest(entry.Tags, interest) {
			continue
		}
		seen[entry.URL] = struct{}{}
		entries = append(entries, entry)
	}

	return entries
}

// normalizeItem builds one Entry from a raw item, reporting ok=false when the
// item has no usable URL or fails the age window
func (n *Normalizer) normalizeItem(item *domain.ParsedItem, feedModified *time.Time) (domain.Entry, bool) {
	canonical, err := domain.CanonicalURL(item.Link)
	if err != nil {
		return domain.Entry{}, false // no dedup key, no enrichment, drop
	}

	updated := resolveTimestamp(item, feedModified)
	if !n.withinWindow(updated) {
		return domain.Entry{}, false
	}

	return domain.Entry{
		Title:    item.Title,
		Author:   item.Author,
		URL:      canonical,
		ImageURL: resolveImage(item),
		Tags:     domain.FoldTags(item.Tags),
		Updated:  updated,
	}, true
}

// withinWindow checks the resolved timestamp against [now-expiry, now].
// A nil timestamp never passes; neither does one in the future.
func (n *Normalizer) withinWindow(ts *time.Time) bool {
	if ts == nil {
		return false
	}
	now := n.now()
	return !ts.Before(now.Add(-n.expiry)) && !ts.After(now)
}

// resolveTimestamp prefers updated, falls back to published,
// then the feed-level modification time
func resolveTimestamp(item *domain.ParsedItem, feedModified *time.Time) *time.Time {
	if item.Updated != nil {
		return item.Updated
	}
	if item.Published != nil {
		return item.Published
	}
	return feedModified
}

// matchesInterest applies the tag filter: no declared interest passes
// everything, untagged entries are assumed relevant, otherwise the sets
// must intersect. Both sets are expected folded.
func matchesInterest(entryTags, interest []string) bool {
	if len(interest) == 0 || len(entryTags) == 0 {
		return true
	}
	for _, t := range entryTags {
		for _, want := range interest {
			if t == want {
				return true
			}
		}
	}
	return false
}

// resolveImage picks the entry's representative image, first match wins:
// media:content, media:thumbnail, image enclosure, <img> in content,
// <img> in description
func resolveImage(item *domain.ParsedItem) string {
	if item.MediaURL != "" {
		return item.MediaURL
	}
	if item.ThumbnailURL != "" {
		return item.ThumbnailURL
	}
	for _, enc := range item.Enclosures {
		if enc.URL != "" && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	if src := firstImgSrc(item.Content); src != "" {
		return src
	}
	return firstImgSrc(item.Description)
}

// firstImgSrc scans an HTML fragment for the first <img> with a src attribute.
// Tokenizer-based, tolerates broken markup.
func firstImgSrc(fragment string) string {
	if fragment == "" || !strings.Contains(fragment, "<") {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "img" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "src" && len(val) > 0 {
					return string(val)
				}
				if !more {
					break
				}
			}
		}
	}
}
