// Package pipeline drives the per-feed ingestion flow: fetch, normalize,
// enrich, accumulate. Each source is processed independently and a source's
// failure never affects its siblings or aborts the run.
package pipeline

import (
	"context"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/feedlens/pkg/domain"
)

//go:generate moq -out mocks/fetcher.go -pkg mocks -skip-ensure -fmt goimports . Fetcher
//go:generate moq -out mocks/normalizer.go -pkg mocks -skip-ensure -fmt goimports . Normalizer
//go:generate moq -out mocks/enricher.go -pkg mocks -skip-ensure -fmt goimports . Enricher

// Fetcher retrieves and parses one feed document
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*domain.ParsedFeed, error)
}

// Normalizer filters raw feed items into normalized entries
type Normalizer interface {
	Normalize(parsed *domain.ParsedFeed, src domain.Source) []domain.Entry
}

// Enricher adds bookmark metadata to one entry, never failing the caller
type Enricher interface {
	Enrich(ctx context.Context, entry domain.Entry) domain.Entry
}

// Pipeline orchestrates the run over all configured sources
type Pipeline struct {
	fetcher    Fetcher
	normalizer Normalizer
	enricher   Enricher
	maxWorkers int
}

// New creates a pipeline fanning out over sources with at most maxWorkers
// concurrent feeds. Entries within one feed are enriched sequentially to
// keep request pacing to the bookmark service courteous.
func New(fetcher Fetcher, normalizer Normalizer, enricher Enricher, maxWorkers int) *Pipeline {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pipeline{fetcher: fetcher, normalizer: normalizer, enricher: enricher, maxWorkers: maxWorkers}
}

// Run processes every source and returns one FeedResult per source, in input
// order. A fetch or parse failure yields an empty result for that source and
// the run continues; Run itself never fails.
func (p *Pipeline) Run(ctx context.Context, sources []domain.Source) []domain.FeedResult {
	results := make([]domain.FeedResult, len(sources))

	g := errgroup.Group{}
	g.SetLimit(p.maxWorkers)

	for i, src := range sources {
		g.Go(func() error {
			results[i] = p.processSource(ctx, src)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, failures are settled per source

	return results
}

// processSource runs fetch -> normalize -> enrich for one source. Any failure
// is settled here: the worst outcome is an empty result for this source.
func (p *Pipeline) processSource(ctx context.Context, src domain.Source) domain.FeedResult {
	result := domain.FeedResult{FeedURL: src.URL, Entries: []domain.Entry{}}

	parsed, err := p.fetcher.Fetch(ctx, src.URL)
	if err != nil {
		lgr.Printf("[WARN] feed %s failed, keeping empty result: %v", src.URL, err)
		return result
	}

	result.PageURL = parsed.Link
	result.FeedTitle = parsed.Title
	result.FeedImage = parsed.Image
	result.FeedETag = parsed.ETag
	result.Modified = parsed.Modified

	entries := p.normalizer.Normalize(parsed, src)
	lgr.Printf("[DEBUG] feed %s: %d of %d items survived filtering", src.URL, len(entries), len(parsed.Items))

	for i := range entries {
		entries[i] = p.enricher.Enrich(ctx, entries[i])
	}
	result.Entries = entries

	lgr.Printf("[INFO] feed %s: %d entries", src.URL, len(result.Entries))
	return result
}
