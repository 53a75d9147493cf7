package pagination

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PageFetcher is the interface the API client implements for
// single-page fetching.
type PageFetcher interface {
	// FetchPage fetches a single page and returns its payload plus the
	// collection's total page count.
	FetchPage(ctx context.Context, resource string, page int) (data []byte, totalPages int, err error)
}

// PageFailure records one page that could not be fetched.
type PageFailure struct {
	Page int
	Err  error
}

// CollectError reports every page that failed during a collection.
type CollectError struct {
	Resource   string
	TotalPages int
	Failures   []PageFailure
}

// Error implements the error interface.
func (e *CollectError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "collect %s: %d of %d pages failed:", e.Resource, len(e.Failures), e.TotalPages)
	for _, f := range e.Failures {
		fmt.Fprintf(&b, " page %d: %v;", f.Page, f.Err)
	}
	return strings.TrimSuffix(b.String(), ";")
}

// Unwrap exposes the per-page errors for errors.Is/As.
func (e *CollectError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Collector drives concurrent collection of all pages of a resource.
type Collector struct {
	fetcher PageFetcher
	logger  zerolog.Logger
}

// NewCollector creates a collector on top of a page fetcher.
func NewCollector(fetcher PageFetcher) *Collector {
	return &Collector{
		fetcher: fetcher,
		logger:  log.With().Str("component", "collector").Logger(),
	}
}

// Collect fetches every page of a resource and returns the payloads
// ordered by page number, exactly one per page.
//
// Page 1 is fetched first as the probe that reveals the page count;
// pages 2..N are then fetched concurrently, one task per page, all
// sharing the client's rate gate. Any page failure fails the whole
// collection with a CollectError naming the failed pages. In-flight
// siblings are not cancelled on failure; their results are discarded.
func (c *Collector) Collect(ctx context.Context, resource string) ([][]byte, error) {
	start := time.Now()

	firstPage, total, err := c.fetcher.FetchPage(ctx, resource, 1)
	if err != nil {
		return nil, &CollectError{
			Resource:   resource,
			TotalPages: total,
			Failures:   []PageFailure{{Page: 1, Err: err}},
		}
	}

	c.logger.Info().
		Str("resource", resource).
		Int("total_pages", total).
		Msg("Starting concurrent page fetch")

	if total <= 1 {
		c.logger.Info().
			Str("resource", resource).
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Collection complete (single page)")
		return [][]byte{firstPage}, nil
	}

	results := make([][]byte, total)
	results[0] = firstPage

	var (
		mu       sync.Mutex
		failures []PageFailure
		wg       sync.WaitGroup
	)

	for page := 2; page <= total; page++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()

			data, _, err := c.fetcher.FetchPage(ctx, resource, page)
			if err != nil {
				c.logger.Warn().
					Err(err).
					Int("page", page).
					Msg("Page fetch failed")

				mu.Lock()
				failures = append(failures, PageFailure{Page: page, Err: err})
				mu.Unlock()
				return
			}

			// Each task owns its own page slot, so no lock is needed.
			results[page-1] = data
		}(page)
	}
	wg.Wait()

	if len(failures) > 0 {
		sort.Slice(failures, func(i, j int) bool { return failures[i].Page < failures[j].Page })
		return nil, &CollectError{
			Resource:   resource,
			TotalPages: total,
			Failures:   failures,
		}
	}

	c.logger.Info().
		Str("resource", resource).
		Int("pages", total).
		Dur("duration", time.Since(start)).
		Msg("Collection complete")

	return results, nil
}
