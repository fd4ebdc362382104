// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package listing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/pkg/types"
)

// DefaultMaxPages is the pagination ceiling for one range crawl.
const DefaultMaxPages = 500

// ErrPaginationLimit is returned when the listing still reports a next page
// after the ceiling was reached.
var ErrPaginationLimit = errors.New("pagination limit exceeded")

// PageFetcher fetches one listing page. *Crawler implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, from, to time.Time, page int) (types.ListingPage, error)
}

// CrawlRange walks the listing from page 1 until a page reports no next
// page, folding each page's identifiers into a distinct set. Pages are
// fetched strictly one after another.
//
// When maxPages is 0 DefaultMaxPages applies. If the ceiling is reached while
// the listing still reports a next page, the pages collected so far are
// returned together with an error wrapping ErrPaginationLimit. Fetch errors
// are returned unmodified alongside the partial result. Progress lines are
// written to w.
func CrawlRange(ctx context.Context, f PageFetcher, from, to time.Time, maxPages int, w io.Writer) (types.CrawlResult, error) {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	result := types.CrawlResult{
		From:  from.Format(DateLayout),
		To:    to.Format(DateLayout),
		Pages: []types.PageRecord{},
	}
	seen := make(map[string]struct{})

	for page := 1; ; page++ {
		lp, err := f.FetchPage(ctx, from, to, page)
		if err != nil {
			return finish(result, seen), err
		}

		list := make([]string, len(lp.RawMatches))
		for i, raw := range lp.RawMatches {
			list[i] = cbe.Normalize(raw)
			seen[list[i]] = struct{}{}
		}
		result.Pages = append(result.Pages, types.PageRecord{Page: page, Count: len(list), List: list})
		result.CountRaw += len(list)
		fmt.Fprintf(w, "page %d: %d raw, hasNext=%t\n", page, len(list), lp.HasNext)

		if !lp.HasNext {
			return finish(result, seen), nil
		}
		if page >= maxPages {
			return finish(result, seen), fmt.Errorf("%s to %s: stopped after %d pages: %w",
				result.From, result.To, maxPages, ErrPaginationLimit)
		}
	}
}

func finish(r types.CrawlResult, seen map[string]struct{}) types.CrawlResult {
	r.CountDistinct = len(seen)
	r.GrabbedAt = time.Now().UTC()
	return r
}
