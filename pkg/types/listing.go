// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ListingPage is the outcome of fetching one page of the registry listing.
// It is not retained beyond aggregation.
type ListingPage struct {
	// PageNumber is the 1-based page requested.
	PageNumber int `json:"page_number" yaml:"page_number"`

	// RawMatches holds identifier-shaped substrings in body order, unnormalized
	// (e.g. "0123.456.789" or "123.456.789").
	RawMatches []string `json:"raw_matches" yaml:"raw_matches"`

	// HasNext reports whether the page offered a "next page" link.
	HasNext bool `json:"has_next" yaml:"has_next"`
}

// PageRecord is the per-page summary kept in a CrawlResult.
type PageRecord struct {
	// Page is the 1-based page number.
	Page int `json:"page" yaml:"page"`

	// Count is the number of raw matches on the page, duplicates included.
	Count int `json:"count" yaml:"count"`

	// List holds the normalized identifiers in page order.
	List []string `json:"list" yaml:"list"`
}

// CrawlResult aggregates all pages of a date-ranged crawl.
type CrawlResult struct {
	// From and To are the inclusive range crawled, formatted YYYY-MM-DD.
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`

	// Pages are recorded in fetch order 1..N.
	Pages []PageRecord `json:"pages" yaml:"pages"`

	// CountDistinct is the size of the union of all page lists.
	CountDistinct int `json:"count_distinct" yaml:"count_distinct"`

	// CountRaw is the sum of per-page counts. It may exceed CountDistinct.
	CountRaw int `json:"count_raw" yaml:"count_raw"`

	// GrabbedAt is when the crawl finished.
	GrabbedAt time.Time `json:"grabbed_at" yaml:"grabbed_at"`
}

// Identifiers returns the distinct identifiers in first-seen order.
func (r CrawlResult) Identifiers() []string {
	seen := make(map[string]bool, r.CountDistinct)
	out := make([]string, 0, r.CountDistinct)
	for _, p := range r.Pages {
		for _, id := range p.List {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// BatchSource records what triggered a persisted crawl.
type BatchSource string

const SourceCLI BatchSource = "cli"

// Batch is a persisted crawl result.
type Batch struct {
	ID     int64       `json:"id" yaml:"id"`
	Source BatchSource `json:"source" yaml:"source"`
	CrawlResult `yaml:",inline"`
}
