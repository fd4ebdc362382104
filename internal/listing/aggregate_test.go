// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package listing

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/faillink/pkg/types"
)

// fakeFetcher serves scripted pages and records the order of requests.
type fakeFetcher struct {
	pages     map[int]types.ListingPage
	errAt     int
	err       error
	requested []int
	always    bool // report hasNext on every page
}

func (f *fakeFetcher) FetchPage(_ context.Context, _, _ time.Time, page int) (types.ListingPage, error) {
	f.requested = append(f.requested, page)
	if f.errAt == page {
		return types.ListingPage{}, f.err
	}
	if f.always {
		return types.ListingPage{PageNumber: page, RawMatches: []string{"0123.456.789"}, HasNext: true}, nil
	}
	p := f.pages[page]
	p.PageNumber = page
	return p, nil
}

func TestCrawlRange_ThreePages(t *testing.T) {
	f := &fakeFetcher{pages: map[int]types.ListingPage{
		1: {RawMatches: []string{"0100.000.001", "100.000.002", "0100.000.003", "0100.000.004", "0100.000.005"}, HasNext: true},
		2: {RawMatches: []string{"0100.000.004", "100.000.005", "0100.000.006", "0100.000.007", "0100.000.008"}, HasNext: true},
		3: {RawMatches: nil, HasNext: false},
	}}

	var out bytes.Buffer
	from, to := date(t, "2025-02-01"), date(t, "2025-02-28")
	res, err := CrawlRange(context.Background(), f, from, to, 0, &out)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, f.requested)
	require.Len(t, res.Pages, 3)
	assert.Equal(t, 10, res.CountRaw)
	assert.Equal(t, 8, res.CountDistinct)
	assert.Equal(t, "2025-02-01", res.From)
	assert.Equal(t, "2025-02-28", res.To)

	for i, p := range res.Pages {
		assert.Equal(t, i+1, p.Page)
	}
	assert.Equal(t, []string{"0100000004", "0100000005", "0100000006", "0100000007", "0100000008"}, res.Pages[1].List)
	assert.Equal(t, 0, res.Pages[2].Count)
	assert.NotNil(t, res.Pages[2].List)
	assert.Len(t, res.Identifiers(), 8)
	assert.Contains(t, out.String(), "page 3: 0 raw, hasNext=false")
}

func TestCrawlRange_DistinctNeverExceedsRaw(t *testing.T) {
	tests := []struct {
		name  string
		pages map[int]types.ListingPage
	}{
		{"empty listing", map[int]types.ListingPage{1: {}}},
		{"duplicates within a page", map[int]types.ListingPage{
			1: {RawMatches: []string{"0123.456.789", "123.456.789", "0123.456.789"}},
		}},
		{"all pages identical", map[int]types.ListingPage{
			1: {RawMatches: []string{"0111.111.111"}, HasNext: true},
			2: {RawMatches: []string{"0111.111.111"}, HasNext: true},
			3: {RawMatches: []string{"0111.111.111"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := CrawlRange(context.Background(), &fakeFetcher{pages: tt.pages}, time.Now(), time.Now(), 0, &bytes.Buffer{})
			require.NoError(t, err)
			assert.LessOrEqual(t, res.CountDistinct, res.CountRaw)
			assert.Equal(t, len(res.Identifiers()), res.CountDistinct)
		})
	}
}

func TestCrawlRange_PaginationLimit(t *testing.T) {
	f := &fakeFetcher{always: true}
	res, err := CrawlRange(context.Background(), f, time.Now(), time.Now(), 4, &bytes.Buffer{})

	require.ErrorIs(t, err, ErrPaginationLimit)
	assert.Len(t, res.Pages, 4)
	assert.Equal(t, []int{1, 2, 3, 4}, f.requested)
	assert.Equal(t, 1, res.CountDistinct)
	assert.Equal(t, 4, res.CountRaw)
}

func TestCrawlRange_FetchErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	f := &fakeFetcher{
		pages: map[int]types.ListingPage{1: {RawMatches: []string{"0123.456.789"}, HasNext: true}},
		errAt: 2,
		err:   boom,
	}
	res, err := CrawlRange(context.Background(), f, time.Now(), time.Now(), 0, &bytes.Buffer{})

	assert.ErrorIs(t, err, boom)
	assert.Len(t, res.Pages, 1)
	assert.Equal(t, 1, res.CountDistinct)
}

func TestValidateRange(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		wantErr bool
	}{
		{"single day", "2025-01-10", "2025-01-10", false},
		{"ordered", "2025-01-01", "2025-01-31", false},
		{"reversed", "2025-02-01", "2025-01-01", true},
		{"implausible year", "1899-01-01", "2025-01-01", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange(date(t, tt.from), date(t, tt.to))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := ParseDate("31/12/2025")
	assert.Error(t, err)
}
