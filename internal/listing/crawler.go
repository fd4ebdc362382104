// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package listing crawls the date-ranged bankruptcy publication listing of
// the Belgian Official Gazette and aggregates the enterprise numbers found
// on each page.
package listing

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/internal/httputil"
	"github.com/pdiddy/faillink/pkg/types"
)

// ListingURL is the registry listing endpoint. Tests point it at httptest.
var ListingURL = "https://www.ejustice.just.fgov.be/cgi_tsv/list.pl"

const (
	// DateLayout is the calendar date format the listing expects.
	DateLayout = "2006-01-02"

	// DefaultUserAgent identifies the crawler to the registry.
	DefaultUserAgent = "BankruptcySpider/4.1 (+https://example.com)"

	// DefaultTimeout bounds each page fetch.
	DefaultTimeout = 15 * time.Second

	defaultLanguage = "fr"
	defaultActType  = "c02"

	// nextSelector is the pagination affordance on listing pages.
	nextSelector = "a.pagination-next"
)

// Crawler fetches single listing pages. It holds no per-crawl state and is
// safe for concurrent use.
type Crawler struct {
	client *http.Client
	cfg    types.ListingConfig
}

// NewCrawler returns a Crawler. Zero-valued config fields take defaults.
// When client is nil a client with cfg.Timeout (default 15s) is created.
func NewCrawler(client *http.Client, cfg types.ListingConfig) *Crawler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.ActType == "" {
		cfg.ActType = defaultActType
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Crawler{client: client, cfg: cfg}
}

// PageURL builds the listing URL for a range and 1-based page.
func (c *Crawler) PageURL(from, to time.Time, page int) string {
	base := c.cfg.BaseURL
	if base == "" {
		base = ListingURL
	}
	q := url.Values{}
	q.Set("language", c.cfg.Language)
	q.Set("akte", c.cfg.ActType)
	q.Set("pdd", from.Format(DateLayout))
	q.Set("pdf", to.Format(DateLayout))
	q.Set("page", strconv.Itoa(page))
	return base + "?" + q.Encode()
}

// FetchPage issues one request for the given range and page, collects the
// dotted enterprise numbers in the body, and reports whether the page links
// to a next page. The caller validates that from is not after to.
//
// Transport failures and non-2xx responses are returned as
// *httputil.TransportError; the crawler never retries on its own beyond the
// configured 429 backoff.
func (c *Crawler) FetchPage(ctx context.Context, from, to time.Time, page int) (types.ListingPage, error) {
	if page < 1 {
		return types.ListingPage{}, fmt.Errorf("page must be >= 1, got %d", page)
	}

	target := c.PageURL(from, to, page)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return types.ListingPage{}, fmt.Errorf("building listing request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.cfg.RateLimitRetries)
	if err != nil {
		return types.ListingPage{}, err
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return types.ListingPage{}, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return types.ListingPage{}, &httputil.TransportError{Method: http.MethodGet, URL: target, StatusCode: resp.StatusCode, Err: err}
	}

	hasNext, err := hasNextPage(body)
	if err != nil {
		return types.ListingPage{}, fmt.Errorf("parsing listing page %d: %w", page, err)
	}

	return types.ListingPage{
		PageNumber: page,
		RawMatches: cbe.Find(string(body)),
		HasNext:    hasNext,
	}, nil
}

// readBody decodes the response to UTF-8 using the declared or sniffed
// charset. The registry historically serves ISO-8859-1.
func readBody(resp *http.Response) ([]byte, error) {
	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("detecting charset: %w", err)
	}
	return io.ReadAll(r)
}

func hasNextPage(body []byte) (bool, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	doc := goquery.NewDocumentFromNode(root)
	return doc.Find(nextSelector).Length() > 0, nil
}
