// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cbso talks to the National Bank of Belgium Central Balance Sheet
// Office authentic-source API: filing references per enterprise, the rendered
// filing (PDF), and the structured JSON-XBRL payload.
package cbso

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/faillink/internal/httputil"
	"github.com/pdiddy/faillink/pkg/types"
)

// BaseURL is the API root. Tests point it at httptest.
var BaseURL = "https://ws.cbso.nbb.be/authentic"

// DefaultTimeout bounds each API call.
const DefaultTimeout = 30 * time.Second

const (
	acceptJSON     = "application/json"
	acceptPDF      = "application/pdf"
	acceptJSONXBRL = "application/x.jsonxbrl"
)

var (
	// ErrStructuredUnavailable means the filing has no structured payload,
	// typically because it predates structured deposits.
	ErrStructuredUnavailable = errors.New("structured accounting data not available")

	// ErrNoReferences means the enterprise has no published accounts.
	ErrNoReferences = errors.New("no published annual accounts")
)

// Client is a CBSO API client.
type Client struct {
	http *http.Client
	cfg  types.CBSOConfig
}

// NewClient returns a Client. When client is nil one is created with
// cfg.Timeout (default 30s).
func NewClient(client *http.Client, cfg types.CBSOConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{http: client, cfg: cfg}
}

func (c *Client) base() string {
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return strings.TrimRight(BaseURL, "/")
}

// referenceWire is the API representation of a filing reference.
type referenceWire struct {
	ReferenceNumber flexString `json:"ReferenceNumber"`
	DepositDate     flexString `json:"DepositDate"`
	ExerciseDates   struct {
		StartDate flexString `json:"StartDate"`
		EndDate   flexString `json:"EndDate"`
	} `json:"ExerciseDates"`
	ModelType   flexString `json:"ModelType"`
	Language    flexString `json:"Language"`
	Currency    flexString `json:"Currency"`
	DataVersion flexString `json:"DataVersion"`
}

// flexString accepts a JSON string, number, or null.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// References lists the filing references of an enterprise in API order.
func (c *Client) References(ctx context.Context, cbe string) ([]types.FilingReference, error) {
	u := c.base() + "/legalEntity/" + url.PathEscape(cbe) + "/references"
	resp, err := c.get(ctx, u, acceptJSON)
	if err != nil {
		return nil, err
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var wire []referenceWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decoding references for %s: %w", cbe, err)
	}

	refs := make([]types.FilingReference, len(wire))
	for i, w := range wire {
		refs[i] = types.FilingReference{
			ReferenceID:   string(w.ReferenceNumber),
			DepositDate:   string(w.DepositDate),
			ExerciseStart: string(w.ExerciseDates.StartDate),
			ExerciseEnd:   string(w.ExerciseDates.EndDate),
			ModelType:     string(w.ModelType),
			Language:      string(w.Language),
			Currency:      string(w.Currency),
			DataVersion:   string(w.DataVersion),
		}
	}
	return refs, nil
}

// Latest resolves the most recent filing reference of an enterprise.
func (c *Client) Latest(ctx context.Context, cbe string) (*types.FilingReference, error) {
	refs, err := c.References(ctx, cbe)
	if err != nil {
		return nil, err
	}
	latest := PickLatest(refs)
	if latest == nil {
		return nil, fmt.Errorf("%s: %w", cbe, ErrNoReferences)
	}
	return latest, nil
}

// Document downloads the rendered filing.
func (c *Client) Document(ctx context.Context, ref string) (*types.Document, error) {
	resp, err := c.get(ctx, c.accountingDataURL(ref), acceptPDF)
	if err != nil {
		return nil, err
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.TransportError{Method: http.MethodGet, URL: resp.Request.URL.String(), StatusCode: resp.StatusCode, Err: err}
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = acceptPDF
	}
	return &types.Document{Bytes: data, ContentType: ct, ContentLength: int64(len(data))}, nil
}

// Structured downloads the JSON-XBRL payload of a filing. It returns
// ErrStructuredUnavailable on 404, 406, or a non-JSON response.
func (c *Client) Structured(ctx context.Context, ref string) ([]byte, error) {
	resp, err := c.get(ctx, c.accountingDataURL(ref), acceptJSONXBRL)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNotAcceptable {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s: HTTP %d: %w", ref, resp.StatusCode, ErrStructuredUnavailable)
	}
	if err := httputil.CheckStatus(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isJSON(resp.Header.Get("Content-Type")) {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%s: content type %q: %w", ref, resp.Header.Get("Content-Type"), ErrStructuredUnavailable)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.TransportError{Method: http.MethodGet, URL: resp.Request.URL.String(), StatusCode: resp.StatusCode, Err: err}
	}
	return data, nil
}

func (c *Client) accountingDataURL(ref string) string {
	return c.base() + "/deposit/" + url.PathEscape(ref) + "/accountingData"
}

func (c *Client) get(ctx context.Context, u, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.cfg.SubscriptionKey != "" {
		req.Header.Set("NBB-CBSO-Subscription-Key", c.cfg.SubscriptionKey)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	return httputil.DoWithRetry(ctx, c.http, req, c.cfg.RateLimitRetries)
}

// isJSON accepts application/json and any +json or x.json* media type.
func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.Contains(mt, "json")
}
