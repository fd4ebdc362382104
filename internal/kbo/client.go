// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package kbo reads enterprise details from the Crossroads Bank for
// Enterprises public SOAP service (KBO/BCE).
package kbo

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/internal/httputil"
	"github.com/pdiddy/faillink/pkg/types"
)

// ServiceURL is the SOAP endpoint. Tests point it at httptest.
var ServiceURL = "https://kbopub-acc.economie.fgov.be/kbopubws110000/services/wsKBOPub"

const (
	// DefaultTimeout bounds each call.
	DefaultTimeout = 30 * time.Second

	// DefaultLanguage is the RequestContext language.
	DefaultLanguage = "fr"

	soapAction  = "http://fgov.economie.be/kbopub/ReadEnterprise"
	contentType = "text/xml;charset=UTF-8"
)

var (
	// ErrNotFound means the service answered but returned no enterprise.
	ErrNotFound = errors.New("enterprise not found")

	// ErrCredentials means no username or password was configured.
	ErrCredentials = errors.New("KBO credentials not configured")
)

// FaultError is a SOAP fault returned by the service.
type FaultError struct {
	Code    string
	Message string
}

func (e *FaultError) Error() string {
	if e.Code == "" {
		return "SOAP fault: " + e.Message
	}
	return fmt.Sprintf("SOAP fault %s: %s", e.Code, e.Message)
}

// Client calls ReadEnterprise.
type Client struct {
	http   *http.Client
	cfg    types.KBOConfig
	now    func() time.Time
	random io.Reader
}

// NewClient returns a Client. When client is nil one is created with
// cfg.Timeout (default 30s).
func NewClient(client *http.Client, cfg types.KBOConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{http: client, cfg: cfg, now: time.Now, random: rand.Reader}
}

func (c *Client) serviceURL() string {
	if c.cfg.ServiceURL != "" {
		return c.cfg.ServiceURL
	}
	return ServiceURL
}

// ReadEnterprise fetches the registry details of one enterprise.
func (c *Client) ReadEnterprise(ctx context.Context, number string) (*types.Enterprise, error) {
	n := cbe.Normalize(number)
	if !cbe.Valid(n) {
		return nil, fmt.Errorf("invalid enterprise number %q", number)
	}
	if c.cfg.Username == "" || c.cfg.Password == "" {
		return nil, ErrCredentials
	}

	tok, err := newUsernameToken(c.cfg.Username, c.cfg.Password, c.now(), c.random)
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	env := envelope{Token: tok, RequestID: uuid.NewString(), Language: c.cfg.Language, Number: n}
	if err := env.render(&body); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL(), bytes.NewReader(body.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("SOAPAction", soapAction)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.RateLimitRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes))
	if err != nil {
		return nil, &httputil.TransportError{Method: req.Method, URL: req.URL.String(), StatusCode: resp.StatusCode, Err: err}
	}
	doc := string(data)

	if msg := first(doc, faultString); msg != "" {
		return nil, &FaultError{Code: first(doc, faultCode), Message: msg}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httputil.TransportError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(doc), 2<<10),
		}
	}

	e := ParseEnterprise(doc)
	if e.Number == "" {
		return nil, fmt.Errorf("%s: %w", n, ErrNotFound)
	}
	e.Number = cbe.Normalize(e.Number)
	return &e, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
