// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the upstream clients.
package httputil

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

var (
	// RetryBaseDelay is the first backoff after a 429 when the server sends
	// no usable Retry-After. Tests shrink it.
	RetryBaseDelay = 10 * time.Second

	// MaxRetryDelay caps any single wait, including one asked for by
	// Retry-After.
	MaxRetryDelay = 2 * time.Minute
)

// DoWithRetry sends req once and, only while maxRetries allows, sends it
// again after each HTTP 429. Zero or negative maxRetries means a single
// attempt.
//
// The wait honours a Retry-After header given in seconds and otherwise
// doubles from RetryBaseDelay. Request bodies are replayed through GetBody.
// A failure to reach the server is a *TransportError; a cancelled wait
// returns ctx.Err(). When retries run out the last 429 is returned
// unread so the caller decides what it means.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		r, err := attemptRequest(ctx, req, attempt)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(r)
		if err != nil {
			return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryDelay(resp.Header.Get("Retry-After"), attempt)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		slog.Debug("http.rate_limited", "url", req.URL.String(), "wait", wait, "retry", attempt+1, "of", maxRetries)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// attemptRequest clones req for ctx, rewinding its body for every attempt
// after the first.
func attemptRequest(ctx context.Context, req *http.Request, attempt int) (*http.Request, error) {
	r := req.Clone(ctx)
	if attempt == 0 || req.GetBody == nil {
		return r, nil
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL.String(), Err: err}
	}
	r.Body = body
	return r, nil
}

func retryDelay(retryAfter string, attempt int) time.Duration {
	wait := RetryBaseDelay << attempt
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		wait = time.Duration(secs) * time.Second
	}
	if wait > MaxRetryDelay || wait < 0 {
		wait = MaxRetryDelay
	}
	return wait
}
