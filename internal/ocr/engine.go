// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr recognizes text on rendered pages with tesseract and fans the
// work out over a bounded number of concurrent workers.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pdiddy/faillink/pkg/types"
)

const (
	defaultTesseract = "tesseract"
	defaultLanguage  = "fra"
)

var (
	// ErrClosed is returned by Recognize after Close.
	ErrClosed = errors.New("recognition engine closed")

	// ErrEngineUnavailable wraps a backend start failure. It concerns the
	// engine, not the page being recognized.
	ErrEngineUnavailable = errors.New("recognition engine unavailable")
)

// Recognizer turns one page image into text.
type Recognizer interface {
	Recognize(ctx context.Context, page types.RasterPage) (string, error)
}

// backend does the actual work behind an Engine.
type backend interface {
	name() string
	start(ctx context.Context) error
	recognize(ctx context.Context, page types.RasterPage) (string, error)
	stop() error
}

// Engine owns a recognition backend. The backend is started on the first
// Recognize call and released by Close. A start failure is kept and
// returned to later callers, unless it came from the caller's context
// ending, in which case the next call starts again. Engine is safe for
// concurrent use; Close waits for in-flight recognitions to finish.
type Engine struct {
	b      backend
	logger *slog.Logger

	startMu  sync.Mutex
	startErr error
	started  bool

	mu     sync.RWMutex
	closed bool
}

func newEngine(b backend, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{b: b, logger: logger}
}

// Recognize returns the text of one page.
func (e *Engine) Recognize(ctx context.Context, page types.RasterPage) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return "", ErrClosed
	}

	if err := e.ensureStarted(ctx); err != nil {
		return "", err
	}

	text, err := e.b.recognize(ctx, page)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", page.Index, err)
	}
	return cleanText(text), nil
}

func (e *Engine) ensureStarted(ctx context.Context) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()
	if e.started {
		return nil
	}
	if e.startErr != nil {
		return e.startErr
	}

	err := e.b.start(ctx)
	if err == nil {
		e.started = true
		e.logger.Debug("ocr.start.ok", "backend", e.b.name())
		return nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		e.logger.Debug("ocr.start.interrupted", "backend", e.b.name(), "error", err)
		return fmt.Errorf("starting %s: %w", e.b.name(), err)
	}
	e.logger.Error("ocr.start.failed", "backend", e.b.name(), "error", err)
	e.startErr = fmt.Errorf("starting %s: %w: %w", e.b.name(), ErrEngineUnavailable, err)
	return e.startErr
}

// Close releases the backend. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if !e.started {
		return nil
	}
	return e.b.stop()
}

// cleanText normalizes line endings and drops trailing blank lines and the
// form feed tesseract appends after each page.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimRight(s, " \t\n\f")
	return s
}
