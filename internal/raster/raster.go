// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package raster renders a paginated document into one PNG per page.
//
// Rendering shells out to pdftoppm (poppler-utils). Each call owns a scratch
// directory that exists only for the duration of the call.
package raster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pdiddy/faillink/internal/container"
	"github.com/pdiddy/faillink/pkg/types"
)

const (
	// DefaultScale renders at twice the PDF user-space resolution.
	DefaultScale = 2.0

	// pointsPerInch is the PDF user-space resolution.
	pointsPerInch = 72

	inputName  = "file.pdf"
	pagePrefix = "page"
)

// ErrNoPages means the document produced no page images, either because it
// is empty or because it could not be parsed. The document cannot be
// processed further.
var ErrNoPages = errors.New("no pages produced from document")

// Rasterizer renders documents with pdftoppm.
type Rasterizer struct {
	cfg    types.RasterConfig
	runner container.Runner
	logger *slog.Logger
}

// New returns a Rasterizer that runs pdftoppm through container.ExecRunner.
// Zero-valued config fields take defaults.
func New(cfg types.RasterConfig, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	return NewWithRunner(cfg, container.ExecRunner{Logger: logger}, logger)
}

// NewWithRunner returns a Rasterizer that executes commands through runner.
func NewWithRunner(cfg types.RasterConfig, runner container.Runner, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}
	return &Rasterizer{cfg: cfg, runner: runner, logger: logger}
}

// DPI is the render resolution in effect.
func (r *Rasterizer) DPI() int {
	if r.cfg.DPI > 0 {
		return r.cfg.DPI
	}
	return int(r.cfg.Scale*pointsPerInch + 0.5)
}

// Rasterize renders every page of doc and returns them in physical page
// order, indexed from 1. An empty or unreadable document yields an error
// wrapping ErrNoPages. The scratch directory is removed before returning on
// every path.
func (r *Rasterizer) Rasterize(ctx context.Context, doc []byte) ([]types.RasterPage, error) {
	if len(doc) == 0 {
		return nil, fmt.Errorf("empty document: %w", ErrNoPages)
	}

	dir, err := os.MkdirTemp(r.cfg.ScratchDir, "faillink-raster-*")
	if err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			r.logger.Warn("raster.cleanup.failed", "dir", dir, "error", rmErr)
		}
	}()

	input := filepath.Join(dir, inputName)
	if err := os.WriteFile(input, doc, 0o600); err != nil {
		return nil, fmt.Errorf("writing document: %w", err)
	}

	prefix := filepath.Join(dir, pagePrefix)
	// pdftoppm -r <dpi> -png <in.pdf> <dir/page>
	_, stderr, err := r.runner.Run(ctx, r.cfg.Pdftoppm, "-r", strconv.Itoa(r.DPI()), "-png", input, prefix)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		msg := container.Truncate(strings.TrimSpace(string(stderr)), 512)
		if documentFault(err, msg) {
			return nil, fmt.Errorf("pdftoppm: %s: %w", msg, ErrNoPages)
		}
		return nil, fmt.Errorf("running %s: %w: %s", r.cfg.Pdftoppm, err, msg)
	}

	files, err := pageFiles(prefix)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images: %w", ErrNoPages)
	}

	pages := make([]types.RasterPage, 0, len(files))
	for i, f := range files {
		img, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i+1, err)
		}
		pages = append(pages, types.RasterPage{Index: i + 1, Image: img})
	}

	r.logger.Debug("raster.done", "pages", len(pages), "dpi", r.DPI())
	return pages, nil
}

// documentFault reports whether a pdftoppm failure was caused by the input
// document. Poppler exits 1 when the PDF cannot be opened and 3 on PDF
// permission errors; 2 (output file) and 99 (other) are environment faults
// unless stderr shows the parser rejected the file.
func documentFault(err error, stderr string) bool {
	var exitErr interface{ ExitCode() int }
	if !errors.As(err, &exitErr) {
		return false
	}
	switch exitErr.ExitCode() {
	case 1, 3:
		return true
	}
	for _, marker := range parseErrorMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

var parseErrorMarkers = []string{"Syntax Error", "May not be a PDF file", "Couldn't find trailer", "Couldn't read xref"}

// pageFiles lists prefix-N.png files sorted by N. pdftoppm zero-pads N to
// the width of the page count, so a lexical sort is not enough on its own.
func pageFiles(prefix string) ([]string, error) {
	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}

	type numbered struct {
		n    int
		path string
	}
	var pages []numbered
	for _, m := range matches {
		n, ok := pageNumber(prefix, m)
		if !ok {
			continue
		}
		pages = append(pages, numbered{n: n, path: m})
	}
	slices.SortFunc(pages, func(a, b numbered) int { return a.n - b.n })

	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.path
	}
	return out, nil
}

func pageNumber(prefix, path string) (int, bool) {
	s := strings.TrimSuffix(strings.TrimPrefix(path, prefix+"-"), ".png")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
