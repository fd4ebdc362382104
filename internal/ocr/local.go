// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pdiddy/faillink/internal/container"
	"github.com/pdiddy/faillink/pkg/types"
)

// localBackend runs the tesseract binary on the host. Page images are
// staged in a work directory owned by the backend.
type localBackend struct {
	cfg     types.OCRConfig
	runner  container.Runner
	workDir string
}

// NewLocalEngine returns an Engine running tesseract on the host.
// When runner is nil container.ExecRunner is used.
func NewLocalEngine(cfg types.OCRConfig, runner container.Runner, logger *slog.Logger) *Engine {
	if cfg.Tesseract == "" {
		cfg.Tesseract = defaultTesseract
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if runner == nil {
		runner = container.ExecRunner{Logger: logger}
	}
	return newEngine(&localBackend{cfg: cfg, runner: runner}, logger)
}

func (b *localBackend) name() string { return b.cfg.Tesseract }

func (b *localBackend) start(ctx context.Context) error {
	if _, stderr, err := b.runner.Run(ctx, b.cfg.Tesseract, "--version"); err != nil {
		return fmt.Errorf("%s unavailable: %w (%s)", b.cfg.Tesseract, err, strings.TrimSpace(string(stderr)))
	}
	dir, err := os.MkdirTemp("", "faillink-ocr-*")
	if err != nil {
		return fmt.Errorf("creating work directory: %w", err)
	}
	b.workDir = dir
	return nil
}

func (b *localBackend) recognize(ctx context.Context, page types.RasterPage) (string, error) {
	f, err := os.CreateTemp(b.workDir, fmt.Sprintf("page-%d-*.png", page.Index))
	if err != nil {
		return "", fmt.Errorf("staging image: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.Write(page.Image); err != nil {
		f.Close()
		return "", fmt.Errorf("staging image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("staging image: %w", err)
	}

	// tesseract <file> stdout -l <lang>
	out, stderr, err := b.runner.Run(ctx, b.cfg.Tesseract, path, "stdout", "-l", b.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, container.Truncate(strings.TrimSpace(string(stderr)), 512))
	}
	return string(out), nil
}

func (b *localBackend) stop() error {
	if b.workDir == "" {
		return nil
	}
	return os.RemoveAll(b.workDir)
}
