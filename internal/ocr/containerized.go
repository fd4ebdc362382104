// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/pdiddy/faillink/internal/container"
	"github.com/pdiddy/faillink/pkg/types"
)

// DefaultImage is a tesseract image whose entrypoint is the tesseract binary.
const DefaultImage = "docker.io/jitesoft/tesseract-ocr:latest"

// containerBackend streams each page into a one-shot tesseract container.
type containerBackend struct {
	cfg types.OCRConfig
	rt  container.Runtime
}

// NewContainerEngine returns an Engine that runs tesseract in containers
// started by rt.
func NewContainerEngine(cfg types.OCRConfig, rt container.Runtime, logger *slog.Logger) *Engine {
	if cfg.Image == "" {
		cfg.Image = DefaultImage
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	return newEngine(&containerBackend{cfg: cfg, rt: rt}, logger)
}

func (b *containerBackend) name() string { return b.rt.Name() + ":" + b.cfg.Image }

func (b *containerBackend) start(ctx context.Context) error {
	return b.rt.EnsureImage(ctx, b.cfg.Image)
}

func (b *containerBackend) recognize(ctx context.Context, page types.RasterPage) (string, error) {
	var out bytes.Buffer
	args := []string{"stdin", "stdout", "-l", b.cfg.Language}
	if err := b.rt.Run(ctx, b.cfg.Image, args, bytes.NewReader(page.Image), &out); err != nil {
		return "", err
	}
	return out.String(), nil
}

func (b *containerBackend) stop() error { return nil }
