// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filing analyses the latest annual accounts of an enterprise:
// it resolves the latest deposit, extracts figures from the structured
// payload when one exists, optionally recognizes the rendered document,
// and records the outcome.
package filing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/internal/cbso"
	"github.com/pdiddy/faillink/internal/extract"
	"github.com/pdiddy/faillink/internal/ocr"
	"github.com/pdiddy/faillink/pkg/types"
)

// Source serves filing references and deposits. *cbso.Client implements it.
type Source interface {
	Latest(ctx context.Context, cbe string) (*types.FilingReference, error)
	Structured(ctx context.Context, ref string) ([]byte, error)
	Document(ctx context.Context, ref string) (*types.Document, error)
}

// Rasterizer renders a document into pages. *raster.Rasterizer implements it.
type Rasterizer interface {
	Rasterize(ctx context.Context, doc []byte) ([]types.RasterPage, error)
}

// Recorder persists an analysis. *store.Store implements it.
type Recorder interface {
	UpsertFiling(ctx context.Context, a types.FilingAnalysis) error
}

// Options controls a single analysis.
type Options struct {
	// OCR downloads and recognizes the rendered filing.
	OCR bool

	// Concurrency bounds in-flight page recognitions (default 4).
	Concurrency int
}

// Analyzer wires the collaborators of an analysis. Source is required;
// Rasterizer and Recognizer are required only when Options.OCR is set.
type Analyzer struct {
	Source     Source
	Extractor  *extract.Extractor // nil uses the default rules
	Rasterizer Rasterizer
	Recognizer ocr.Recognizer
	Recorder   Recorder  // optional
	Out        io.Writer // progress; nil discards

	now func() time.Time
}

// Analyze runs the analysis for one enterprise number. A filing without a
// structured payload yields Structured=false and nil Figures. Pages whose
// recognition failed are listed in RecognitionFailures; the analysis is
// still returned and recorded.
func (a *Analyzer) Analyze(ctx context.Context, number string, opts Options) (*types.FilingAnalysis, error) {
	number = cbe.Normalize(number)
	if !cbe.Valid(number) {
		return nil, fmt.Errorf("invalid enterprise number %q", number)
	}
	w := a.out()

	ref, err := a.Source.Latest(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("resolving latest filing of %s: %w", number, err)
	}
	fmt.Fprintf(w, "%s: latest filing %s (exercise end %s)\n", cbe.Format(number), ref.ReferenceID, ref.ExerciseEnd)

	an := &types.FilingAnalysis{CBE: number, Reference: *ref}

	payload, err := a.Source.Structured(ctx, ref.ReferenceID)
	switch {
	case errors.Is(err, cbso.ErrStructuredUnavailable):
		fmt.Fprintf(w, "  no structured data for %s\n", ref.ReferenceID)
	case err != nil:
		return nil, fmt.Errorf("fetching structured data for %s: %w", ref.ReferenceID, err)
	default:
		figs := a.extractor().Extract(payload)
		an.Structured = true
		an.Figures = &figs
	}

	if opts.OCR {
		if err := a.recognize(ctx, an, opts.Concurrency); err != nil {
			return nil, err
		}
	}

	an.AnalyzedAt = a.clock()().UTC()
	if a.Recorder != nil {
		if err := a.Recorder.UpsertFiling(ctx, *an); err != nil {
			return an, fmt.Errorf("recording analysis of %s: %w", number, err)
		}
	}
	return an, nil
}

func (a *Analyzer) recognize(ctx context.Context, an *types.FilingAnalysis, concurrency int) error {
	if a.Rasterizer == nil || a.Recognizer == nil {
		return errors.New("recognition requested without a rasterizer and recognizer")
	}
	w := a.out()

	doc, err := a.Source.Document(ctx, an.Reference.ReferenceID)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", an.Reference.ReferenceID, err)
	}
	pages, err := a.Rasterizer.Rasterize(ctx, doc.Bytes)
	if err != nil {
		return fmt.Errorf("rasterizing %s: %w", an.Reference.ReferenceID, err)
	}

	res, err := ocr.Recognize(ctx, a.Recognizer, pages, concurrency)
	var partial *ocr.PartialRecognitionError
	switch {
	case errors.As(err, &partial):
		an.RecognitionFailures = partial.Indexes()
		fmt.Fprintf(w, "  warning: %v\n", partial)
	case err != nil:
		return fmt.Errorf("recognizing %s: %w", an.Reference.ReferenceID, err)
	}
	an.Pages = len(pages)
	an.OCRText = res.FullText
	fmt.Fprintf(w, "  recognized %d pages (%d failed)\n", an.Pages, len(an.RecognitionFailures))
	return nil
}

func (a *Analyzer) extractor() *extract.Extractor {
	if a.Extractor != nil {
		return a.Extractor
	}
	return extract.Default()
}

func (a *Analyzer) out() io.Writer {
	if a.Out != nil {
		return a.Out
	}
	return io.Discard
}

func (a *Analyzer) clock() func() time.Time {
	if a.now != nil {
		return a.now
	}
	return time.Now
}
