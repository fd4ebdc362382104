// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/faillink/pkg/types"
)

// DefaultConcurrency is the number of pages recognized at once when the
// caller passes a non-positive limit.
const DefaultConcurrency = 4

// PartialRecognitionError reports pages whose recognition failed. The
// accompanying RecognitionResult is still complete and aligned: failed pages
// carry empty text.
type PartialRecognitionError struct {
	Failures []types.PageFailure
	Total    int
}

func (e *PartialRecognitionError) Error() string {
	idx := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		idx[i] = strconv.Itoa(f.Index)
	}
	msg := fmt.Sprintf("recognition failed for %d of %d pages (%s)", len(e.Failures), e.Total, strings.Join(idx, ", "))
	if len(e.Failures) > 0 {
		msg += ": " + e.Failures[0].Err.Error()
	}
	return msg
}

// Unwrap exposes every page error to errors.Is and errors.As.
func (e *PartialRecognitionError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Indexes returns the 1-based page numbers that failed.
func (e *PartialRecognitionError) Indexes() []int {
	out := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		out[i] = f.Index
	}
	return out
}

// Recognize runs rec over pages with at most limit recognitions in flight
// and reassembles the text in input order, whatever order the workers
// finish in.
//
// A page that fails keeps its slot with empty text and is listed in the
// result's Failures; the result is then returned together with a
// *PartialRecognitionError. Context cancellation and an engine that
// cannot start (ErrEngineUnavailable) yield an empty result instead.
func Recognize(ctx context.Context, rec Recognizer, pages []types.RasterPage, limit int) (types.RecognitionResult, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	texts := make([]string, len(pages))
	errs := make([]error, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, page := range pages {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			text, err := rec.Recognize(gctx, page)
			if errors.Is(err, ErrEngineUnavailable) {
				return err
			}
			if err != nil {
				errs[i] = err
				return nil
			}
			texts[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.RecognitionResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return types.RecognitionResult{}, err
	}

	result := types.RecognitionResult{
		Pages:       pages,
		PerPageText: texts,
		FullText:    strings.Join(texts, types.PageSeparator),
	}
	for i, err := range errs {
		if err == nil {
			continue
		}
		result.Failures = append(result.Failures, types.PageFailure{Index: pages[i].Index, Err: err})
	}
	if len(result.Failures) > 0 {
		return result, &PartialRecognitionError{Failures: result.Failures, Total: len(pages)}
	}
	return result, nil
}
