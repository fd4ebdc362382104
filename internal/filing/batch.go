// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filing

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/internal/cbso"
	"github.com/pdiddy/faillink/pkg/types"
)

// BatchResult holds the outcome of analysing several enterprises.
type BatchResult struct {
	Analyzed int
	Skipped  int
	Failed   int
	Analyses []*types.FilingAnalysis
}

// Total returns the number of enterprises processed.
func (r BatchResult) Total() int {
	return r.Analyzed + r.Skipped + r.Failed
}

// HasFailures reports whether any analysis failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// AnalyzeAll analyses each number in turn. Enterprises without published
// accounts are skipped; other failures are reported and counted, and the
// batch carries on. Cancellation stops the batch and returns ctx.Err().
func (a *Analyzer) AnalyzeAll(ctx context.Context, numbers []string, opts Options) (BatchResult, error) {
	w := a.out()
	var res BatchResult
	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		an, err := a.Analyze(ctx, n, opts)
		switch {
		case errors.Is(err, cbso.ErrNoReferences):
			fmt.Fprintf(w, "skipped: %s (no published accounts)\n", cbe.Format(cbe.Normalize(n)))
			res.Skipped++
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			fmt.Fprintf(w, "failed: %s: %v\n", n, err)
			res.Failed++
		default:
			res.Analyzed++
			res.Analyses = append(res.Analyses, an)
		}
	}
	fmt.Fprintf(w, "Analysis summary: %d analyzed, %d skipped, %d failed (of %d)\n",
		res.Analyzed, res.Skipped, res.Failed, res.Total())
	return res, nil
}
