// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/internal/container"
	"github.com/pdiddy/faillink/internal/export"
	"github.com/pdiddy/faillink/internal/filing"
	"github.com/pdiddy/faillink/internal/ocr"
	"github.com/pdiddy/faillink/internal/raster"
	"github.com/pdiddy/faillink/internal/store"
	"github.com/pdiddy/faillink/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [cbe...]",
	Short: "Extract figures from the latest annual accounts of enterprises",
	Long: `Analyze resolves the latest deposit of each enterprise, downloads its
structured payload, and extracts tangible fixed asset and stock figures.
Deposits without a structured payload are reported with no figures.

With --ocr the rendered filing is also downloaded, rasterized with pdftoppm,
and recognized with tesseract, at most --concurrency pages at a time. Pages
that fail recognition are listed in the result; the analysis still counts.

With --batch every enterprise of a stored crawl batch is analysed.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Bool("ocr", false, "rasterize and recognize the rendered filing")
	analyzeCmd.Flags().Int("concurrency", 0, "pages recognized at once (default 4)")
	analyzeCmd.Flags().String("backend", "", "recognition backend: local or container (default local)")
	analyzeCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 30s)")
	analyzeCmd.Flags().String("subscription-key", "", "CBSO subscription key (default: .secrets/cbso-subscription-key)")
	analyzeCmd.Flags().String("rules", "", "extraction rules YAML (default: built-in rules)")
	analyzeCmd.Flags().Bool("store", false, "save analyses to the local database")
	analyzeCmd.Flags().Int64("batch", 0, "analyse every enterprise of this stored batch")
	analyzeCmd.Flags().String("format", formatText, "output format: text, json, or yaml")
	analyzeCmd.Flags().String("xlsx", "", "write the analyses to this workbook")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	numbers := make([]string, 0, len(args))
	for _, a := range args {
		n, err := enterpriseNumber(a)
		if err != nil {
			return err
		}
		numbers = append(numbers, n)
	}

	cfg := pipelineConfig()
	withOCR, _ := cmd.Flags().GetBool("ocr")
	save, _ := cmd.Flags().GetBool("store")
	batchID, _ := cmd.Flags().GetInt64("batch")
	xlsxPath, _ := cmd.Flags().GetString("xlsx")
	if cmd.Flags().Changed("concurrency") {
		cfg.OCR.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.OCR.Backend = types.OCRBackend(backend)
	}
	ctx := cmd.Context()

	var progress io.Writer = os.Stdout
	if format != formatText {
		progress = os.Stderr
	}
	a := &filing.Analyzer{Source: cbsoClient(cmd, cfg), Out: progress}

	if path, _ := cmd.Flags().GetString("rules"); path != "" {
		x, err := loadExtractor(path)
		if err != nil {
			return err
		}
		a.Extractor = x
	}

	if save || batchID > 0 {
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()
		if save {
			a.Recorder = st
		}
		if batchID > 0 {
			b, err := st.Batch(ctx, batchID)
			if err != nil {
				return err
			}
			numbers = append(numbers, b.Identifiers()...)
		}
	}
	if len(numbers) == 0 {
		return fmt.Errorf("provide one or more enterprise numbers or --batch")
	}

	if withOCR {
		engine, err := recognitionEngine(ctx, cfg.OCR)
		if err != nil {
			return err
		}
		defer engine.Close()
		a.Rasterizer = raster.New(cfg.Raster, logger)
		a.Recognizer = engine
	}
	opts := filing.Options{OCR: withOCR, Concurrency: cfg.OCR.Concurrency}

	var analyses []*types.FilingAnalysis
	var failed bool
	if len(numbers) == 1 {
		an, err := a.Analyze(ctx, numbers[0], opts)
		if err != nil {
			return err
		}
		analyses = append(analyses, an)
	} else {
		res, err := a.AnalyzeAll(ctx, numbers, opts)
		if err != nil {
			return err
		}
		analyses = res.Analyses
		failed = res.HasFailures()
	}

	if xlsxPath != "" {
		rows := make([]types.FilingAnalysis, len(analyses))
		for i, an := range analyses {
			rows[i] = *an
		}
		data, err := export.New(logger).Filings(rows)
		if err != nil {
			return err
		}
		if err := writeFileAtomic(xlsxPath, data); err != nil {
			return err
		}
		fmt.Fprintf(progress, "wrote %s\n", xlsxPath)
	}

	if format != formatText {
		if err := encode(os.Stdout, analyses, format); err != nil {
			return err
		}
	} else {
		for _, an := range analyses {
			printAnalysis(os.Stdout, an)
		}
	}
	if failed {
		return fmt.Errorf("some analyses failed")
	}
	return nil
}

// recognitionEngine builds the configured recognition backend.
func recognitionEngine(ctx context.Context, cfg types.OCRConfig) (*ocr.Engine, error) {
	switch cfg.Backend {
	case "", types.OCRBackendLocal:
		return ocr.NewLocalEngine(cfg, nil, logger), nil
	case types.OCRBackendContainer:
		rt, err := container.DetectRuntime(ctx, container.RuntimeOptions{Prefer: cfg.Runtime, Pull: cfg.PullImage})
		if err != nil {
			return nil, err
		}
		return ocr.NewContainerEngine(cfg, rt, logger), nil
	}
	return nil, fmt.Errorf("unknown recognition backend %q: use local or container", cfg.Backend)
}

func printAnalysis(w io.Writer, an *types.FilingAnalysis) {
	fmt.Fprintf(w, "\n%s  %s  (exercise %s to %s, deposited %s)\n",
		cbe.Format(an.CBE), an.Reference.ReferenceID,
		an.Reference.ExerciseStart, an.Reference.ExerciseEnd, an.Reference.DepositDate)
	if an.Figures == nil {
		fmt.Fprintln(w, "  no structured data")
	} else {
		printFigures(w, *an.Figures)
	}
	if an.Pages > 0 {
		fmt.Fprintf(w, "  recognized pages:          %d", an.Pages)
		if len(an.RecognitionFailures) > 0 {
			fmt.Fprintf(w, " (failed: %v)", an.RecognitionFailures)
		}
		fmt.Fprintln(w)
	}
}

func printFigures(w io.Writer, f types.ExtractedFigures) {
	fmt.Fprintf(w, "  acquisition value:         %s\n", formatValue(f.AcquisitionValue))
	fmt.Fprintf(w, "  accumulated depreciation:  %s\n", formatValue(f.AccumulatedDepreciation))
	fmt.Fprintf(w, "  net book value:            %s\n", formatValue(f.NetBookValue))
	fmt.Fprintf(w, "  net book value (previous): %s\n", formatValue(f.NetBookValuePrevious))
	fmt.Fprintf(w, "  change %%:                  %s\n", formatValue(f.NetBookValueChangePct))
	fmt.Fprintf(w, "  stocks:                    %s\n", formatValue(f.Stocks))
	for _, c := range f.Categories {
		fmt.Fprintf(w, "    %-4s %-40s %12s  %6s%%\n", c.Code, c.Label, formatValue(c.Current), formatValue(c.SharePercent))
	}
}

var _ filing.Recorder = (*store.Store)(nil)
