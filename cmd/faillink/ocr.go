// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/faillink/internal/extract"
	"github.com/pdiddy/faillink/internal/ocr"
	"github.com/pdiddy/faillink/internal/raster"
	"github.com/pdiddy/faillink/pkg/types"
)

// --- ocr ---

var ocrCmd = &cobra.Command{
	Use:   "ocr <file.pdf>",
	Short: "Rasterize a PDF and recognize the text of every page",
	Long: `OCR renders every page of a PDF with pdftoppm and recognizes each page
with tesseract, at most --concurrency pages at a time. The full text is
printed with a form feed line between pages.

Pages that fail recognition keep an empty slot and are reported on stderr.
With --strict any failed page makes the command exit non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

// --- extract ---

var extractCmd = &cobra.Command{
	Use:   "extract <payload>",
	Short: "Extract figures from a structured accounts payload",
	Long: `Extract reads a JSON or XBRL accounts payload (a file, or - for stdin)
and prints the tangible fixed asset and stock figures found in it. Use
--rules to supply a YAML rule file in place of the built-in rules.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	ocrCmd.Flags().Int("concurrency", 0, "pages recognized at once (default 4)")
	ocrCmd.Flags().Float64("scale", 0, "render scale relative to 72 DPI (default 2)")
	ocrCmd.Flags().Int("dpi", 0, "render resolution, overrides --scale")
	ocrCmd.Flags().String("backend", "", "recognition backend: local or container (default local)")
	ocrCmd.Flags().String("lang", "", "tesseract language (default fra)")
	ocrCmd.Flags().Bool("strict", false, "fail when any page fails recognition")

	extractCmd.Flags().String("rules", "", "extraction rules YAML (default: built-in rules)")
	extractCmd.Flags().String("format", formatText, "output format: text, json, or yaml")

	rootCmd.AddCommand(ocrCmd, extractCmd)
}

func runOCR(cmd *cobra.Command, args []string) error {
	doc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	cfg := pipelineConfig()
	if cmd.Flags().Changed("concurrency") {
		cfg.OCR.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if cmd.Flags().Changed("scale") {
		cfg.Raster.Scale, _ = cmd.Flags().GetFloat64("scale")
	}
	if cmd.Flags().Changed("dpi") {
		cfg.Raster.DPI, _ = cmd.Flags().GetInt("dpi")
	}
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.OCR.Backend = types.OCRBackend(backend)
	}
	if lang, _ := cmd.Flags().GetString("lang"); lang != "" {
		cfg.OCR.Language = lang
	}
	strict, _ := cmd.Flags().GetBool("strict")
	ctx := cmd.Context()

	r := raster.New(cfg.Raster, logger)
	pages, err := r.Rasterize(ctx, doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "rendered %d pages at %d DPI\n", len(pages), r.DPI())

	engine, err := recognitionEngine(ctx, cfg.OCR)
	if err != nil {
		return err
	}
	defer engine.Close()

	res, err := ocr.Recognize(ctx, engine, pages, cfg.OCR.Concurrency)
	var partial *ocr.PartialRecognitionError
	if err != nil && !errors.As(err, &partial) {
		return err
	}
	fmt.Println(res.FullText)
	if partial != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", partial)
		if strict {
			return partial
		}
	}
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	var payload []byte
	if args[0] == "-" {
		payload, err = io.ReadAll(os.Stdin)
	} else {
		payload, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	x := extract.Default()
	if path, _ := cmd.Flags().GetString("rules"); path != "" {
		if x, err = loadExtractor(path); err != nil {
			return err
		}
	}

	figs := x.Extract(payload)
	if format != formatText {
		return encode(os.Stdout, figs, format)
	}
	printFigures(os.Stdout, figs)
	return nil
}

func loadExtractor(path string) (*extract.Extractor, error) {
	rs, err := extract.LoadRules(path)
	if err != nil {
		return nil, err
	}
	x, err := extract.New(rs)
	if err != nil {
		return nil, fmt.Errorf("compiling rules %s: %w", path, err)
	}
	return x, nil
}
