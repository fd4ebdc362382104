// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders crawl batches and filing analyses as XLSX
// workbooks.
package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/faillink/internal/cbe"
	"github.com/pdiddy/faillink/pkg/types"
)

const (
	sheetSummary     = "Summary"
	sheetIdentifiers = "Identifiers"
	sheetPages       = "Pages"
	sheetFilings     = "Filings"

	defaultSheet = "Sheet1"
	dateLayout   = "2006-01-02 15:04:05"
)

// Exporter produces workbook bytes.
type Exporter struct {
	logger *slog.Logger
}

// New returns an Exporter. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// Crawl renders a crawl result: a summary sheet, one row per distinct
// identifier (enriched with enterprise details when known), and one row
// per listing page.
func (x *Exporter) Crawl(res types.CrawlResult, enterprises map[string]types.Enterprise) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, sheetSummary); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	summary := [][]any{
		{"From", res.From},
		{"To", res.To},
		{"Pages", len(res.Pages)},
		{"Raw matches", res.CountRaw},
		{"Distinct identifiers", res.CountDistinct},
		{"Grabbed at", formatTime(res.GrabbedAt)},
	}
	for i, row := range summary {
		writeRow(f, sheetSummary, i+1, row...)
	}
	_ = f.SetColWidth(sheetSummary, "A", "A", 22)
	_ = f.SetColWidth(sheetSummary, "B", "B", 22)

	if _, err := f.NewSheet(sheetIdentifiers); err != nil {
		return nil, fmt.Errorf("adding sheet: %w", err)
	}
	writeRow(f, sheetIdentifiers, 1, "Enterprise number", "First page", "Name", "Juridical situation", "Juridical form", "Municipality")
	firstPage := make(map[string]int, res.CountDistinct)
	for _, p := range res.Pages {
		for _, id := range p.List {
			if _, ok := firstPage[id]; !ok {
				firstPage[id] = p.Page
			}
		}
	}
	for i, id := range res.Identifiers() {
		e := enterprises[id]
		municipality := ""
		if e.Address != nil {
			municipality = e.Address.Municipality
		}
		writeRow(f, sheetIdentifiers, i+2, cbe.Format(id), firstPage[id], e.Name, e.JuridicalSituation, e.JuridicalForm, municipality)
	}
	_ = f.SetColWidth(sheetIdentifiers, "A", "A", 16)
	_ = f.SetColWidth(sheetIdentifiers, "B", "B", 10)
	_ = f.SetColWidth(sheetIdentifiers, "C", "C", 40)
	_ = f.SetColWidth(sheetIdentifiers, "D", "E", 28)
	_ = f.SetColWidth(sheetIdentifiers, "F", "F", 20)

	if _, err := f.NewSheet(sheetPages); err != nil {
		return nil, fmt.Errorf("adding sheet: %w", err)
	}
	writeRow(f, sheetPages, 1, "Page", "Raw matches", "Identifiers")
	for i, p := range res.Pages {
		writeRow(f, sheetPages, i+2, p.Page, p.Count, strings.Join(p.List, ", "))
	}
	_ = f.SetColWidth(sheetPages, "C", "C", 80)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	x.logger.Info("export.crawl.ok",
		"from", res.From,
		"to", res.To,
		"rows", res.CountDistinct,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// Filings renders one row per analysis. Missing figures are left blank.
func (x *Exporter) Filings(analyses []types.FilingAnalysis) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(defaultSheet, sheetFilings); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	writeRow(f, sheetFilings, 1,
		"Enterprise number", "Reference", "Deposit date", "Exercise end", "Structured",
		"Acquisition value", "Accumulated depreciation", "Net book value",
		"Net book value (previous)", "Change %", "Stocks", "Pages", "Failed pages", "Analyzed at",
	)
	for i, a := range analyses {
		var figs types.ExtractedFigures
		if a.Figures != nil {
			figs = *a.Figures
		}
		structured := "no"
		if a.Structured {
			structured = "yes"
		}
		failed := make([]string, len(a.RecognitionFailures))
		for j, n := range a.RecognitionFailures {
			failed[j] = fmt.Sprint(n)
		}
		writeRow(f, sheetFilings, i+2,
			cbe.Format(a.CBE), a.Reference.ReferenceID, a.Reference.DepositDate, a.Reference.ExerciseEnd, structured,
			number(figs.AcquisitionValue), number(figs.AccumulatedDepreciation), number(figs.NetBookValue),
			number(figs.NetBookValuePrevious), number(figs.NetBookValueChangePct), number(figs.Stocks),
			a.Pages, strings.Join(failed, ", "), formatTime(a.AnalyzedAt),
		)
	}
	_ = f.SetColWidth(sheetFilings, "A", "B", 16)
	_ = f.SetColWidth(sheetFilings, "C", "D", 12)
	_ = f.SetColWidth(sheetFilings, "F", "K", 18)
	_ = f.SetColWidth(sheetFilings, "N", "N", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	x.logger.Info("export.filings.ok",
		"rows", len(analyses),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

// number returns the value or an empty cell.
func number(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
