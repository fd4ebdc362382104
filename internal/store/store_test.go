// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/faillink/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{DataDir: filepath.Join(t.TempDir(), "data")})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleCrawl() types.CrawlResult {
	return types.CrawlResult{
		From: "2026-03-02",
		To:   "2026-03-06",
		Pages: []types.PageRecord{
			{Page: 1, Count: 3, List: []string{"0123456789", "0200065765", "0123456789"}},
			{Page: 2, Count: 2, List: []string{"0200065765", "0987654321"}},
		},
		CountRaw:      5,
		CountDistinct: 3,
		GrabbedAt:     time.Date(2026, 3, 6, 18, 0, 0, 0, time.UTC),
	}
}

func f64(v float64) *float64 { return &v }

// --- schema ---

func TestOpenCreatesSchema(t *testing.T) {
	s := testStore(t)

	for _, table := range []string{"batches", "batch_identifiers", "filings", "enterprises"} {
		var count int
		err := s.db.QueryRow(
			`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&count)
		if err != nil {
			t.Fatalf("checking table %s: %v", table, err)
		}
		if count == 0 {
			t.Errorf("table %s does not exist", table)
		}
	}
	if _, err := os.Stat(s.Path()); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		s, err := Open(types.StoreConfig{DataDir: dir})
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

// --- batches ---

func TestSaveBatch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.SaveBatch(ctx, types.SourceCLI, sampleCrawl())
	if err != nil {
		t.Fatal(err)
	}
	if id <= 0 {
		t.Fatalf("batch id = %d, want positive", id)
	}

	got, err := s.Batch(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	want := types.Batch{ID: id, Source: types.SourceCLI, CrawlResult: sampleCrawl()}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Batch() =\n%+v\nwant\n%+v", got, want)
	}

	var n int
	if err := s.db.QueryRow(`SELECT count(*) FROM batch_identifiers WHERE batch_id = ?`, id).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("stored %d identifiers, want 3 distinct", n)
	}
}

func TestBatchesNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first, _ := s.SaveBatch(ctx, types.SourceCLI, sampleCrawl())
	second, _ := s.SaveBatch(ctx, types.SourceCLI, types.CrawlResult{From: "2026-03-09", To: "2026-03-09"})

	batches, err := s.Batches(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if batches[0].ID != second || batches[1].ID != first {
		t.Errorf("order = [%d %d], want [%d %d]", batches[0].ID, batches[1].ID, second, first)
	}
	if batches[0].GrabbedAt.IsZero() {
		t.Error("zero GrabbedAt should default to now")
	}

	ids, err := s.BatchesContaining(ctx, "0987654321")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int64{first}) {
		t.Errorf("BatchesContaining = %v, want [%d]", ids, first)
	}
}

func TestBatchNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Batch(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- filings ---

func sampleAnalysis() types.FilingAnalysis {
	return types.FilingAnalysis{
		CBE: "0123456789",
		Reference: types.FilingReference{
			ReferenceID:   "2025-00012345",
			DepositDate:   "2025-07-30",
			ExerciseStart: "2024-01-01",
			ExerciseEnd:   "2024-12-31",
			ModelType:     "m02-f",
			Language:      "FR",
			Currency:      "EUR",
		},
		Structured: true,
		Figures: &types.ExtractedFigures{
			AcquisitionValue:        f64(1000),
			AccumulatedDepreciation: f64(400),
			NetBookValue:            f64(600),
			Categories:              []types.CategoryFigure{{Code: "22", Label: "Terrains et constructions", Current: f64(600)}},
		},
		Pages:               3,
		OCRText:             "page one\n\f\npage two",
		RecognitionFailures: []int{2},
		AnalyzedAt:          time.Date(2026, 3, 7, 9, 30, 0, 0, time.UTC),
	}
}

func TestUpsertFiling(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := sampleAnalysis()
	if err := s.UpsertFiling(ctx, a); err != nil {
		t.Fatal(err)
	}

	got, err := s.Filing(ctx, a.CBE, a.Reference.ReferenceID)
	if err != nil {
		t.Fatal(err)
	}
	want := a
	want.OCRText = ""
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filing() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestUpsertFilingReplacesSameKey(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	a := sampleAnalysis()
	if err := s.UpsertFiling(ctx, a); err != nil {
		t.Fatal(err)
	}
	a.Structured = false
	a.Figures = nil
	a.RecognitionFailures = nil
	if err := s.UpsertFiling(ctx, a); err != nil {
		t.Fatal(err)
	}

	all, err := s.Filings(ctx, a.CBE)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("got %d filings, want 1", len(all))
	}
	if all[0].Structured || all[0].Figures != nil || all[0].RecognitionFailures != nil {
		t.Errorf("second upsert not applied: %+v", all[0])
	}
}

func TestUpsertFilingRequiresKey(t *testing.T) {
	s := testStore(t)
	if err := s.UpsertFiling(context.Background(), types.FilingAnalysis{CBE: "0123456789"}); err == nil {
		t.Error("expected error for missing reference")
	}
}

func TestFilingNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Filing(context.Background(), "0123456789", "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// --- enterprises ---

func TestUpsertEnterprise(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	batch, _ := s.SaveBatch(ctx, types.SourceCLI, sampleCrawl())
	e := types.Enterprise{
		Number:             "0123456789",
		Name:               "Boulangerie Dupont",
		JuridicalSituation: "Ouverture de faillite",
		Capital:            &types.Capital{Amount: "18550.00", Currency: "EUR"},
		Functions:          []types.Function{{Code: "10", Role: "Gérant", Surname: "Dupont", GivenName: "Marie"}},
	}

	has, err := s.HasEnterprise(ctx, e.Number)
	if err != nil || has {
		t.Fatalf("HasEnterprise before insert = %v, %v", has, err)
	}
	if err := s.UpsertEnterprise(ctx, batch, e); err != nil {
		t.Fatal(err)
	}
	has, err = s.HasEnterprise(ctx, e.Number)
	if err != nil || !has {
		t.Fatalf("HasEnterprise after insert = %v, %v", has, err)
	}

	got, err := s.Enterprise(ctx, e.Number)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, e) {
		t.Errorf("Enterprise() = %+v, want %+v", got, e)
	}

	// A later lookup without a batch keeps the original link.
	e.Name = "Boulangerie Dupont & Fils"
	if err := s.UpsertEnterprise(ctx, 0, e); err != nil {
		t.Fatal(err)
	}
	inBatch, err := s.Enterprises(ctx, batch)
	if err != nil {
		t.Fatal(err)
	}
	if len(inBatch) != 1 || inBatch[0].Name != e.Name {
		t.Errorf("Enterprises(batch) = %+v", inBatch)
	}
}

func TestEnterpriseNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Enterprise(context.Background(), "0000000000")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.UpsertEnterprise(context.Background(), 0, types.Enterprise{}); err == nil {
		t.Error("expected error for enterprise without number")
	}
}

// --- export ---

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	batch, _ := s.SaveBatch(ctx, types.SourceCLI, sampleCrawl())
	if err := s.UpsertFiling(ctx, sampleAnalysis()); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertEnterprise(ctx, batch, types.Enterprise{Number: "0123456789", Name: "Dupont"}); err != nil {
		t.Fatal(err)
	}

	path, err := s.Export(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "export.yaml" {
		t.Errorf("default export path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML Snapshot
	if err := yaml.Unmarshal(data, &fromYAML); err != nil {
		t.Fatalf("export.yaml is not valid YAML: %v", err)
	}
	if len(fromYAML.Batches) != 1 || len(fromYAML.Filings) != 1 || len(fromYAML.Enterprises) != 1 {
		t.Errorf("snapshot sizes = %d/%d/%d, want 1/1/1",
			len(fromYAML.Batches), len(fromYAML.Filings), len(fromYAML.Enterprises))
	}

	jsonPath := filepath.Join(t.TempDir(), "out.json")
	if _, err := s.Export(ctx, jsonPath); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(jsonPath)
	var fromJSON Snapshot
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if fromJSON.Filings[0].Figures == nil || *fromJSON.Filings[0].Figures.NetBookValue != 600 {
		t.Errorf("figures lost in JSON export: %+v", fromJSON.Filings[0])
	}

	if _, err := s.Export(ctx, filepath.Join(t.TempDir(), "out.csv")); err == nil {
		t.Error("expected error for unsupported extension")
	}
}
