// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pdiddy/faillink/pkg/types"
)

// UpsertFiling records an analysis keyed by (cbe, reference number). The
// recognised text is not persisted.
func (s *Store) UpsertFiling(ctx context.Context, a types.FilingAnalysis) error {
	if a.CBE == "" || a.Reference.ReferenceID == "" {
		return fmt.Errorf("filing needs an enterprise number and a reference")
	}

	var figures sql.NullString
	if a.Figures != nil {
		b, err := json.Marshal(a.Figures)
		if err != nil {
			return fmt.Errorf("encoding figures: %w", err)
		}
		figures = sql.NullString{String: string(b), Valid: true}
	}
	failures, _ := json.Marshal(a.RecognitionFailures)
	analyzed := a.AnalyzedAt
	if analyzed.IsZero() {
		analyzed = s.now()
	}

	ref := a.Reference
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO filings (cbe, reference_number, deposit_date, exercise_start, exercise_end,
			model_type, language, currency, data_version, structured, figures, pages,
			recognition_failures, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cbe, reference_number) DO UPDATE SET
			deposit_date=excluded.deposit_date, exercise_start=excluded.exercise_start,
			exercise_end=excluded.exercise_end, model_type=excluded.model_type,
			language=excluded.language, currency=excluded.currency,
			data_version=excluded.data_version, structured=excluded.structured,
			figures=excluded.figures, pages=excluded.pages,
			recognition_failures=excluded.recognition_failures, analyzed_at=excluded.analyzed_at`,
		a.CBE, ref.ReferenceID, ref.DepositDate, ref.ExerciseStart, ref.ExerciseEnd,
		ref.ModelType, ref.Language, ref.Currency, ref.DataVersion, a.Structured, figures, a.Pages,
		string(failures), formatTime(analyzed),
	)
	if err != nil {
		return fmt.Errorf("upserting filing %s/%s: %w", a.CBE, ref.ReferenceID, err)
	}
	return nil
}

const filingColumns = `cbe, reference_number, deposit_date, exercise_start, exercise_end,
	model_type, language, currency, data_version, structured, figures, pages,
	recognition_failures, analyzed_at`

// Filing returns the stored analysis of one filing.
func (s *Store) Filing(ctx context.Context, cbe, ref string) (types.FilingAnalysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+filingColumns+` FROM filings WHERE cbe = ? AND reference_number = ?`, cbe, ref)
	a, err := scanFiling(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FilingAnalysis{}, fmt.Errorf("filing %s/%s: %w", cbe, ref, ErrNotFound)
	}
	return a, err
}

// Filings returns every stored analysis ordered by enterprise and
// reference. An empty cbe lists all enterprises.
func (s *Store) Filings(ctx context.Context, cbe string) ([]types.FilingAnalysis, error) {
	q := `SELECT ` + filingColumns + ` FROM filings`
	var args []any
	if cbe != "" {
		q += ` WHERE cbe = ?`
		args = append(args, cbe)
	}
	q += ` ORDER BY cbe, reference_number`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying filings: %w", err)
	}
	defer rows.Close()

	var out []types.FilingAnalysis
	for rows.Next() {
		a, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanFiling(sc scanner) (types.FilingAnalysis, error) {
	var (
		a        types.FilingAnalysis
		deposit  sql.NullString
		start    sql.NullString
		end      sql.NullString
		model    sql.NullString
		lang     sql.NullString
		cur      sql.NullString
		version  sql.NullString
		figures  sql.NullString
		failures sql.NullString
		pages    sql.NullInt64
		analyzed string
	)
	err := sc.Scan(&a.CBE, &a.Reference.ReferenceID, &deposit, &start, &end,
		&model, &lang, &cur, &version, &a.Structured, &figures, &pages, &failures, &analyzed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.FilingAnalysis{}, err
		}
		return types.FilingAnalysis{}, fmt.Errorf("scanning filing: %w", err)
	}

	a.Reference.DepositDate = deposit.String
	a.Reference.ExerciseStart = start.String
	a.Reference.ExerciseEnd = end.String
	a.Reference.ModelType = model.String
	a.Reference.Language = lang.String
	a.Reference.Currency = cur.String
	a.Reference.DataVersion = version.String
	a.Pages = int(pages.Int64)
	a.AnalyzedAt = parseTime(analyzed)

	if figures.Valid {
		var f types.ExtractedFigures
		if err := json.Unmarshal([]byte(figures.String), &f); err != nil {
			return types.FilingAnalysis{}, fmt.Errorf("decoding figures of %s: %w", a.CBE, err)
		}
		a.Figures = &f
	}
	if failures.Valid && failures.String != "" {
		if err := json.Unmarshal([]byte(failures.String), &a.RecognitionFailures); err != nil {
			return types.FilingAnalysis{}, fmt.Errorf("decoding recognition failures of %s: %w", a.CBE, err)
		}
	}
	return a, nil
}
