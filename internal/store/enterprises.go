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

// UpsertEnterprise stores enterprise details, linking them to the batch
// that discovered the enterprise. A batchID of 0 leaves the link empty.
func (s *Store) UpsertEnterprise(ctx context.Context, batchID int64, e types.Enterprise) error {
	if e.Number == "" {
		return fmt.Errorf("enterprise needs a number")
	}
	detail, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding enterprise: %w", err)
	}
	var batch sql.NullInt64
	if batchID > 0 {
		batch = sql.NullInt64{Int64: batchID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO enterprises (number, batch_id, name, juridical_situation, juridical_form, detail, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(number) DO UPDATE SET
			batch_id=COALESCE(excluded.batch_id, enterprises.batch_id),
			name=excluded.name, juridical_situation=excluded.juridical_situation,
			juridical_form=excluded.juridical_form, detail=excluded.detail,
			fetched_at=excluded.fetched_at`,
		e.Number, batch, e.Name, e.JuridicalSituation, e.JuridicalForm, string(detail), formatTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("upserting enterprise %s: %w", e.Number, err)
	}
	return nil
}

// HasEnterprise reports whether details for number are stored.
func (s *Store) HasEnterprise(ctx context.Context, number string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM enterprises WHERE number = ?`, number,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking enterprise %s: %w", number, err)
	}
	return n > 0, nil
}

// Enterprise returns the stored details for number.
func (s *Store) Enterprise(ctx context.Context, number string) (types.Enterprise, error) {
	var detail string
	err := s.db.QueryRowContext(ctx,
		`SELECT detail FROM enterprises WHERE number = ?`, number,
	).Scan(&detail)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Enterprise{}, fmt.Errorf("enterprise %s: %w", number, ErrNotFound)
	}
	if err != nil {
		return types.Enterprise{}, fmt.Errorf("reading enterprise %s: %w", number, err)
	}

	var e types.Enterprise
	if err := json.Unmarshal([]byte(detail), &e); err != nil {
		return types.Enterprise{}, fmt.Errorf("decoding enterprise %s: %w", number, err)
	}
	return e, nil
}

// Enterprises returns the stored details of enterprises discovered by a
// batch, in number order. A batchID of 0 lists every enterprise.
func (s *Store) Enterprises(ctx context.Context, batchID int64) ([]types.Enterprise, error) {
	q := `SELECT detail FROM enterprises`
	var args []any
	if batchID > 0 {
		q += ` WHERE batch_id = ?`
		args = append(args, batchID)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY number`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying enterprises: %w", err)
	}
	defer rows.Close()

	var out []types.Enterprise
	for rows.Next() {
		var detail string
		if err := rows.Scan(&detail); err != nil {
			return nil, fmt.Errorf("scanning enterprise: %w", err)
		}
		var e types.Enterprise
		if err := json.Unmarshal([]byte(detail), &e); err != nil {
			return nil, fmt.Errorf("decoding enterprise: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
