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

// SaveBatch records a crawl and its distinct identifiers and returns the
// new batch id.
func (s *Store) SaveBatch(ctx context.Context, source types.BatchSource, res types.CrawlResult) (int64, error) {
	pagesJSON, err := json.Marshal(res.Pages)
	if err != nil {
		return 0, fmt.Errorf("encoding pages: %w", err)
	}
	grabbed := res.GrabbedAt
	if grabbed.IsZero() {
		grabbed = s.now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	r, err := tx.ExecContext(ctx,
		`INSERT INTO batches (date_from, date_to, source, pages, count_raw, count_distinct, grabbed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.From, res.To, string(source), string(pagesJSON), res.CountRaw, res.CountDistinct, formatTime(grabbed),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting batch: %w", err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading batch id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO batch_identifiers (batch_id, position, cbe) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, cbe := range res.Identifiers() {
		if _, err := stmt.ExecContext(ctx, id, i, cbe); err != nil {
			return 0, fmt.Errorf("inserting identifier %s: %w", cbe, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing batch: %w", err)
	}
	return id, nil
}

// Batches returns every batch, newest first.
func (s *Store) Batches(ctx context.Context) ([]types.Batch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date_from, date_to, source, pages, count_raw, count_distinct, grabbed_at
		 FROM batches ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying batches: %w", err)
	}
	defer rows.Close()

	var out []types.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Batch returns one batch by id.
func (s *Store) Batch(ctx context.Context, id int64) (types.Batch, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, date_from, date_to, source, pages, count_raw, count_distinct, grabbed_at
		 FROM batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Batch{}, fmt.Errorf("batch %d: %w", id, ErrNotFound)
	}
	return b, err
}

// BatchesContaining returns the ids of batches that listed cbe.
func (s *Store) BatchesContaining(ctx context.Context, cbe string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT batch_id FROM batch_identifiers WHERE cbe = ? ORDER BY batch_id`, cbe)
	if err != nil {
		return nil, fmt.Errorf("querying identifiers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning identifier: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(sc scanner) (types.Batch, error) {
	var (
		b         types.Batch
		source    string
		pagesJSON string
		grabbed   string
	)
	err := sc.Scan(&b.ID, &b.From, &b.To, &source, &pagesJSON, &b.CountRaw, &b.CountDistinct, &grabbed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Batch{}, err
		}
		return types.Batch{}, fmt.Errorf("scanning batch: %w", err)
	}
	b.Source = types.BatchSource(source)
	b.GrabbedAt = parseTime(grabbed)
	if err := json.Unmarshal([]byte(pagesJSON), &b.Pages); err != nil {
		return types.Batch{}, fmt.Errorf("decoding pages of batch %d: %w", b.ID, err)
	}
	return b, nil
}
