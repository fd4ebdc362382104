// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/faillink/pkg/types"
)

// Snapshot is the full content of the store.
type Snapshot struct {
	Batches     []types.Batch          `json:"batches" yaml:"batches"`
	Filings     []types.FilingAnalysis `json:"filings" yaml:"filings"`
	Enterprises []types.Enterprise     `json:"enterprises" yaml:"enterprises"`
}

// Snapshot reads every batch, filing, and enterprise.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	var (
		snap Snapshot
		err  error
	)
	if snap.Batches, err = s.Batches(ctx); err != nil {
		return Snapshot{}, err
	}
	if snap.Filings, err = s.Filings(ctx, ""); err != nil {
		return Snapshot{}, err
	}
	if snap.Enterprises, err = s.Enterprises(ctx, 0); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Export writes the snapshot to path as YAML or JSON, chosen by the file
// extension (.yaml, .yml, or .json). An empty path writes
// dataDir/export.yaml.
func (s *Store) Export(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = filepath.Join(s.dataDir, "export.yaml")
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("querying for export: %w", err)
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling JSON: %w", err)
		}
	case ".yaml", ".yml":
		data, err = yaml.Marshal(snap)
		if err != nil {
			return "", fmt.Errorf("marshaling YAML: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported export format %q", filepath.Ext(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
