// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file holds one secret: the filename is the key and the trimmed
// contents are the value.
//
// Recognized keys: cbso-subscription-key, kbo-username, kbo-password.
package secrets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/faillink/pkg/types"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets"

const (
	CBSOSubscriptionKey = "cbso-subscription-key"
	KBOUsername         = "kbo-username"
	KBOPassword         = "kbo-password"
)

// Load reads all files in dir and returns a map of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("secrets.read.failed", "name", name, "error", err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply fills credentials that cfg leaves empty from loaded secrets.
// Values already set, from flags or configuration, win.
func Apply(cfg *types.PipelineConfig, secrets map[string]string) {
	fill(&cfg.CBSO.SubscriptionKey, secrets[CBSOSubscriptionKey])
	fill(&cfg.KBO.Username, secrets[KBOUsername])
	fill(&cfg.KBO.Password, secrets[KBOPassword])
}

func fill(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
