// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cbso

import (
	"slices"
	"strings"
	"time"

	"github.com/pdiddy/faillink/pkg/types"
)

// dateLayouts are the encodings seen in deposit and exercise dates.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// NormalizeDate converts a date to the comparable 8-digit form YYYYMMDD.
// Unrecognized input falls back to its digits in order, right-padded with
// zeros to eight, so a partial date such as a bare year still compares on
// the same scale.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("20060102")
		}
	}
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	for b.Len() < len("20060102") {
		b.WriteByte('0')
	}
	return b.String()
}

// sortKey prefers the exercise end date and falls back to the deposit date.
func sortKey(r types.FilingReference) string {
	if k := NormalizeDate(r.ExerciseEnd); k != "" {
		return k
	}
	return NormalizeDate(r.DepositDate)
}

// PickLatest returns the most recent reference, or nil for empty input.
// When several references share the latest date the first one in input
// order wins. The input is not modified.
func PickLatest(refs []types.FilingReference) *types.FilingReference {
	if len(refs) == 0 {
		return nil
	}
	sorted := SortLatestFirst(refs)
	latest := sorted[0]
	return &latest
}

// SortLatestFirst returns a copy of refs ordered by date, newest first.
// The sort is stable.
func SortLatestFirst(refs []types.FilingReference) []types.FilingReference {
	out := slices.Clone(refs)
	slices.SortStableFunc(out, func(a, b types.FilingReference) int {
		return strings.Compare(sortKey(b), sortKey(a))
	})
	return out
}
