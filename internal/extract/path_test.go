// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestParsePath_Errors(t *testing.T) {
	for _, expr := range []string{"", "  ", "a..b", ".a", "a.", "a[", "a]b", "a[x]", "a[0]b", "a[-1]", "a[=1]"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParsePath(expr)
			assert.Error(t, err)
		})
	}
}

func TestPathLookup(t *testing.T) {
	doc := decode(t, `{
		"balanceSheet": {"Assets": {"total": 10}},
		"list": [{"k": "a", "v": 1}, {"k": "b", "n": 2, "v": 2}, {"k": "b", "n": 3, "v": 3}],
		"matrix": [[1, 2], [3, 4]],
		"nothing": null
	}`)

	tests := []struct {
		expr   string
		want   string
		wantOK bool
	}{
		{"balanceSheet.Assets.total", "10", true},
		{"balancesheet.assets.TOTAL", "10", true},
		{"list[1].v", "2", true},
		{"list[k=b].v", "2", true},
		{"list[k=b,n=3].v", "3", true},
		{"list[k=c].v", "", false},
		{"list[7].v", "", false},
		{"matrix[1][0]", "3", true},
		{"matrix.x", "", false},
		{"balanceSheet[0]", "", false},
		{"nothing", "", false},
		{"missing.path", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, ok := MustParsePath(tt.expr).Lookup(doc)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				s, _ := scalarString(got)
				assert.Equal(t, tt.want, s)
			}
		})
	}
}

func TestMember_PrefersExactKey(t *testing.T) {
	doc := decode(t, `{"stocks": 1, "Stocks": 2}`)
	got, ok := MustParsePath("Stocks").Lookup(doc)
	require.True(t, ok)
	assert.Equal(t, json.Number("2"), got)

	got, ok = MustParsePath("STOCKS").Lookup(doc)
	require.True(t, ok)
	assert.Equal(t, json.Number("2"), got, "ties resolve to the lexically smallest key")
}

func TestMustParsePath_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParsePath("a[") })
	assert.Equal(t, "a.b", MustParsePath("a.b").String())
}
