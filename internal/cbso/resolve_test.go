// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cbso

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/faillink/pkg/types"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2022-12-31", "20221231"},
		{"20221231", "20221231"},
		{"2022-12-31T00:00:00Z", "20221231"},
		{"2022-12-31T23:59:59", "20221231"},
		{"31/12/2022", "20221231"},
		{"31-12-2022", "20221231"},
		{" 2022/12/31 ", "20221231"},
		{"", ""},
		{"FY 2022", "20220000"},
		{"2022-12", "20221200"},
		{"n/a", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestPickLatest(t *testing.T) {
	tests := []struct {
		name   string
		refs   []types.FilingReference
		wantID string
		isNil  bool
	}{
		{
			name:  "empty input",
			refs:  nil,
			isNil: true,
		},
		{
			name: "latest exercise end wins",
			refs: []types.FilingReference{
				{ReferenceID: "a", ExerciseEnd: "2021-12-31"},
				{ReferenceID: "b", ExerciseEnd: "2022-12-31"},
				{ReferenceID: "c", ExerciseEnd: "2020-06-30"},
			},
			wantID: "b",
		},
		{
			name: "mixed encodings compare on the same scale",
			refs: []types.FilingReference{
				{ReferenceID: "iso", ExerciseEnd: "2022-06-30"},
				{ReferenceID: "digits", ExerciseEnd: "20221231"},
			},
			wantID: "digits",
		},
		{
			name: "partial date compares by its prefix",
			refs: []types.FilingReference{
				{ReferenceID: "full", ExerciseEnd: "20211231"},
				{ReferenceID: "year-only", ExerciseEnd: "FY 2022"},
			},
			wantID: "year-only",
		},
		{
			name: "ties keep input order",
			refs: []types.FilingReference{
				{ReferenceID: "first", ExerciseEnd: "2022-12-31"},
				{ReferenceID: "second", ExerciseEnd: "20221231"},
			},
			wantID: "first",
		},
		{
			name: "deposit date used when exercise end is absent",
			refs: []types.FilingReference{
				{ReferenceID: "old", ExerciseEnd: "2019-12-31"},
				{ReferenceID: "deposit-only", DepositDate: "2023-07-15"},
			},
			wantID: "deposit-only",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PickLatest(tt.refs)
			if tt.isNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ReferenceID)
		})
	}
}

func TestPickLatest_DoesNotMutateInput(t *testing.T) {
	refs := []types.FilingReference{
		{ReferenceID: "a", ExerciseEnd: "2020-12-31"},
		{ReferenceID: "b", ExerciseEnd: "2023-12-31"},
		{ReferenceID: "c", ExerciseEnd: "2021-12-31"},
	}
	before := append([]types.FilingReference(nil), refs...)

	got := PickLatest(refs)
	require.NotNil(t, got)
	got.ReferenceID = "changed"

	assert.Equal(t, before, refs)
}

func TestSortLatestFirst(t *testing.T) {
	refs := []types.FilingReference{
		{ReferenceID: "2020", ExerciseEnd: "2020-12-31"},
		{ReferenceID: "2022", ExerciseEnd: "2022-12-31"},
		{ReferenceID: "2021", ExerciseEnd: "2021-12-31"},
	}
	sorted := SortLatestFirst(refs)
	ids := make([]string, len(sorted))
	for i, r := range sorted {
		ids[i] = r.ReferenceID
	}
	assert.Equal(t, []string{"2022", "2021", "2020"}, ids)
	assert.Equal(t, "2020", refs[0].ReferenceID)
}
