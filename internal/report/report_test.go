// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ukentomology/internal/normalize"
	"github.com/pdiddy/ukentomology/pkg/types"
)

func newTable(rows ...types.Specimen) types.Table {
	t := types.NewTable()
	t.Rows = rows
	return t
}

func row(inst types.Institution, family string) types.Specimen {
	return types.Specimen{Institution: inst, Order: "Lepidoptera", Family: family}
}

func TestCountByInstitution(t *testing.T) {
	tests := []struct {
		name string
		tbl  types.Table
		want []Count
	}{
		{
			name: "both sources",
			tbl: newTable(
				row(types.InstitutionLMNH, "Nymphalidae"),
				row(types.InstitutionRAMM, "Erebidae"),
				row(types.InstitutionRAMM, "Erebidae"),
			),
			want: []Count{{"RAMM", 2}, {"LMNH", 1}},
		},
		{
			name: "missing source listed with zero",
			tbl:  newTable(row(types.InstitutionLMNH, "Pieridae")),
			want: []Count{{"LMNH", 1}, {"RAMM", 0}},
		},
		{
			name: "empty table",
			tbl:  types.NewTable(),
			want: []Count{{"LMNH", 0}, {"RAMM", 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountByInstitution(tt.tbl))
		})
	}
}

func TestWithInstitutions(t *testing.T) {
	tests := []struct {
		name string
		in   []Count
		want []Count
	}{
		{"adds missing", []Count{{"LMNH", 4}}, []Count{{"LMNH", 4}, {"RAMM", 0}}},
		{"adds both", nil, []Count{{"LMNH", 0}, {"RAMM", 0}}},
		{"keeps and re-sorts", []Count{{"LMNH", 1}, {"RAMM", 3}}, []Count{{"RAMM", 3}, {"LMNH", 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithInstitutions(tt.in))
		})
	}
}

func TestCountByFamily(t *testing.T) {
	tbl := newTable(
		row(types.InstitutionLMNH, "Pieridae"),
		row(types.InstitutionLMNH, "Nymphalidae"),
		row(types.InstitutionRAMM, ""),
		row(types.InstitutionRAMM, "Nymphalidae"),
		row(types.InstitutionRAMM, "Erebidae"),
	)
	got := CountByFamily(tbl)
	assert.Equal(t, []Count{
		{"Nymphalidae", 2},
		{"", 1},
		{"Erebidae", 1},
		{"Pieridae", 1},
	}, got)
	assert.Equal(t, tbl.Len(), Total(got))
}

func TestCountBy_UnknownColumn(t *testing.T) {
	_, err := CountBy(types.NewTable(), "wingspan")
	assert.Error(t, err)
}

func TestCountBy_Deterministic(t *testing.T) {
	tbl := newTable(
		row(types.InstitutionRAMM, "b"),
		row(types.InstitutionRAMM, "a"),
		row(types.InstitutionRAMM, "c"),
	)
	first, err := CountBy(tbl, types.ColFamily)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := CountBy(tbl, types.ColFamily)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, "a", first[0].Value)
}

func TestRenderCounts(t *testing.T) {
	var buf bytes.Buffer
	RenderCounts(&buf, "Families", []Count{{"Nymphalidae", 12}, {"", 3}})
	out := buf.String()

	assert.Contains(t, out, "Families")
	assert.Contains(t, out, "Nymphalidae")
	assert.Contains(t, out, MissingLabel)
	assert.Contains(t, out, "15")
}

func TestRenderRun(t *testing.T) {
	res := normalize.Result{
		Table: newTable(row(types.InstitutionLMNH, "Pieridae")),
		Reports: []normalize.SourceReport{
			{Source: types.InstitutionLMNH, Read: 2, Dropped: 1, Rows: 1},
			{
				Source: types.InstitutionRAMM,
				Error:  "RAMM: malformed response",
				Err:    errors.New("RAMM: malformed response"),
			},
		},
	}
	var buf bytes.Buffer
	RenderRun(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "LMNH")
	assert.Contains(t, out, "RAMM: malformed response")
	assert.Contains(t, out, "MERGED")
}

func TestRenderRows(t *testing.T) {
	tbl := newTable(
		types.Specimen{Institution: types.InstitutionLMNH, ID: "first-row", Family: "Pieridae"},
		types.Specimen{Institution: types.InstitutionRAMM, ID: "second-row", Family: "Erebidae"},
	)

	var buf bytes.Buffer
	RenderRows(&buf, tbl, 1)
	assert.Contains(t, buf.String(), "first-row")
	assert.NotContains(t, buf.String(), "second-row")

	buf.Reset()
	RenderRows(&buf, tbl, 0)
	assert.Contains(t, buf.String(), "second-row")
	assert.Contains(t, buf.String(), "SCIENTIFICNAME")
}
