// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report summarizes a specimen table: grouped counts per
// institution or family, and per-source run reports, rendered as terminal
// tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/pdiddy/ukentomology/internal/normalize"
	"github.com/pdiddy/ukentomology/pkg/types"
)

// MissingLabel is shown in place of an empty grouping value.
const MissingLabel = "(missing)"

// Count is the number of rows sharing one column value.
type Count struct {
	Value string `json:"value" yaml:"value"`
	N     int    `json:"n" yaml:"n"`
}

// CountBy groups t's rows by column. Counts are ordered by N descending,
// then by value.
func CountBy(t types.Table, column string) ([]Count, error) {
	if _, ok := (types.Specimen{}).Get(column); !ok {
		return nil, fmt.Errorf("unknown column %q", column)
	}
	n := make(map[string]int)
	for _, row := range t.Rows {
		v, _ := row.Get(column)
		n[v]++
	}
	return sorted(n), nil
}

// CountByInstitution counts rows per institution. Every known institution
// is listed, with zero when it contributed nothing.
func CountByInstitution(t types.Table) []Count {
	counts, _ := CountBy(t, types.ColInstitution)
	return WithInstitutions(counts)
}

// WithInstitutions adds a zero count for every known institution missing
// from counts and re-sorts them.
func WithInstitutions(counts []Count) []Count {
	out := append([]Count(nil), counts...)
	for _, inst := range types.Institutions() {
		found := false
		for _, c := range out {
			if c.Value == string(inst) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, Count{Value: string(inst)})
		}
	}
	SortCounts(out)
	return out
}

// CountByFamily counts rows per family.
func CountByFamily(t types.Table) []Count {
	counts, _ := CountBy(t, types.ColFamily)
	return counts
}

// Total sums the counts.
func Total(counts []Count) int {
	total := 0
	for _, c := range counts {
		total += c.N
	}
	return total
}

func sorted(n map[string]int) []Count {
	out := make([]Count, 0, len(n))
	for v, c := range n {
		out = append(out, Count{Value: v, N: c})
	}
	SortCounts(out)
	return out
}

// SortCounts orders counts by N descending, then by value.
func SortCounts(counts []Count) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].N != counts[j].N {
			return counts[i].N > counts[j].N
		}
		return counts[i].Value < counts[j].Value
	})
}

// RenderCounts writes counts as a two-column table titled title, with a
// total in the footer.
func RenderCounts(w io.Writer, title string, counts []Count) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}
	tw.AppendHeader(table.Row{"Value", "Count"})
	for _, c := range counts {
		v := c.Value
		if v == "" {
			v = MissingLabel
		}
		tw.AppendRow(table.Row{v, c.N})
	}
	tw.AppendFooter(table.Row{"Total", Total(counts)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	tw.Render()
}

// RenderRun writes one line per source report followed by the merged row
// count.
func RenderRun(w io.Writer, res normalize.Result) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{
		"Source", "Read", "Skipped", "Excluded", "Dropped", "Rows",
		"Family backfilled", "Names derived", "Lenient", "Error",
	})
	for _, r := range res.Reports {
		tw.AppendRow(table.Row{
			string(r.Source),
			r.Read, r.Skipped, r.Excluded, r.Dropped, r.Rows,
			r.FamilyBackfilled, r.NamesDerived, r.LenientNames,
			r.Error,
		})
	}
	tw.AppendFooter(table.Row{"Merged", "", "", "", "", strconv.Itoa(res.Table.Len())})

	configs := make([]table.ColumnConfig, 0, 8)
	for i := 2; i <= 9; i++ {
		configs = append(configs, table.ColumnConfig{Number: i, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	tw.SetColumnConfigs(configs)
	tw.Render()
}

// RenderRows writes the first limit rows of t as a table. A limit of zero or
// less writes every row.
func RenderRows(w io.Writer, t types.Table, limit int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	tw.AppendHeader(header)

	rows := t.Rows
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	for _, s := range rows {
		r := make(table.Row, len(t.Columns))
		for i, c := range t.Columns {
			r[i], _ = s.Get(c)
		}
		tw.AppendRow(r)
	}
	tw.Render()
}
