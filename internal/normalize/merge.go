// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"fmt"

	"github.com/pdiddy/ukentomology/pkg/types"
)

// Project restricts a resolved draft to the canonical fields.
func Project(d Draft) types.Specimen {
	return d.Specimen
}

// ProjectAll projects drafts into a table with the canonical columns,
// keeping their order.
func ProjectAll(drafts []Draft) types.Table {
	t := types.NewTable()
	t.Rows = make([]types.Specimen, 0, len(drafts))
	for _, d := range drafts {
		t.Rows = append(t.Rows, Project(d))
	}
	return t
}

// Merge concatenates the rows of a and then b. It does not sort or
// deduplicate. Tables with different column lists, or rows with an
// institution other than LMNH or RAMM, fail with *SchemaMismatchError.
func Merge(a, b types.Table) (types.Table, error) {
	if !types.SameColumns(a.Columns, b.Columns) {
		return types.Table{}, &SchemaMismatchError{Left: a.Columns, Right: b.Columns}
	}
	if !a.HasCanonicalColumns() {
		return types.Table{}, &SchemaMismatchError{
			Left:   a.Columns,
			Right:  types.Columns(),
			Reason: fmt.Sprintf("columns %v are not the canonical columns", a.Columns),
		}
	}

	merged := types.Table{
		Columns: types.Columns(),
		Rows:    make([]types.Specimen, 0, len(a.Rows)+len(b.Rows)),
	}
	for _, t := range []types.Table{a, b} {
		for i, row := range t.Rows {
			if !row.Institution.Valid() {
				return types.Table{}, &SchemaMismatchError{
					Left:   a.Columns,
					Right:  b.Columns,
					Reason: fmt.Sprintf("row %d has institution %q", i, row.Institution),
				}
			}
			merged.Rows = append(merged.Rows, row)
		}
	}
	return merged, nil
}
