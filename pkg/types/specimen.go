// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the ukentomology pipeline:
// the canonical specimen record, the merged table, and per-stage configs.
package types

import "fmt"

// Institution identifies the museum a specimen record came from.
type Institution string

const (
	// InstitutionLMNH is the Natural History Museum, London (data portal).
	InstitutionLMNH Institution = "LMNH"

	// InstitutionRAMM is the Royal Albert Memorial Museum, Exeter
	// (South West Collections Explorer).
	InstitutionRAMM Institution = "RAMM"
)

// Institutions lists every valid institution tag in merge order.
func Institutions() []Institution {
	return []Institution{InstitutionLMNH, InstitutionRAMM}
}

// Valid reports whether i is one of the known institution tags.
func (i Institution) Valid() bool {
	return i == InstitutionLMNH || i == InstitutionRAMM
}

// ParseInstitution converts a tag such as "LMNH" into an Institution.
func ParseInstitution(s string) (Institution, error) {
	i := Institution(s)
	if !i.Valid() {
		return "", fmt.Errorf("unknown institution %q", s)
	}
	return i, nil
}

// Canonical column names, in output order.
const (
	ColInstitution    = "institution"
	ColID             = "id"
	ColOrder          = "order"
	ColFamily         = "family"
	ColGenus          = "genus"
	ColScientificName = "scientificName"
	ColCountryOrigin  = "countryOrigin"
	ColDescription    = "description"
)

var columns = []string{
	ColInstitution,
	ColID,
	ColOrder,
	ColFamily,
	ColGenus,
	ColScientificName,
	ColCountryOrigin,
	ColDescription,
}

// Columns returns a fresh copy of the canonical column list in output order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Specimen is one physical museum specimen in the canonical schema. Every
// text field uses the empty string for "absent".
type Specimen struct {
	Institution    Institution `json:"institution" yaml:"institution"`
	ID             string      `json:"id" yaml:"id"`
	Order          string      `json:"order" yaml:"order"`
	Family         string      `json:"family" yaml:"family"`
	Genus          string      `json:"genus" yaml:"genus"`
	ScientificName string      `json:"scientificName" yaml:"scientificName"`
	CountryOrigin  string      `json:"countryOrigin" yaml:"countryOrigin"`
	Description    string      `json:"description" yaml:"description"`
}

// Values returns the record's fields in canonical column order.
func (s Specimen) Values() []string {
	return []string{
		string(s.Institution),
		s.ID,
		s.Order,
		s.Family,
		s.Genus,
		s.ScientificName,
		s.CountryOrigin,
		s.Description,
	}
}

// Get returns the value of the named canonical column. The second result is
// false when column is not canonical.
func (s Specimen) Get(column string) (string, bool) {
	switch column {
	case ColInstitution:
		return string(s.Institution), true
	case ColID:
		return s.ID, true
	case ColOrder:
		return s.Order, true
	case ColFamily:
		return s.Family, true
	case ColGenus:
		return s.Genus, true
	case ColScientificName:
		return s.ScientificName, true
	case ColCountryOrigin:
		return s.CountryOrigin, true
	case ColDescription:
		return s.Description, true
	}
	return "", false
}

// SpecimenFromValues builds a Specimen from values in canonical column order.
func SpecimenFromValues(values []string) (Specimen, error) {
	if len(values) != len(columns) {
		return Specimen{}, fmt.Errorf("expected %d values, got %d", len(columns), len(values))
	}
	inst, err := ParseInstitution(values[0])
	if err != nil {
		return Specimen{}, err
	}
	return Specimen{
		Institution:    inst,
		ID:             values[1],
		Order:          values[2],
		Family:         values[3],
		Genus:          values[4],
		ScientificName: values[5],
		CountryOrigin:  values[6],
		Description:    values[7],
	}, nil
}

// Table is an ordered set of specimen rows sharing one column list.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    []Specimen `json:"rows" yaml:"rows"`
}

// NewTable returns an empty table with the canonical columns.
func NewTable() Table {
	return Table{Columns: Columns()}
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// HasCanonicalColumns reports whether the table's column list is exactly the
// canonical list, in order.
func (t Table) HasCanonicalColumns() bool {
	return SameColumns(t.Columns, columns)
}

// SameColumns reports whether a and b list the same columns in the same order.
func SameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
