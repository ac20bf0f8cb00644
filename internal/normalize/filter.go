// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter decides whether a raw entry belongs in the dataset.
type Filter func(RawRecord) bool

// AcceptAll keeps every entry. The NHM portal query already restricts
// results to Lepidoptera, so nothing is filtered after the fetch.
func AcceptAll(RawRecord) bool { return true }

// NameFilter keeps entries whose Field contains any of Terms. An absent,
// null or non-string field never matches.
type NameFilter struct {
	Field           string
	Terms           []string
	CaseInsensitive bool
}

// RAMMNameField is the free-text common-name field of RAMM objects.
const RAMMNameField = "simple-name"

// RAMMNameTerms are the substrings marking a RAMM object as a butterfly or moth.
var RAMMNameTerms = []string{"butterfly", "moth"}

// NewRAMMNameFilter returns the filter applied to RAMM objects.
func NewRAMMNameFilter(caseInsensitive bool) NameFilter {
	return NameFilter{
		Field:           RAMMNameField,
		Terms:           RAMMNameTerms,
		CaseInsensitive: caseInsensitive,
	}
}

// Match reports whether r passes the filter.
func (f NameFilter) Match(r RawRecord) bool {
	v, ok := r.Lookup(f.Field)
	if !ok {
		return false
	}
	name, ok := v.(string)
	if !ok {
		return false
	}
	if f.CaseInsensitive {
		fold := cases.Fold()
		name = fold.String(name)
		for _, term := range f.Terms {
			if strings.Contains(name, fold.String(term)) {
				return true
			}
		}
		return false
	}
	for _, term := range f.Terms {
		if strings.Contains(name, term) {
			return true
		}
	}
	return false
}

// Filter adapts Match to the Filter type.
func (f NameFilter) Filter() Filter { return f.Match }
