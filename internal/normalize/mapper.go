// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "github.com/pdiddy/ukentomology/pkg/types"

// Draft is a specimen between the Mapper and the Projector. Extra carries
// source-only fields that resolver rules read; the Projector drops them.
type Draft struct {
	Specimen types.Specimen
	Extra    map[string]string
}

// Mapper converts one raw entry into a Draft. An error means the entry is
// dropped; it is always a *RecordError.
type Mapper func(RawRecord) (Draft, error)

// RAMMOrder is the order assigned to every RAMM specimen. The RAMM name
// filter only admits butterflies and moths.
const RAMMOrder = "Lepidoptera"

// Source-only RAMM fields consumed by the resolver.
const (
	RAMMSpeciesField  = "species"
	RAMMFullNameField = "full-name"
)

type fieldRule struct {
	from string
	set  func(*Draft, string)
}

func toID(d *Draft, v string)             { d.Specimen.ID = v }
func toOrder(d *Draft, v string)          { d.Specimen.Order = v }
func toFamily(d *Draft, v string)         { d.Specimen.Family = v }
func toGenus(d *Draft, v string)          { d.Specimen.Genus = v }
func toScientificName(d *Draft, v string) { d.Specimen.ScientificName = v }
func toCountryOrigin(d *Draft, v string)  { d.Specimen.CountryOrigin = v }
func toDescription(d *Draft, v string)    { d.Specimen.Description = v }

func toExtra(name string) func(*Draft, string) {
	return func(d *Draft, v string) { d.Extra[name] = v }
}

var lmnhRules = []fieldRule{
	{"_id", toID},
	{"order", toOrder},
	{"family", toFamily},
	{"genus", toGenus},
	{"scientificName", toScientificName},
	{"higherGeography", toCountryOrigin},
	{"year", toDescription},
}

// RAMM's own "order" and "scientificName" fields are deliberately absent:
// order is fixed and scientificName is derived by the resolver.
var rammRules = []fieldRule{
	{"id", toID},
	{"family", toFamily},
	{"genus", toGenus},
	{"collection-country", toCountryOrigin},
	{"description", toDescription},
	{RAMMSpeciesField, toExtra(RAMMSpeciesField)},
	{RAMMFullNameField, toExtra(RAMMFullNameField)},
}

func applyRules(inst types.Institution, r RawRecord, rules []fieldRule) (Draft, error) {
	d := Draft{
		Specimen: types.Specimen{Institution: inst},
		Extra:    map[string]string{},
	}
	for _, rule := range rules {
		v, err := r.Text(rule.from)
		if err != nil {
			return Draft{}, &RecordError{
				Source: string(inst),
				Index:  r.Index,
				Field:  rule.from,
				Reason: err.Error(),
			}
		}
		rule.set(&d, v)
	}
	return d, nil
}

// MapLMNH renames NHM portal fields into the canonical schema.
func MapLMNH(r RawRecord) (Draft, error) {
	return applyRules(types.InstitutionLMNH, r, lmnhRules)
}

// MapRAMM renames RAMM object fields into the canonical schema, fixes the
// order and leaves scientificName empty for the resolver.
func MapRAMM(r RawRecord) (Draft, error) {
	d, err := applyRules(types.InstitutionRAMM, r, rammRules)
	if err != nil {
		return Draft{}, err
	}
	d.Specimen.Order = RAMMOrder
	d.Specimen.ScientificName = ""
	return d, nil
}
