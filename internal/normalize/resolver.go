// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

// Derivations counts what a resolver filled in for one or more drafts.
type Derivations struct {
	// FamilyBackfilled counts families taken from the full-name field.
	FamilyBackfilled int `json:"family_backfilled" yaml:"family_backfilled"`

	// NamesDerived counts scientific names built from genus and species.
	NamesDerived int `json:"names_derived" yaml:"names_derived"`

	// LenientNames counts derived names where genus or species was missing
	// and an empty string stood in for it.
	LenientNames int `json:"lenient_names" yaml:"lenient_names"`
}

// Add accumulates o into d.
func (d *Derivations) Add(o Derivations) {
	d.FamilyBackfilled += o.FamilyBackfilled
	d.NamesDerived += o.NamesDerived
	d.LenientNames += o.LenientNames
}

// Resolver fills canonical fields the Mapper left empty. Applying a resolver
// to its own output changes nothing.
type Resolver func(Draft) (Draft, Derivations)

// ResolveNone is the LMNH resolver: portal records are used as mapped.
func ResolveNone(d Draft) (Draft, Derivations) { return d, Derivations{} }

// ResolveRAMM backfills family from full-name and derives scientificName as
// "genus species".
func ResolveRAMM(d Draft) (Draft, Derivations) {
	var stats Derivations

	if d.Specimen.Family == "" {
		if full := d.Extra[RAMMFullNameField]; full != "" {
			d.Specimen.Family = full
			stats.FamilyBackfilled++
		}
	}

	if d.Specimen.ScientificName == "" {
		genus := d.Specimen.Genus
		species := d.Extra[RAMMSpeciesField]
		if genus == "" || species == "" {
			stats.LenientNames++
		}
		d.Specimen.ScientificName = genus + " " + species
		stats.NamesDerived++
	}

	return d, stats
}
