// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "github.com/pdiddy/ukentomology/pkg/types"

// Source bundles the per-source stages. LMNH and RAMM differ in every stage
// except projection; they share no filter or resolver logic.
type Source struct {
	Institution types.Institution
	EntryPath   []string
	Filter      Filter
	Map         Mapper
	Resolve     Resolver
}

// Entry paths inside each source's decoded response.
var (
	LMNHEntryPath = []string{"result", "records"}
	RAMMEntryPath = []string{"data"}
)

// LMNH returns the pipeline for NHM data portal datastore_search responses.
func LMNH() Source {
	return Source{
		Institution: types.InstitutionLMNH,
		EntryPath:   LMNHEntryPath,
		Filter:      AcceptAll,
		Map:         MapLMNH,
		Resolve:     ResolveNone,
	}
}

// RAMM returns the pipeline for South West Collections Explorer object
// listings. caseInsensitive controls the butterfly/moth name match.
func RAMM(caseInsensitive bool) Source {
	return Source{
		Institution: types.InstitutionRAMM,
		EntryPath:   RAMMEntryPath,
		Filter:      NewRAMMNameFilter(caseInsensitive).Filter(),
		Map:         MapRAMM,
		Resolve:     ResolveRAMM,
	}
}

// SourceReport describes one source's pass through the pipeline.
type SourceReport struct {
	Source types.Institution `json:"source" yaml:"source"`

	// Read is the number of elements in the payload's entry list.
	Read int `json:"read" yaml:"read"`

	// Skipped counts list elements that were not objects.
	Skipped int `json:"skipped" yaml:"skipped"`

	// Excluded counts entries rejected by the filter.
	Excluded int `json:"excluded" yaml:"excluded"`

	// Dropped counts entries that passed the filter but could not be mapped.
	Dropped int `json:"dropped" yaml:"dropped"`

	// Rows is the number of rows this source contributed.
	Rows int `json:"rows" yaml:"rows"`

	Derivations `yaml:",inline"`

	// Error is the message of Err, kept for serialized reports.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// RecordErrors lists every skipped or dropped entry.
	RecordErrors []*RecordError `json:"-" yaml:"-"`

	// Err is set when the whole source failed.
	Err error `json:"-" yaml:"-"`
}

// Failed reports whether the source contributed nothing because of an error.
// Reports read back from a manifest only carry Error.
func (r SourceReport) Failed() bool { return r.Err != nil || r.Error != "" }

// Normalize runs payload through the source's reader, filter, mapper,
// resolver and projector. A structural error fails the source and returns an
// empty canonical table with it; per-entry errors are only counted.
func (s Source) Normalize(payload any) (types.Table, SourceReport, error) {
	report := SourceReport{Source: s.Institution}

	batch, err := ReadEntries(string(s.Institution), payload, s.EntryPath...)
	if err != nil {
		report.Err = err
		report.Error = err.Error()
		return types.NewTable(), report, err
	}
	report.Read = len(batch.Records) + len(batch.Skipped)
	report.Skipped = len(batch.Skipped)
	report.RecordErrors = append(report.RecordErrors, batch.Skipped...)

	drafts := make([]Draft, 0, len(batch.Records))
	for _, raw := range batch.Records {
		if !s.Filter(raw) {
			report.Excluded++
			continue
		}
		d, err := s.Map(raw)
		if err != nil {
			report.Dropped++
			if re, ok := err.(*RecordError); ok {
				report.RecordErrors = append(report.RecordErrors, re)
			} else {
				report.RecordErrors = append(report.RecordErrors, &RecordError{
					Source: string(s.Institution),
					Index:  raw.Index,
					Reason: err.Error(),
				})
			}
			continue
		}
		d, stats := s.Resolve(d)
		report.Derivations.Add(stats)
		drafts = append(drafts, d)
	}

	table := ProjectAll(drafts)
	report.Rows = table.Len()
	return table, report, nil
}
