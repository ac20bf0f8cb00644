// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns the LMNH and RAMM source payloads into one
// canonical specimen table.
//
// Each source runs reader → filter → mapper → resolver → projector on its
// own; the two results meet only in Merge. Every stage is a pure function
// over the previous stage's output, so stages can be tested in isolation and
// a run over the same payloads always yields the same table.
package normalize

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/ukentomology/internal/logging"
	"github.com/pdiddy/ukentomology/pkg/types"
)

// Input is one source payload handed over by the fetch layer. Err carries a
// failure from whatever produced Payload; under PolicyPartial that source is
// treated exactly like one with a malformed payload.
type Input struct {
	Source  Source
	Payload any
	Err     error
}

// Options controls a Run.
type Options struct {
	// Policy defaults to types.PolicyPartial.
	Policy types.FailurePolicy

	// Parallel runs each source pipeline on its own goroutine.
	Parallel bool
}

// Result is the merged table plus one report per input, in input order.
type Result struct {
	Table   types.Table    `json:"table" yaml:"-"`
	Reports []SourceReport `json:"reports" yaml:"reports"`
}

// FailedSources returns the institutions whose pipeline failed.
func (r Result) FailedSources() []types.Institution {
	var out []types.Institution
	for _, rep := range r.Reports {
		if rep.Failed() {
			out = append(out, rep.Source)
		}
	}
	return out
}

// SourceError wraps the failure of one source under PolicyAbort.
type SourceError struct {
	Source types.Institution
	Err    error
}

func (e *SourceError) Error() string { return fmt.Sprintf("source %s: %v", e.Source, e.Err) }

func (e *SourceError) Unwrap() error { return e.Err }

type sourceOutput struct {
	table  types.Table
	report SourceReport
}

// Run normalizes every input and merges the results in input order.
//
// Under PolicyPartial a failed source contributes an empty table and its
// error is kept in its report; the run still succeeds. Under PolicyAbort the
// first failed source (in input order) is returned as a *SourceError. A
// schema mismatch in Merge is always returned.
func Run(ctx context.Context, inputs []Input, opts Options) (Result, error) {
	log := logging.FromContext(ctx)

	if len(inputs) == 0 {
		return Result{}, errors.New("no sources to normalize")
	}
	policy := opts.Policy
	if policy == "" {
		policy = types.PolicyPartial
	}
	if !policy.Valid() {
		return Result{}, fmt.Errorf("unknown failure policy %q", policy)
	}

	outputs := make([]sourceOutput, len(inputs))
	runOne := func(i int) {
		in := inputs[i]
		if in.Err != nil {
			outputs[i] = sourceOutput{
				table: types.NewTable(),
				report: SourceReport{
					Source: in.Source.Institution,
					Err:    in.Err,
					Error:  in.Err.Error(),
				},
			}
			return
		}
		table, report, _ := in.Source.Normalize(in.Payload)
		outputs[i] = sourceOutput{table: table, report: report}
	}

	if opts.Parallel {
		var g errgroup.Group
		for i := range inputs {
			g.Go(func() error {
				runOne(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range inputs {
			runOne(i)
		}
	}

	result := Result{Reports: make([]SourceReport, len(outputs))}
	merged := types.NewTable()
	for i, out := range outputs {
		rep := out.report
		result.Reports[i] = rep

		for _, re := range rep.RecordErrors {
			log.Debug().Str("source", string(rep.Source)).Int("entry", re.Index).
				Str("field", re.Field).Msg("dropped entry: " + re.Reason)
		}

		if rep.Failed() {
			if policy == types.PolicyAbort {
				return Result{}, &SourceError{Source: rep.Source, Err: rep.Err}
			}
			log.Warn().Err(rep.Err).Str("source", string(rep.Source)).
				Msg("source failed, continuing with no rows from it")
		} else {
			log.Info().Str("source", string(rep.Source)).
				Int("read", rep.Read).
				Int("excluded", rep.Excluded).
				Int("dropped", rep.Dropped+rep.Skipped).
				Int("rows", rep.Rows).
				Msg("source normalized")
			if rep.LenientNames > 0 {
				log.Warn().Str("source", string(rep.Source)).Int("count", rep.LenientNames).
					Msg("scientific names derived with missing genus or species")
			}
		}

		var err error
		merged, err = Merge(merged, out.table)
		if err != nil {
			return Result{}, fmt.Errorf("merging %s: %w", rep.Source, err)
		}
	}
	result.Table = merged
	return result, nil
}
