// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrMalformedResponse indicates a payload without a list of entries at
	// the expected path. It fails the whole source.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrMalformedRecord indicates a single entry that could not be mapped.
	// The entry is dropped and the source keeps going.
	ErrMalformedRecord = errors.New("malformed record")

	// ErrSchemaMismatch indicates two tables that cannot be merged. It means
	// an upstream stage is broken and is never recovered.
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// MalformedResponseError reports a payload whose entry list is missing or
// is not a list.
type MalformedResponseError struct {
	Source string
	Path   []string
	Reason string
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response at %q: %s", e.Source, strings.Join(e.Path, "."), e.Reason)
}

// Is implements errors.Is support.
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// RecordError reports one entry dropped from a source.
type RecordError struct {
	Source string
	Index  int
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: entry %d: field %q: %s", e.Source, e.Index, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: entry %d: %s", e.Source, e.Index, e.Reason)
}

// Is implements errors.Is support.
func (e *RecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

// SchemaMismatchError reports tables whose columns or rows break the
// canonical schema at merge time.
type SchemaMismatchError struct {
	Left   []string
	Right  []string
	Reason string
}

// Error implements the error interface.
func (e *SchemaMismatchError) Error() string {
	if e.Reason != "" {
		return "schema mismatch: " + e.Reason
	}
	return fmt.Sprintf("schema mismatch: columns %v vs %v", e.Left, e.Right)
}

// Is implements errors.Is support.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}
