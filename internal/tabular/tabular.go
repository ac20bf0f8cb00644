// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tabular reads and writes the merged specimen table as CSV or JSON.
package tabular

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/pdiddy/ukentomology/internal/normalize"
	"github.com/pdiddy/ukentomology/pkg/types"
)

// Encoding names a CSV character encoding.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf-8"
	EncodingLatin1 Encoding = "latin-1"
)

// ParseEncoding accepts the usual spellings of the supported encodings.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "utf-8", "utf8":
		return EncodingUTF8, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return EncodingLatin1, nil
	}
	return "", fmt.Errorf("unsupported encoding %q (want utf-8 or latin-1)", s)
}

// ErrUnknownEncoding is returned for an Encoding value ParseEncoding would
// not produce.
var ErrUnknownEncoding = errors.New("unknown encoding")

func encoder(w io.Writer, enc Encoding) (io.Writer, error) {
	switch enc {
	case "", EncodingUTF8:
		return w, nil
	case EncodingLatin1:
		// Characters outside Latin-1 become the charmap replacement byte.
		return transform.NewWriter(w, encoding.ReplaceUnsupported(charmap.ISO8859_1.NewEncoder())), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
}

func decoder(r io.Reader, enc Encoding) (io.Reader, error) {
	switch enc {
	case "", EncodingUTF8:
		return r, nil
	case EncodingLatin1:
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, enc)
}

// WriteCSV writes the table with a header row of its columns. The table must
// carry the canonical columns.
func WriteCSV(w io.Writer, t types.Table, enc Encoding) error {
	if !t.HasCanonicalColumns() {
		return &normalize.SchemaMismatchError{Left: t.Columns, Right: types.Columns(), Reason: "table columns are not canonical"}
	}
	out, err := encoder(w, enc)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range t.Rows {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	if c, ok := out.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ReadCSV reads a table written by WriteCSV. The header must be exactly the
// canonical column list and every row must name a known institution.
func ReadCSV(r io.Reader, enc Encoding) (types.Table, error) {
	in, err := decoder(r, enc)
	if err != nil {
		return types.Table{}, err
	}

	cr := csv.NewReader(in)
	header, err := cr.Read()
	if err == io.EOF {
		return types.Table{}, &normalize.SchemaMismatchError{Right: types.Columns(), Reason: "csv has no header row"}
	}
	if err != nil {
		return types.Table{}, fmt.Errorf("reading header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !types.SameColumns(header, types.Columns()) {
		return types.Table{}, &normalize.SchemaMismatchError{Left: header, Right: types.Columns()}
	}

	t := types.NewTable()
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return types.Table{}, fmt.Errorf("reading csv: %w", err)
		}
		s, err := types.SpecimenFromValues(rec)
		if err != nil {
			return types.Table{}, fmt.Errorf("line %d: %w", line, err)
		}
		t.Rows = append(t.Rows, s)
	}
	return t, nil
}

// WriteJSON writes the rows as an indented JSON array of objects whose keys
// follow canonical column order. An empty table is written as [].
func WriteJSON(w io.Writer, t types.Table) error {
	rows := t.Rows
	if rows == nil {
		rows = []types.Specimen{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// Shape returns the table's row and column counts.
func Shape(t types.Table) (rows, cols int) {
	return t.Len(), len(t.Columns)
}
