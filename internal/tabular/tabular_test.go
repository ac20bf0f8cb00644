// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tabular

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ukentomology/internal/normalize"
	"github.com/pdiddy/ukentomology/pkg/types"
)

func sampleTable() types.Table {
	t := types.NewTable()
	t.Rows = []types.Specimen{
		{
			Institution:    types.InstitutionLMNH,
			ID:             "4471002",
			Order:          "Lepidoptera",
			Family:         "Nymphalidae",
			Genus:          "Aglais",
			ScientificName: "Aglais io",
			CountryOrigin:  "Europe; United Kingdom; England",
			Description:    "1911",
		},
		{
			Institution:    types.InstitutionRAMM,
			ID:             "RAMM-3",
			Order:          "Lepidoptera",
			Family:         "Erebidae",
			Genus:          "Arctia",
			ScientificName: "Arctia ",
			CountryOrigin:  "Côte d'Ivoire",
			Description:    "Tiger moth, \"pinned\"\nset by hand",
		},
	}
	return t
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"", EncodingUTF8, false},
		{"UTF-8", EncodingUTF8, false},
		{"utf8", EncodingUTF8, false},
		{"latin-1", EncodingLatin1, false},
		{"ISO-8859-1", EncodingLatin1, false},
		{"latin1", EncodingLatin1, false},
		{"cp1252", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseEncoding(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCSVRoundTrip(t *testing.T) {
	for _, enc := range []Encoding{EncodingUTF8, EncodingLatin1} {
		t.Run(string(enc), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, sampleTable(), enc))

			got, err := ReadCSV(&buf, enc)
			require.NoError(t, err)
			assert.Equal(t, sampleTable(), got)
		})
	}
}

func TestWriteCSV_Header(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, types.NewTable(), EncodingUTF8))
	assert.Equal(t, "institution,id,order,family,genus,scientificName,countryOrigin,description\n", buf.String())
}

func TestWriteCSV_Latin1Bytes(t *testing.T) {
	tbl := types.NewTable()
	tbl.Rows = []types.Specimen{{Institution: types.InstitutionRAMM, CountryOrigin: "Côte"}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tbl, EncodingLatin1))
	assert.Contains(t, buf.String(), "C\xf4te")
	assert.NotContains(t, buf.String(), "Côte")
}

func TestWriteCSV_NonCanonicalColumns(t *testing.T) {
	tbl := types.Table{Columns: []string{"id"}}
	err := WriteCSV(&bytes.Buffer{}, tbl, EncodingUTF8)
	assert.True(t, errors.Is(err, normalize.ErrSchemaMismatch))
}

func TestReadCSV_Errors(t *testing.T) {
	header := strings.Join(types.Columns(), ",") + "\n"
	tests := []struct {
		name       string
		input      string
		wantSchema bool
	}{
		{"empty input", "", true},
		{"wrong header", "id,institution\n1,LMNH\n", true},
		{"reordered header", "id,institution,order,family,genus,scientificName,countryOrigin,description\n", true},
		{"unknown institution", header + "NHM,1,,,,,,\n", false},
		{"short row", header + "LMNH,1\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input), EncodingUTF8)
			require.Error(t, err)
			assert.Equal(t, tt.wantSchema, errors.Is(err, normalize.ErrSchemaMismatch))
		})
	}
}

func TestReadCSV_StripsBOM(t *testing.T) {
	input := "\ufeff" + strings.Join(types.Columns(), ",") + "\nLMNH,1,Lepidoptera,,,,,\n"
	got, err := ReadCSV(strings.NewReader(input), EncodingUTF8)
	require.NoError(t, err)
	require.Equal(t, 1, got.Len())
	assert.Equal(t, "1", got.Rows[0].ID)
}

func TestUnknownEncoding(t *testing.T) {
	err := WriteCSV(&bytes.Buffer{}, types.NewTable(), Encoding("ebcdic"))
	assert.ErrorIs(t, err, ErrUnknownEncoding)
	_, err = ReadCSV(strings.NewReader(""), Encoding("ebcdic"))
	assert.ErrorIs(t, err, ErrUnknownEncoding)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleTable()))

	var rows []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "LMNH", rows[0]["institution"])
	assert.Equal(t, "Arctia ", rows[1]["scientificName"])

	// Keys appear in canonical column order.
	first := buf.String()
	prev := -1
	for _, col := range types.Columns() {
		idx := strings.Index(first, `"`+col+`"`)
		require.Greater(t, idx, prev, col)
		prev = idx
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, types.NewTable()))
	assert.Equal(t, "[]\n", buf.String())
}

func TestShape(t *testing.T) {
	rows, cols := Shape(sampleTable())
	assert.Equal(t, 2, rows)
	assert.Equal(t, 8, cols)
}
