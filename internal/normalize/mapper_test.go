// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ukentomology/pkg/types"
)

func TestMapLMNH(t *testing.T) {
	d, err := MapLMNH(raw(map[string]any{
		"_id":             "NHMUK01",
		"order":           "Lepidoptera",
		"family":          "Nymphalidae",
		"genus":           "Vanessa",
		"scientificName":  "Vanessa atalanta",
		"higherGeography": "England",
		"year":            "1923",
	}))
	require.NoError(t, err)

	assert.Equal(t, types.Specimen{
		Institution:    types.InstitutionLMNH,
		ID:             "NHMUK01",
		Order:          "Lepidoptera",
		Family:         "Nymphalidae",
		Genus:          "Vanessa",
		ScientificName: "Vanessa atalanta",
		CountryOrigin:  "England",
		Description:    "1923",
	}, d.Specimen)
	assert.Empty(t, d.Extra)
}

func TestMapLMNH_MissingFieldsStayEmpty(t *testing.T) {
	d, err := MapLMNH(raw(map[string]any{"_id": json.Number("17")}))
	require.NoError(t, err)
	assert.Equal(t, types.Specimen{Institution: types.InstitutionLMNH, ID: "17"}, d.Specimen)
}

func TestMapRAMM(t *testing.T) {
	d, err := MapRAMM(raw(map[string]any{
		"id":                 "RAMM-1",
		"order":              "Coleoptera",
		"scientificName":     "ignored",
		"family":             nil,
		"full-name":          "Peacock butterfly",
		"genus":              "Aglais",
		"species":            "io",
		"simple-name":        "peacock butterfly",
		"collection-country": "UK",
	}))
	require.NoError(t, err)

	assert.Equal(t, types.Specimen{
		Institution:   types.InstitutionRAMM,
		ID:            "RAMM-1",
		Order:         RAMMOrder,
		Genus:         "Aglais",
		CountryOrigin: "UK",
	}, d.Specimen)
	assert.Equal(t, map[string]string{
		RAMMSpeciesField:  "io",
		RAMMFullNameField: "Peacock butterfly",
	}, d.Extra)
}

func TestMapper_NonScalarFieldIsRecordError(t *testing.T) {
	tests := []struct {
		name   string
		mapper Mapper
		field  string
		source string
	}{
		{"LMNH year object", MapLMNH, "year", "LMNH"},
		{"RAMM country list", MapRAMM, "collection-country", "RAMM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RawRecord{Index: 9, Fields: map[string]any{tt.field: []any{"a", "b"}}}
			_, err := tt.mapper(r)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedRecord)

			var re *RecordError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.source, re.Source)
			assert.Equal(t, 9, re.Index)
			assert.Equal(t, tt.field, re.Field)
		})
	}
}

func TestMapRAMM_IgnoresUnusedNonScalarFields(t *testing.T) {
	_, err := MapRAMM(raw(map[string]any{
		"id":     "RAMM-9",
		"images": []any{map[string]any{"url": "x"}},
	}))
	assert.NoError(t, err)
}
