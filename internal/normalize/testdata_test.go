// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// --- test helpers ---

// decode parses JSON the way the fetch layer does, with json.Number values.
func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func raw(fields map[string]any) RawRecord {
	return RawRecord{Fields: fields}
}

const lmnhPayloadJSON = `{
  "success": true,
  "result": {
    "total": 2,
    "records": [
      {
        "_id": "NHMUK01",
        "order": "Lepidoptera",
        "family": "Nymphalidae",
        "genus": "Vanessa",
        "scientificName": "Vanessa atalanta",
        "higherGeography": "England",
        "year": "1923",
        "catalogNumber": "BMNH(E) 1234"
      },
      {
        "_id": 4471002,
        "order": "Lepidoptera",
        "family": "Sphingidae",
        "genus": "Hyles",
        "scientificName": null,
        "higherGeography": "Europe; France",
        "year": 1911
      }
    ]
  }
}`

const rammPayloadJSON = `{
  "data": [
    {
      "id": "RAMM-1",
      "family": null,
      "full-name": "Peacock butterfly",
      "genus": "Aglais",
      "species": "io",
      "simple-name": "peacock butterfly",
      "collection-country": "UK"
    },
    {
      "id": "RAMM-2",
      "family": "Carabidae",
      "genus": "Carabus",
      "species": "violaceus",
      "simple-name": "beetle",
      "collection-country": "UK"
    },
    {
      "id": "RAMM-3",
      "family": "Erebidae",
      "genus": "Arctia",
      "species": null,
      "simple-name": "garden tiger moth",
      "collection-country": "France",
      "description": "Bred from larva"
    },
    {
      "id": "RAMM-4",
      "genus": "Pieris",
      "species": "brassicae"
    }
  ]
}`
