// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/ukentomology/internal/logging"
	"github.com/pdiddy/ukentomology/pkg/types"
)

func quietCtx() context.Context {
	return logging.WithLogger(context.Background(), &logging.Nop)
}

func standardInputs(t *testing.T) []Input {
	t.Helper()
	return []Input{
		{Source: LMNH(), Payload: decode(t, lmnhPayloadJSON)},
		{Source: RAMM(false), Payload: decode(t, rammPayloadJSON)},
	}
}

func TestRun_MergesBothSources(t *testing.T) {
	res, err := Run(quietCtx(), standardInputs(t), Options{})
	require.NoError(t, err)

	assert.Equal(t, types.Columns(), res.Table.Columns)
	require.Len(t, res.Table.Rows, 4)

	assert.Equal(t, types.Specimen{
		Institution:    types.InstitutionLMNH,
		ID:             "NHMUK01",
		Order:          "Lepidoptera",
		Family:         "Nymphalidae",
		Genus:          "Vanessa",
		ScientificName: "Vanessa atalanta",
		CountryOrigin:  "England",
		Description:    "1923",
	}, res.Table.Rows[0])

	assert.Equal(t, types.Specimen{
		Institution:    types.InstitutionLMNH,
		ID:             "4471002",
		Order:          "Lepidoptera",
		Family:         "Sphingidae",
		Genus:          "Hyles",
		ScientificName: "",
		CountryOrigin:  "Europe; France",
		Description:    "1911",
	}, res.Table.Rows[1])

	assert.Equal(t, types.Specimen{
		Institution:    types.InstitutionRAMM,
		ID:             "RAMM-1",
		Order:          "Lepidoptera",
		Family:         "Peacock butterfly",
		Genus:          "Aglais",
		ScientificName: "Aglais io",
		CountryOrigin:  "UK",
	}, res.Table.Rows[2])

	assert.Equal(t, types.Specimen{
		Institution:    types.InstitutionRAMM,
		ID:             "RAMM-3",
		Order:          "Lepidoptera",
		Family:         "Erebidae",
		Genus:          "Arctia",
		ScientificName: "Arctia ",
		CountryOrigin:  "France",
		Description:    "Bred from larva",
	}, res.Table.Rows[3])
}

func TestRun_Reports(t *testing.T) {
	res, err := Run(quietCtx(), standardInputs(t), Options{})
	require.NoError(t, err)
	require.Len(t, res.Reports, 2)

	lmnh, ramm := res.Reports[0], res.Reports[1]
	assert.Equal(t, types.InstitutionLMNH, lmnh.Source)
	assert.Equal(t, 2, lmnh.Read)
	assert.Equal(t, 0, lmnh.Excluded)
	assert.Equal(t, 2, lmnh.Rows)

	assert.Equal(t, types.InstitutionRAMM, ramm.Source)
	assert.Equal(t, 4, ramm.Read)
	assert.Equal(t, 2, ramm.Excluded, "beetle and the entry without simple-name")
	assert.Equal(t, 2, ramm.Rows)
	assert.Equal(t, 1, ramm.FamilyBackfilled)
	assert.Equal(t, 2, ramm.NamesDerived)
	assert.Equal(t, 1, ramm.LenientNames)
	assert.Empty(t, res.FailedSources())
}

func TestRun_RowCountLaw(t *testing.T) {
	res, err := Run(quietCtx(), standardInputs(t), Options{})
	require.NoError(t, err)

	total := 0
	for _, rep := range res.Reports {
		assert.Equal(t, rep.Read, rep.Skipped+rep.Excluded+rep.Dropped+rep.Rows)
		total += rep.Rows
	}
	assert.Equal(t, total, res.Table.Len())
}

func TestRun_InstitutionInvariant(t *testing.T) {
	res, err := Run(quietCtx(), standardInputs(t), Options{})
	require.NoError(t, err)
	for _, row := range res.Table.Rows {
		assert.True(t, row.Institution.Valid(), "row %+v", row)
	}
}

func TestRun_DeterministicOutput(t *testing.T) {
	first, err := Run(quietCtx(), standardInputs(t), Options{})
	require.NoError(t, err)
	second, err := Run(quietCtx(), standardInputs(t), Options{Parallel: true})
	require.NoError(t, err)

	a, err := json.Marshal(first.Table)
	require.NoError(t, err)
	b, err := json.Marshal(second.Table)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_EmptyEntryLists(t *testing.T) {
	tests := []struct {
		name     string
		lmnh     string
		ramm     string
		wantRows int
		first    types.Institution
	}{
		{"LMNH empty", `{"result": {"records": []}}`, rammPayloadJSON, 2, types.InstitutionRAMM},
		{"RAMM empty", lmnhPayloadJSON, `{"data": []}`, 2, types.InstitutionLMNH},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(quietCtx(), []Input{
				{Source: LMNH(), Payload: decode(t, tt.lmnh)},
				{Source: RAMM(false), Payload: decode(t, tt.ramm)},
			}, Options{})
			require.NoError(t, err)
			require.Len(t, res.Table.Rows, tt.wantRows)
			assert.Equal(t, tt.first, res.Table.Rows[0].Institution)
			assert.Empty(t, res.FailedSources())
		})
	}
}

func TestRun_BothEmpty(t *testing.T) {
	res, err := Run(quietCtx(), []Input{
		{Source: LMNH(), Payload: decode(t, `{"result": {"records": []}}`)},
		{Source: RAMM(false), Payload: decode(t, `{"data": []}`)},
	}, Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Table.Rows)
	assert.Equal(t, types.Columns(), res.Table.Columns)
}

func TestRun_PartialPolicy(t *testing.T) {
	res, err := Run(quietCtx(), []Input{
		{Source: LMNH(), Payload: decode(t, lmnhPayloadJSON)},
		{Source: RAMM(false), Payload: decode(t, `{"message": "Unauthenticated."}`)},
	}, Options{Policy: types.PolicyPartial})
	require.NoError(t, err)

	assert.Len(t, res.Table.Rows, 2)
	assert.Equal(t, []types.Institution{types.InstitutionRAMM}, res.FailedSources())
	assert.ErrorIs(t, res.Reports[1].Err, ErrMalformedResponse)
	assert.NotEmpty(t, res.Reports[1].Error)
	assert.Equal(t, 0, res.Reports[1].Rows)
}

func TestRun_DefaultPolicyIsPartial(t *testing.T) {
	fetchErr := errors.New("connection refused")
	res, err := Run(quietCtx(), []Input{
		{Source: LMNH(), Err: fetchErr},
		{Source: RAMM(false), Payload: decode(t, rammPayloadJSON)},
	}, Options{})
	require.NoError(t, err)
	assert.Len(t, res.Table.Rows, 2)
	assert.ErrorIs(t, res.Reports[0].Err, fetchErr)
	assert.Equal(t, "connection refused", res.Reports[0].Error)
}

func TestRun_AbortPolicy(t *testing.T) {
	fetchErr := errors.New("status 401")
	tests := []struct {
		name    string
		inputs  []Input
		wantSrc types.Institution
		wantIs  error
	}{
		{
			"malformed payload",
			[]Input{
				{Source: LMNH(), Payload: decode(t, `{"result": {}}`)},
				{Source: RAMM(false), Payload: decode(t, rammPayloadJSON)},
			},
			types.InstitutionLMNH,
			ErrMalformedResponse,
		},
		{
			"fetch error",
			[]Input{
				{Source: LMNH(), Payload: decode(t, lmnhPayloadJSON)},
				{Source: RAMM(false), Err: fetchErr},
			},
			types.InstitutionRAMM,
			fetchErr,
		},
	}
	for _, tt := range tests {
		for _, parallel := range []bool{false, true} {
			_, err := Run(quietCtx(), tt.inputs, Options{Policy: types.PolicyAbort, Parallel: parallel})
			require.Error(t, err, tt.name)
			assert.ErrorIs(t, err, tt.wantIs, tt.name)

			var se *SourceError
			require.True(t, errors.As(err, &se), tt.name)
			assert.Equal(t, tt.wantSrc, se.Source, tt.name)
		}
	}
}

func TestRun_DropsMalformedEntriesAndContinues(t *testing.T) {
	payload := `{"data": [
		{"id": "ok", "simple-name": "moth", "genus": "Arctia", "species": "caja"},
		{"id": "bad", "simple-name": "moth", "genus": {"name": "Arctia"}},
		"not an object",
		{"id": "ok2", "simple-name": "butterfly", "genus": "Aglais", "species": "io"}
	]}`
	res, err := Run(quietCtx(), []Input{
		{Source: LMNH(), Payload: decode(t, `{"result": {"records": []}}`)},
		{Source: RAMM(false), Payload: decode(t, payload)},
	}, Options{})
	require.NoError(t, err)

	rep := res.Reports[1]
	assert.Equal(t, 4, rep.Read)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, rep.Dropped)
	assert.Equal(t, 2, rep.Rows)
	require.Len(t, rep.RecordErrors, 2)
	assert.Equal(t, 2, rep.RecordErrors[0].Index)
	assert.Equal(t, 1, rep.RecordErrors[1].Index)
	assert.Equal(t, "genus", rep.RecordErrors[1].Field)

	require.Len(t, res.Table.Rows, 2)
	assert.Equal(t, "ok", res.Table.Rows[0].ID)
	assert.Equal(t, "ok2", res.Table.Rows[1].ID)
}

func TestRun_CaseInsensitiveRAMM(t *testing.T) {
	payload := `{"data": [{"id": "1", "simple-name": "Small Tortoiseshell Butterfly"}]}`
	sensitive, err := Run(quietCtx(), []Input{{Source: RAMM(false), Payload: decode(t, payload)}}, Options{})
	require.NoError(t, err)
	assert.Empty(t, sensitive.Table.Rows)

	insensitive, err := Run(quietCtx(), []Input{{Source: RAMM(true), Payload: decode(t, payload)}}, Options{})
	require.NoError(t, err)
	assert.Len(t, insensitive.Table.Rows, 1)
}

func TestRun_Validation(t *testing.T) {
	_, err := Run(quietCtx(), nil, Options{})
	assert.Error(t, err)

	_, err = Run(quietCtx(), standardInputs(t), Options{Policy: "retry"})
	assert.Error(t, err)
}

func TestSourceReportFailed(t *testing.T) {
	tests := []struct {
		name string
		rep  SourceReport
		want bool
	}{
		{"ok", SourceReport{Rows: 3}, false},
		{"live error", SourceReport{Err: ErrMalformedResponse, Error: "malformed response"}, true},
		{"reloaded from manifest", SourceReport{Error: "malformed response"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rep.Failed())
		})
	}
}
