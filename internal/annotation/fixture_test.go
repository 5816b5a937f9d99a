package annotation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"dictionary-annotator/internal/vocab"
)

const (
	varParticipant = "nb:ParticipantID"
	varAge         = "nb:Age"
	varDiagnosis   = "nb:Diagnosis"
	varSideOfOnset = "nb:SideOfOnset"
	varAssessment  = "nb:Assessment"

	termPD      = "snomed:49049000"
	termAD      = "snomed:26929004"
	termHC      = "ncit:C94342"
	termMoCA    = "cogatlas:trm_moca"
	termUPDRS   = "cogatlas:trm_updrs"
	formatFloat = "nb:FromFloat"
)

func testConfig(t *testing.T) *vocab.Config {
	t.Helper()

	cfg, err := vocab.NewConfig("test",
		[]vocab.StandardizedVariable{
			{Identifier: varParticipant, Label: "Participant ID", Identifies: "participant", Required: true},
			{Identifier: varAge, Label: "Age", DataType: vocab.DataTypeContinuous},
			{Identifier: varDiagnosis, Label: "Diagnosis", DataType: vocab.DataTypeCategorical},
			{Identifier: varSideOfOnset, Label: "Side of onset", DataType: vocab.DataTypeCategorical},
			{Identifier: varAssessment, Label: "Assessment Tool", IsMultiColumnMeasure: true, CanHaveMultipleColumns: true},
		},
		map[string][]vocab.Term{
			varDiagnosis: {
				{Identifier: termPD, Label: "Parkinson's disease"},
				{Identifier: termAD, Label: "Alzheimer's disease"},
				{Identifier: termHC, Label: "Healthy Control"},
			},
			varSideOfOnset: {
				{Identifier: "somterm", Label: "Side of onset"},
				{Identifier: "anotherterm", Label: "Side of onset"},
				{Identifier: "left", Label: "left"},
			},
			varAssessment: {
				{Identifier: termUPDRS, Label: "UPDRS"},
				{Identifier: termMoCA, Label: "MoCA"},
			},
		},
		map[string][]vocab.TermFormat{
			varAge: {{TermURL: formatFloat, Label: "float"}, {TermURL: "nb:FromEuro", Label: "euro"}},
		},
	)
	require.NoError(t, err)

	return cfg
}

func testState() State {
	return State{
		Columns: []Column{
			{ID: "1", Header: "participant_id", AllValues: []string{"sub-001", "sub-002", "sub-003"}},
			{ID: "2", Header: "age", AllValues: []string{"31", "42", "n/a"}},
			{ID: "3", Header: "diagnosis", AllValues: []string{"pd", "hc", ""}},
			{ID: "4", Header: "moca_total", AllValues: []string{"26", "30", "24"}},
			{ID: "5", Header: "updrs_3", AllValues: []string{"12", "0", "33"}},
			{ID: "6", Header: "moca_delayed", AllValues: []string{"4", "5", "5"}},
		},
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()

	m := NewModel(testConfig(t))
	m.Load(testState())

	return m
}

func mustColumn(t *testing.T, m *Model, id string) Column {
	t.Helper()

	c, err := m.Column(id)
	require.NoError(t, err)

	return c
}

// mapAssessments maps columns 4, 5 and 6 to the assessment variable.
func mapAssessments(t *testing.T, m *Model) {
	t.Helper()

	for _, id := range []string{"4", "5", "6"} {
		require.NoError(t, m.SetStandardizedVariable(id, varAssessment))
	}
}
