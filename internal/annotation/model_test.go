package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dictionary-annotator/internal/diagnostic"
	"dictionary-annotator/internal/vocab"
)

func TestSetDescription(t *testing.T) {
	m := newTestModel(t)

	require.NoError(t, m.SetDescription("1", "Subject"))
	col := mustColumn(t, m, "1")
	assert.Equal(t, "Subject", col.DescriptionText())

	require.NoError(t, m.SetDescription("1", ""))
	assert.Nil(t, mustColumn(t, m, "1").Description)

	assert.ErrorIs(t, m.SetDescription("99", "x"), ErrColumnNotFound)
}

func TestSetterTouchesOnlyItsColumn(t *testing.T) {
	m := newTestModel(t)
	before := m.Snapshot()

	require.NoError(t, m.SetDescription("2", "Age at visit"))

	after := m.Snapshot()
	for i := range before.Columns {
		if before.Columns[i].ID == "2" {
			continue
		}

		assert.Equal(t, before.Columns[i], after.Columns[i])
	}
}

func TestSetDataTypeTransitions(t *testing.T) {
	m := newTestModel(t)

	require.NoError(t, m.SetDataType("2", vocab.DataTypeContinuous))
	require.NoError(t, m.SetUnits("2", "years"))

	require.NoError(t, m.SetDataType("2", vocab.DataTypeCategorical))

	c := mustColumn(t, m, "2")
	assert.Equal(t, vocab.DataTypeCategorical, c.DataType)
	assert.Empty(t, c.Units, "units are discarded")
	assert.Equal(t, map[string]Level{"31": {}, "42": {}, "n/a": {}}, c.Levels)

	require.NoError(t, m.SetLevelDescription("2", "n/a", "not assessed"))
	require.NoError(t, m.SetDataType("2", vocab.DataTypeContinuous))

	c = mustColumn(t, m, "2")
	assert.Nil(t, c.Levels, "levels are discarded")

	assert.ErrorIs(t, m.SetDataType("2", "Ordinal"), ErrDataTypeMismatch)
}

func TestSetStandardizedVariableAppliesDeclaredType(t *testing.T) {
	m := newTestModel(t)

	require.NoError(t, m.SetStandardizedVariable("3", varDiagnosis))

	c := mustColumn(t, m, "3")
	assert.Equal(t, varDiagnosis, c.StandardizedVariable)
	assert.Equal(t, vocab.DataTypeCategorical, c.DataType)
	assert.Len(t, c.Levels, 3)

	require.NoError(t, m.SetStandardizedVariable("2", varAge))
	assert.Equal(t, vocab.DataTypeContinuous, mustColumn(t, m, "2").DataType)

	assert.ErrorIs(t, m.SetStandardizedVariable("3", "nb:Nope"), ErrVariableNotFound)
}

func TestSetStandardizedVariableClearsVocabularyFields(t *testing.T) {
	m := newTestModel(t)

	require.NoError(t, m.SetStandardizedVariable("3", varDiagnosis))
	require.NoError(t, m.SetLevelTerm("3", "pd", termPD))
	require.NoError(t, m.SetLevelDescription("3", "pd", "Parkinson's"))

	require.NoError(t, m.SetStandardizedVariable("3", varSideOfOnset))

	c := mustColumn(t, m, "3")
	assert.Nil(t, c.Levels["pd"].Term, "terms of the old variable are cleared")
	assert.Equal(t, "Parkinson's", c.Levels["pd"].Description, "descriptions survive")

	require.NoError(t, m.SetStandardizedVariable("2", varAge))
	require.NoError(t, m.SetFormat("2", formatFloat))
	require.NoError(t, m.SetStandardizedVariable("2", ""))

	c = mustColumn(t, m, "2")
	assert.Empty(t, c.StandardizedVariable)
	assert.Nil(t, c.Format)
}

func TestSetLevelTerm(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetStandardizedVariable("3", varDiagnosis))

	require.NoError(t, m.SetLevelTerm("3", "pd", termPD))
	assert.Equal(t, "Parkinson's disease", mustColumn(t, m, "3").Levels["pd"].Term.Label)

	assert.ErrorIs(t, m.SetLevelTerm("3", "pd", termMoCA), ErrTermNotFound, "term of another variable")
	assert.ErrorIs(t, m.SetLevelTerm("3", "PD", termPD), ErrValueNotFound)

	require.NoError(t, m.SetLevelTerm("3", "pd", ""))
	assert.Nil(t, mustColumn(t, m, "3").Levels["pd"].Term)

	require.NoError(t, m.SetStandardizedVariable("2", varAge))
	assert.ErrorIs(t, m.SetLevelTerm("2", "31", termPD), ErrDataTypeMismatch)
}

func TestToggleMissingValueClearsTerm(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetStandardizedVariable("3", varDiagnosis))
	require.NoError(t, m.SetLevelTerm("3", "", termHC))
	require.NoError(t, m.SetLevelDescription("3", "", "blank"))

	require.NoError(t, m.ToggleMissingValue("3", "", true))

	c := mustColumn(t, m, "3")
	assert.True(t, c.IsMissing(""))
	assert.Nil(t, c.Levels[""].Term)
	assert.Empty(t, c.Levels[""].Description)

	// Idempotent
	require.NoError(t, m.ToggleMissingValue("3", "", true))
	assert.Equal(t, []string{""}, mustColumn(t, m, "3").MissingValues)

	// A term assignment is the newer intent and un-flags the value
	require.NoError(t, m.SetLevelTerm("3", "", termHC))
	c = mustColumn(t, m, "3")
	assert.False(t, c.IsMissing(""))
	assert.NotNil(t, c.Levels[""].Term)

	require.NoError(t, m.ToggleMissingValue("3", "", true))
	require.NoError(t, m.ToggleMissingValue("3", "", false))
	assert.Empty(t, mustColumn(t, m, "3").MissingValues)

	assert.ErrorIs(t, m.ToggleMissingValue("3", "unknown", true), ErrValueNotFound)
}

func TestUnitsAndFormat(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetStandardizedVariable("2", varAge))

	require.NoError(t, m.SetUnits("2", "years"))
	require.NoError(t, m.SetFormat("2", formatFloat))

	c := mustColumn(t, m, "2")
	assert.Equal(t, "years", c.Units)
	assert.Equal(t, "float", c.Format.Label)

	assert.ErrorIs(t, m.SetFormat("2", "nb:FromRoman"), ErrFormatNotFound)

	require.NoError(t, m.SetStandardizedVariable("3", varDiagnosis))
	assert.ErrorIs(t, m.SetUnits("3", "years"), ErrDataTypeMismatch)
	assert.ErrorIs(t, m.SetFormat("3", formatFloat), ErrDataTypeMismatch)
}

func TestCommitHonoursVersion(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetStandardizedVariable("3", varDiagnosis))

	v := m.Version(LevelKey("3", "hc"))

	require.NoError(t, m.ToggleMissingValue("3", "hc", true))

	applied, err := m.CommitLevelDescription("3", "hc", "stale text", v)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Empty(t, mustColumn(t, m, "3").Levels["hc"].Description)

	v = m.Version(LevelKey("3", "hc"))
	applied, err = m.CommitLevelDescription("3", "hc", "fresh text", v)
	require.NoError(t, err)
	assert.True(t, applied)

	// Versions do not carry over a reload
	dv := m.Version(DescriptionKey("1"))
	m.Load(testState())

	applied, err = m.CommitDescription("1", "from old table", dv)
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestSwitchConfigClearsUnknownBindings(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetStandardizedVariable("3", varDiagnosis))
	require.NoError(t, m.SetLevelTerm("3", "pd", termPD))
	require.NoError(t, m.SetLevelTerm("3", "hc", termHC))
	mapAssessments(t, m)

	card, err := m.AddCard(varAssessment)
	require.NoError(t, err)
	require.NoError(t, m.MapColumn(card.ID, "4"))

	next, err := vocab.NewConfig("next",
		[]vocab.StandardizedVariable{
			{Identifier: varDiagnosis, Label: "Diagnosis", DataType: vocab.DataTypeCategorical},
		},
		map[string][]vocab.Term{varDiagnosis: {{Identifier: termHC, Label: "Control"}}},
		nil,
	)
	require.NoError(t, err)

	diags := m.SwitchConfig(next)

	c := mustColumn(t, m, "3")
	assert.Nil(t, c.Levels["pd"].Term)
	assert.Equal(t, "Control", c.Levels["hc"].Term.Label, "labels come from the new config")

	assert.Empty(t, mustColumn(t, m, "4").StandardizedVariable)
	assert.Empty(t, m.Snapshot().Cards)
	assert.Same(t, next, m.Config())

	assert.Len(t, diags.ByCode(diagnostic.CodeUnknownTerm), 1)
	assert.Len(t, diags.ByCode(diagnostic.CodeUnknownVariable), 3)
}

func TestSnapshotIsolation(t *testing.T) {
	m := newTestModel(t)
	require.NoError(t, m.SetStandardizedVariable("3", varDiagnosis))

	s := m.Snapshot()
	s.Columns[2].Levels["pd"] = Level{Description: "mutated"}
	s.Columns[2].AllValues[0] = "mutated"

	c := mustColumn(t, m, "3")
	assert.Empty(t, c.Levels["pd"].Description)
	assert.Equal(t, "pd", c.AllValues[0])
}
