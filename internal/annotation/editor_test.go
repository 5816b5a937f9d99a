package annotation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// never is long enough that only Flush commits during a test.
const never = time.Hour

func newCategoricalModel(t *testing.T) *Model {
	t.Helper()

	m := newTestModel(t)
	require.NoError(t, m.SetStandardizedVariable("3", varDiagnosis))

	return m
}

func TestEditorCommitsAfterDelay(t *testing.T) {
	m := newCategoricalModel(t)
	e := NewEditor(m, 10*time.Millisecond, nil)
	defer e.Close()

	e.EditDescription("3", "Diag")
	e.EditDescription("3", "Diagnosis group")

	draft, ok := e.Draft(DescriptionKey("3"))
	require.True(t, ok)
	assert.Equal(t, "Diagnosis group", draft)

	assert.Eventually(t, func() bool {
		c, err := m.Column("3")
		return err == nil && c.DescriptionText() == "Diagnosis group"
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return e.Pending() == 0 }, time.Second, 5*time.Millisecond)
}

func TestEditorMissingToggleBeatsQueuedSave(t *testing.T) {
	m := newCategoricalModel(t)
	require.NoError(t, m.SetLevelTerm("3", "hc", termHC))

	e := NewEditor(m, never, nil)
	defer e.Close()

	e.EditLevelDescription("3", "hc", "healthy")
	require.NoError(t, e.ToggleMissingValue("3", "hc", true))

	_, ok := e.Draft(LevelKey("3", "hc"))
	assert.False(t, ok, "draft is reset")

	require.NoError(t, e.Flush())

	c := mustColumn(t, m, "3")
	assert.True(t, c.IsMissing("hc"))
	assert.Nil(t, c.Levels["hc"].Term)
	assert.Empty(t, c.Levels["hc"].Description)
}

func TestEditorStaleCommitDroppedWhenModelChangedDirectly(t *testing.T) {
	m := newCategoricalModel(t)
	e := NewEditor(m, never, nil)
	defer e.Close()

	e.EditLevelDescription("3", "pd", "queued")

	// A toggle that bypasses the editor still wins through the version check
	require.NoError(t, m.ToggleMissingValue("3", "pd", true))
	require.NoError(t, e.Flush())

	assert.Empty(t, mustColumn(t, m, "3").Levels["pd"].Description)
}

func TestEditorEditAfterMissingApplies(t *testing.T) {
	m := newCategoricalModel(t)
	e := NewEditor(m, never, nil)
	defer e.Close()

	require.NoError(t, e.ToggleMissingValue("3", "", true))
	e.EditLevelDescription("3", "", "not collected")
	require.NoError(t, e.Flush())

	c := mustColumn(t, m, "3")
	assert.True(t, c.IsMissing(""))
	assert.Equal(t, "not collected", c.Levels[""].Description)
}

func TestEditorRapidAlternation(t *testing.T) {
	m := newCategoricalModel(t)
	e := NewEditor(m, never, nil)
	defer e.Close()

	e.EditLevelDescription("3", "hc", "one")
	require.NoError(t, e.ToggleMissingValue("3", "hc", true))
	e.EditLevelDescription("3", "hc", "two")
	require.NoError(t, e.ToggleMissingValue("3", "hc", false))
	require.NoError(t, e.Flush())

	c := mustColumn(t, m, "3")
	assert.False(t, c.IsMissing("hc"))
	assert.Equal(t, "two", c.Levels["hc"].Description, "only flagging discards typed text")
}

func TestEditorUnflagKeepsDescriptionTypedWhileMissing(t *testing.T) {
	m := newCategoricalModel(t)
	require.NoError(t, m.ToggleMissingValue("3", "pd", true))

	e := NewEditor(m, never, nil)
	defer e.Close()

	e.EditLevelDescription("3", "pd", "Parkinson's")
	require.NoError(t, m.ToggleMissingValue("3", "pd", false))
	require.NoError(t, e.Flush())

	c := mustColumn(t, m, "3")
	assert.False(t, c.IsMissing("pd"))
	assert.Equal(t, "Parkinson's", c.Levels["pd"].Description)
}

func TestEditorDiscardAndReload(t *testing.T) {
	m := newCategoricalModel(t)
	e := NewEditor(m, never, nil)
	defer e.Close()

	e.EditDescription("1", "dropped")
	e.Discard()
	require.NoError(t, e.Flush())
	assert.Nil(t, mustColumn(t, m, "1").Description)

	e.EditDescription("1", "from the previous table")
	m.Load(testState())
	require.NoError(t, e.Flush())
	assert.Nil(t, mustColumn(t, m, "1").Description)
}

func TestEditorFlushReportsErrors(t *testing.T) {
	m := newCategoricalModel(t)
	e := NewEditor(m, never, nil)
	defer e.Close()

	e.EditLevelDescription("3", "no-such-value", "x")
	assert.ErrorIs(t, e.Flush(), ErrValueNotFound)
	assert.Zero(t, e.Pending())
}
