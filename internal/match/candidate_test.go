package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func variableOptions() []Option {
	return []Option{
		{Key: "nb:ParticipantID", Label: "Participant ID"},
		{Key: "nb:SessionID", Label: "Session ID"},
		{Key: "nb:Age", Label: "Age"},
		{Key: "nb:Sex", Label: "Sex"},
		{Key: "nb:Diagnosis", Label: "Diagnosis"},
		{Key: "nb:Assessment", Label: "Assessment Tool"},
	}
}

func TestRankCandidates(t *testing.T) {
	ranked := RankCandidates("nb:Diagnoses", variableOptions())
	require.Len(t, ranked, 6)

	best := ranked[0]
	assert.Equal(t, "nb:Diagnosis", best.Option.Key)
	assert.Equal(t, "diagnoses", best.NormalizedQuery)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRankCandidatesMatchesLabel(t *testing.T) {
	ranked := RankCandidates("assessment_tool", variableOptions())
	require.NotEmpty(t, ranked)
	assert.Equal(t, "nb:Assessment", ranked[0].Option.Key)
	assert.InDelta(t, 1.0, ranked[0].Score, 1e-9)
}

func TestCandidateListHelpers(t *testing.T) {
	ranked := RankCandidates("nb:ParticipantId", variableOptions())

	assert.Len(t, ranked.Top(2), 2)
	assert.Len(t, ranked.Top(100), 6)
	assert.Equal(t, "nb:ParticipantID", ranked.Keys()[0])
	assert.NotEmpty(t, ranked.AboveThreshold(0.99))
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, []string{"nb:Sex"}, Suggest("nb:sex", variableOptions(), 1))
	assert.Empty(t, Suggest("nb:Handedness", variableOptions(), 3))
}
