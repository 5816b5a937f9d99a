package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"participant_id", "participantid"},
		{"Participant ID", "participantid"},
		{"ParticipantID", "participantid"},
		{"participant-id", "participantid"},
		{"PARTICIPANT_ID", "participantid"},
		{"ageAtScan", "ageatscan"},
		{"age.at.scan", "ageatscan"},
		{"  diagnosis ", "diagnosis"},
		{"\ufeffparticipant_id", "participantid"},
		{"", ""},
		{"A", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeKey(tt.input))
		})
	}
}

func TestNormalizeKeyWithSuffixStrip(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"participant_id", "participant"},
		{"session_ids", "session"},
		{"moca_total", "moca"},
		{"updrs_score", "updrs"},
		{"id", "id"},
		{"age", "age"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeKeyWithSuffixStrip(tt.input))
		})
	}
}

func TestStripNamespace(t *testing.T) {
	assert.Equal(t, "Age", StripNamespace("nb:Age"))
	assert.Equal(t, "Age", StripNamespace("http://neurobagel.org/vocab/Age"))
	assert.Equal(t, "Sex", StripNamespace("http://example.org/vocab#Sex"))
	assert.Equal(t, "Age", StripNamespace("Age"))
}

func TestTokenizeCamelCase(t *testing.T) {
	assert.Equal(t, []string{"UPDRS", "Part", "III"}, tokenizeCamelCase("UPDRSPartIII"))
	assert.Equal(t, []string{"age", "at", "scan"}, tokenizeCamelCase("age_at_scan"))
	assert.Nil(t, tokenizeCamelCase(""))
}
