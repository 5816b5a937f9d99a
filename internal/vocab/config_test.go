package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sideOfOnsetConfig(t *testing.T) *Config {
	t.Helper()

	cfg, err := NewConfig("test",
		[]StandardizedVariable{
			{Identifier: "nb:SideOfOnset", Label: "Side of onset", DataType: DataTypeCategorical},
			{Identifier: "nb:Diagnosis", Label: "Diagnosis", DataType: DataTypeCategorical},
		},
		map[string][]Term{
			"nb:SideOfOnset": {
				{Identifier: "somterm", Label: "Side of onset"},
				{Identifier: "anotherterm", Label: "Side of onset"},
			},
			"nb:Diagnosis": {
				{Identifier: "snomed:49049000", Label: "Parkinson's disease"},
			},
		},
		nil,
	)
	require.NoError(t, err)

	return cfg
}

func TestNewConfigLookups(t *testing.T) {
	cfg := sideOfOnsetConfig(t)

	assert.Equal(t, "test", cfg.Name())
	require.Len(t, cfg.Variables(), 2)
	assert.Equal(t, "nb:SideOfOnset", cfg.Variables()[0].Identifier)

	v, ok := cfg.Variable("nb:Diagnosis")
	require.True(t, ok)
	assert.Equal(t, "Diagnosis", v.Label)
	assert.True(t, v.IsExclusive())

	_, ok = cfg.Variable("nb:Age")
	assert.False(t, ok)

	// Both duplicate-label terms stay resolvable by identifier
	first, ok := cfg.Term("nb:SideOfOnset", "somterm")
	require.True(t, ok)
	assert.Equal(t, "nb:SideOfOnset", first.StandardizedVariableID)

	second, ok := cfg.Term("nb:SideOfOnset", "anotherterm")
	require.True(t, ok)
	assert.Equal(t, "Side of onset", second.Label)

	assert.Len(t, cfg.Terms("nb:SideOfOnset"), 2)

	found, ok := cfg.LookupTerm("snomed:49049000")
	require.True(t, ok)
	assert.Equal(t, "nb:Diagnosis", found.StandardizedVariableID)

	assert.Equal(t, []Term{found}, cfg.DiagnosisTerms())
	assert.Nil(t, cfg.SexTerms())
}

func TestNewConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name      string
		variables []StandardizedVariable
		terms     map[string][]Term
		formats   map[string][]TermFormat
	}{
		{
			name:      "duplicate identifier",
			variables: []StandardizedVariable{{Identifier: "a"}, {Identifier: "a"}},
		},
		{
			name:      "empty identifier",
			variables: []StandardizedVariable{{Label: "nameless"}},
		},
		{
			name:      "bad data type",
			variables: []StandardizedVariable{{Identifier: "a", DataType: "Ordinal"}},
		},
		{
			name:      "terms for unknown variable",
			variables: []StandardizedVariable{{Identifier: "a"}},
			terms:     map[string][]Term{"b": {{Identifier: "t"}}},
		},
		{
			name:      "formats for unknown variable",
			variables: []StandardizedVariable{{Identifier: "a"}},
			formats:   map[string][]TermFormat{"b": {{TermURL: "f"}}},
		},
		{
			name:      "term without identifier",
			variables: []StandardizedVariable{{Identifier: "a"}},
			terms:     map[string][]Term{"a": {{Label: "x"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig("bad", tt.variables, tt.terms, tt.formats)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestConfigReturnsCopies(t *testing.T) {
	cfg := sideOfOnsetConfig(t)

	terms := cfg.Terms("nb:SideOfOnset")
	terms[0].Label = "mutated"

	assert.Equal(t, "Side of onset", cfg.Terms("nb:SideOfOnset")[0].Label)

	vars := cfg.Variables()
	vars[0].Label = "mutated"
	assert.Equal(t, "Side of onset", cfg.Variables()[0].Label)
}

func TestParseDataType(t *testing.T) {
	for in, want := range map[string]DataType{
		"Categorical": DataTypeCategorical,
		"continuous":  DataTypeContinuous,
		"":            DataTypeNone,
		"null":        DataTypeNone,
	} {
		got, err := ParseDataType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDataType("Ordinal")
	assert.Error(t, err)
}

func TestParseTermsFileShapes(t *testing.T) {
	single := `{"namespace_prefix": "snomed", "terms": [{"id": "1", "name": "One"}, {"id": "x:2", "name": "Two"}]}`
	terms, err := parseTermsFile("single.json", []byte(single))
	require.NoError(t, err)
	assert.Equal(t, []Term{{Identifier: "snomed:1", Label: "One"}, {Identifier: "x:2", Label: "Two"}}, terms)

	list := `[{"namespace_prefix": "a", "terms": [{"id": "1", "name": "One"}]}, {"terms": [{"id": "2", "name": "Two"}]}]`
	terms, err = parseTermsFile("list.json", []byte(list))
	require.NoError(t, err)
	assert.Equal(t, []Term{{Identifier: "a:1", Label: "One"}, {Identifier: "2", Label: "Two"}}, terms)

	_, err = parseTermsFile("broken.json", []byte(`{`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
