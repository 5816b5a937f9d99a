package vocab

import (
	"errors"
	"fmt"
	"strings"

	"dictionary-annotator/internal/common"
)

var (
	// ErrConfigNotFound is returned by providers for unknown configuration names.
	ErrConfigNotFound = errors.New("vocabulary config not found")
	// ErrInvalidConfig wraps structural problems in a configuration.
	ErrInvalidConfig = errors.New("invalid vocabulary config")
)

// Config is an immutable, normalized vocabulary configuration.
// Switching configurations replaces the whole value; nothing is shared
// between two Configs.
type Config struct {
	name string

	variables     []StandardizedVariable
	variableIndex map[string]int

	terms     map[string][]Term
	termIndex map[string]map[string]Term
	formats   map[string][]TermFormat
}

// NewConfig validates and indexes a configuration. Terms and formats are
// keyed by variable identifier; term StandardizedVariableID fields are set
// from the key.
func NewConfig(
	name string,
	variables []StandardizedVariable,
	terms map[string][]Term,
	formats map[string][]TermFormat,
) (*Config, error) {
	cfg := &Config{
		name:          name,
		variables:     make([]StandardizedVariable, 0, len(variables)),
		variableIndex: make(map[string]int, len(variables)),
		terms:         make(map[string][]Term),
		termIndex:     make(map[string]map[string]Term),
		formats:       make(map[string][]TermFormat),
	}

	for _, v := range variables {
		if strings.TrimSpace(v.Identifier) == "" {
			return nil, fmt.Errorf("%w: variable %q has no identifier", ErrInvalidConfig, v.Label)
		}

		if _, dup := cfg.variableIndex[v.Identifier]; dup {
			return nil, fmt.Errorf("%w: duplicate variable identifier %q", ErrInvalidConfig, v.Identifier)
		}

		if !v.DataType.IsValid() {
			return nil, fmt.Errorf("%w: variable %q has data type %q", ErrInvalidConfig, v.Identifier, v.DataType)
		}

		if v.Label == "" {
			v.Label = v.Identifier
		}

		v.PinnedTerms = common.Clone(v.PinnedTerms)
		cfg.variableIndex[v.Identifier] = len(cfg.variables)
		cfg.variables = append(cfg.variables, v)
	}

	for varID, list := range terms {
		if _, ok := cfg.variableIndex[varID]; !ok {
			return nil, fmt.Errorf("%w: terms for unknown variable %q", ErrInvalidConfig, varID)
		}

		index := make(map[string]Term, len(list))
		out := make([]Term, 0, len(list))

		for _, t := range list {
			if t.Identifier == "" {
				return nil, fmt.Errorf("%w: term %q of %q has no identifier", ErrInvalidConfig, t.Label, varID)
			}

			t.StandardizedVariableID = varID
			out = append(out, t)

			// The first occurrence of an identifier is the one lookups resolve to
			if _, seen := index[t.Identifier]; !seen {
				index[t.Identifier] = t
			}
		}

		cfg.terms[varID] = out
		cfg.termIndex[varID] = index
	}

	for varID, list := range formats {
		if _, ok := cfg.variableIndex[varID]; !ok {
			return nil, fmt.Errorf("%w: formats for unknown variable %q", ErrInvalidConfig, varID)
		}

		out := make([]TermFormat, len(list))
		for i, f := range list {
			f.Examples = common.Clone(f.Examples)
			out[i] = f
		}

		cfg.formats[varID] = out
	}

	return cfg, nil
}

// Name returns the configuration name.
func (c *Config) Name() string {
	return c.name
}

// Variables returns the standardized variables in configuration order.
func (c *Config) Variables() []StandardizedVariable {
	out := make([]StandardizedVariable, len(c.variables))
	copy(out, c.variables)

	return out
}

// Variable looks up a variable by identifier.
func (c *Config) Variable(id string) (StandardizedVariable, bool) {
	i, ok := c.variableIndex[id]
	if !ok {
		return StandardizedVariable{}, false
	}

	return c.variables[i], true
}

// Terms returns every term of a variable in source order, duplicates included.
func (c *Config) Terms(variableID string) []Term {
	return common.Clone(c.terms[variableID])
}

// Term resolves a term identifier within one variable. Identifiers whose
// label is suppressed from option lists still resolve.
func (c *Config) Term(variableID, termID string) (Term, bool) {
	t, ok := c.termIndex[variableID][termID]
	return t, ok
}

// LookupTerm resolves a term identifier across all variables, in variable order.
func (c *Config) LookupTerm(termID string) (Term, bool) {
	for _, v := range c.variables {
		if t, ok := c.termIndex[v.Identifier][termID]; ok {
			return t, true
		}
	}

	return Term{}, false
}

// Formats returns the formats allowed for a variable.
func (c *Config) Formats(variableID string) []TermFormat {
	return common.Clone(c.formats[variableID])
}

// Format resolves a format term URL within one variable.
func (c *Config) Format(variableID, termURL string) (TermFormat, bool) {
	for _, f := range c.formats[variableID] {
		if f.TermURL == termURL {
			return f, true
		}
	}

	return TermFormat{}, false
}

// AssessmentTerms returns the terms of the assessment tool variable.
func (c *Config) AssessmentTerms() []Term {
	return c.termsBySuffix(assessmentSuffix)
}

// DiagnosisTerms returns the terms of the diagnosis variable.
func (c *Config) DiagnosisTerms() []Term {
	return c.termsBySuffix(diagnosisSuffix)
}

// SexTerms returns the terms of the sex variable.
func (c *Config) SexTerms() []Term {
	return c.termsBySuffix(sexSuffix)
}

func (c *Config) termsBySuffix(suffix string) []Term {
	for _, v := range c.variables {
		if localName(v.Identifier) == suffix {
			return c.Terms(v.Identifier)
		}
	}

	return nil
}

// localName drops the namespace prefix of an identifier ("nb:Sex" -> "Sex").
func localName(id string) string {
	if i := strings.LastIndexAny(id, ":/#"); i >= 0 {
		return id[i+1:]
	}

	return id
}
