package annotation

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"dictionary-annotator/internal/vocab"
)

// VariableOption is a standardized variable as offered in a column's variable picker.
type VariableOption struct {
	Identifier           string `json:"identifier"`
	Label                string `json:"label"`
	IsMultiColumnMeasure bool   `json:"isMultiColumnMeasure"`
	Disabled             bool   `json:"disabled"`
}

// ColumnOption is a column as offered in a measure card's column picker.
type ColumnOption struct {
	ColumnID string `json:"columnId"`
	Header   string `json:"header"`
	// Disabled columns are mapped to another card of the same variable.
	Disabled bool `json:"disabled"`
	// Selected columns are mapped to the card being edited.
	Selected bool `json:"selected"`
}

// TermOption is a term as offered in a measure card's term picker.
type TermOption struct {
	Term     vocab.Term `json:"term"`
	Disabled bool       `json:"disabled"`
}

// Progress counts how far the columns are annotated.
type Progress struct {
	Total        int `json:"total"`
	WithVariable int `json:"withVariable"`
	WithDataType int `json:"withDataType"`
}

// mappedVariables counts the columns mapped to each variable.
func mappedVariables(s State) map[string]int {
	out := make(map[string]int)

	for _, c := range s.Columns {
		if c.StandardizedVariable != "" {
			out[c.StandardizedVariable]++
		}
	}

	return out
}

// DisabledStandardizedVariables returns, in configuration order, the labels
// of single-column variables that are already mapped to a column.
func DisabledStandardizedVariables(s State, cfg *vocab.Config) []string {
	if cfg == nil {
		return nil
	}

	mapped := mappedVariables(s)

	var out []string

	for _, v := range cfg.Variables() {
		if v.IsExclusive() && mapped[v.Identifier] > 0 {
			out = append(out, v.Label)
		}
	}

	return out
}

// VariableOptions returns every variable of cfg with its disabled flag.
func VariableOptions(s State, cfg *vocab.Config) []VariableOption {
	if cfg == nil {
		return nil
	}

	mapped := mappedVariables(s)
	vars := cfg.Variables()
	out := make([]VariableOption, 0, len(vars))

	for _, v := range vars {
		out = append(out, VariableOption{
			Identifier:           v.Identifier,
			Label:                v.Label,
			IsMultiColumnMeasure: v.IsMultiColumnMeasure,
			Disabled:             v.IsExclusive() && mapped[v.Identifier] > 0,
		})
	}

	return out
}

// TermOptions returns the selectable terms of a variable: one term per
// label (the first one in source order), sorted case-insensitively with the
// variable's pinned labels first. Variables without pinned labels pin
// vocab.DefaultPinnedTerm.
func TermOptions(cfg *vocab.Config, variableID string) []vocab.Term {
	if cfg == nil {
		return nil
	}

	v, ok := cfg.Variable(variableID)
	if !ok {
		return nil
	}

	seen := make(map[string]struct{})

	var terms []vocab.Term

	for _, t := range cfg.Terms(variableID) {
		if _, dup := seen[t.Label]; dup {
			continue
		}

		seen[t.Label] = struct{}{}
		terms = append(terms, t)
	}

	pinned := v.PinnedTerms
	if len(pinned) == 0 {
		pinned = []string{vocab.DefaultPinnedTerm}
	}

	rank := func(label string) int {
		for i, p := range pinned {
			if strings.EqualFold(p, label) {
				return i
			}
		}

		return len(pinned)
	}

	sort.SliceStable(terms, func(i, j int) bool {
		ri, rj := rank(terms[i].Label), rank(terms[j].Label)
		if ri != rj {
			return ri < rj
		}

		return strings.ToLower(terms[i].Label) < strings.ToLower(terms[j].Label)
	})

	return terms
}

// FormatOptions returns the formats allowed for a variable.
func FormatOptions(cfg *vocab.Config, variableID string) []vocab.TermFormat {
	if cfg == nil {
		return nil
	}

	return cfg.Formats(variableID)
}

// ColumnOptions returns the columns mapped to a variable, in table order, as
// seen from one card's column picker. Columns mapped to other cards of the
// variable are disabled. With an empty cardID every carded column is disabled.
func ColumnOptions(s State, variableID, cardID string) []ColumnOption {
	owner := make(map[string]string)

	for _, card := range s.Cards {
		if card.VariableID != variableID {
			continue
		}

		for _, id := range card.ColumnIDs {
			owner[id] = card.ID
		}
	}

	var out []ColumnOption

	for _, c := range s.Columns {
		if c.StandardizedVariable != variableID {
			continue
		}

		cardOf, carded := owner[c.ID]
		out = append(out, ColumnOption{
			ColumnID: c.ID,
			Header:   c.Header,
			Disabled: carded && cardOf != cardID,
			Selected: carded && cardOf == cardID,
		})
	}

	return out
}

// CardTermOptions returns the term options of a card's variable; terms
// chosen by other cards of the variable are disabled.
func CardTermOptions(s State, cfg *vocab.Config, cardID string) ([]TermOption, error) {
	card, ok := s.Card(cardID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrCardNotFound, cardID)
	}

	var taken []string

	for _, other := range s.Cards {
		if other.ID != cardID && other.VariableID == card.VariableID && other.Term != nil {
			taken = append(taken, other.Term.Identifier)
		}
	}

	terms := TermOptions(cfg, card.VariableID)
	out := make([]TermOption, 0, len(terms))

	for _, t := range terms {
		out = append(out, TermOption{Term: t, Disabled: slices.Contains(taken, t.Identifier)})
	}

	return out, nil
}

// ComputeProgress counts annotated columns.
func ComputeProgress(s State) Progress {
	p := Progress{Total: len(s.Columns)}

	for _, c := range s.Columns {
		if c.StandardizedVariable != "" {
			p.WithVariable++
		}

		if c.DataType != vocab.DataTypeNone {
			p.WithDataType++
		}
	}

	return p
}

// MissingRequiredVariables returns the required variables no column is mapped to.
func MissingRequiredVariables(s State, cfg *vocab.Config) []vocab.StandardizedVariable {
	if cfg == nil {
		return nil
	}

	mapped := mappedVariables(s)

	var out []vocab.StandardizedVariable

	for _, v := range cfg.Variables() {
		if v.Required && mapped[v.Identifier] == 0 {
			out = append(out, v)
		}
	}

	return out
}

// DisabledStandardizedVariables evaluates DisabledStandardizedVariables on the current state.
func (m *Model) DisabledStandardizedVariables() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return DisabledStandardizedVariables(m.state, m.cfg)
}

// VariableOptions evaluates VariableOptions on the current state.
func (m *Model) VariableOptions() []VariableOption {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return VariableOptions(m.state, m.cfg)
}

// TermOptions evaluates TermOptions against the bound configuration.
func (m *Model) TermOptions(variableID string) []vocab.Term {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return TermOptions(m.cfg, variableID)
}

// FormatOptions evaluates FormatOptions against the bound configuration.
func (m *Model) FormatOptions(variableID string) []vocab.TermFormat {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return FormatOptions(m.cfg, variableID)
}

// ColumnOptions evaluates ColumnOptions on the current state.
func (m *Model) ColumnOptions(variableID, cardID string) []ColumnOption {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ColumnOptions(m.state, variableID, cardID)
}

// CardTermOptions evaluates CardTermOptions on the current state.
func (m *Model) CardTermOptions(cardID string) ([]TermOption, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return CardTermOptions(m.state, m.cfg, cardID)
}

// Progress evaluates ComputeProgress on the current state.
func (m *Model) Progress() Progress {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return ComputeProgress(m.state)
}

// MissingRequiredVariables evaluates MissingRequiredVariables on the current state.
func (m *Model) MissingRequiredVariables() []vocab.StandardizedVariable {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return MissingRequiredVariables(m.state, m.cfg)
}
