package annotation

import (
	"encoding/json"
	"maps"
	"slices"

	"dictionary-annotator/internal/common"
	"dictionary-annotator/internal/vocab"
)

// Level is the annotation of one categorical value.
type Level struct {
	Description string      `json:"description"`
	Term        *vocab.Term `json:"term,omitempty"`
}

// Column is the annotation state of one table column.
type Column struct {
	// ID is assigned at ingestion from the column position and never changes.
	ID     string `json:"id"`
	Header string `json:"header"`

	Description *string        `json:"description"`
	DataType    vocab.DataType `json:"dataType"`

	// StandardizedVariable is a variable identifier, or "" when unmapped.
	StandardizedVariable string      `json:"standardizedVariable"`
	IsPartOf             *vocab.Term `json:"isPartOf,omitempty"`

	// AllValues are the raw cell values in row order.
	AllValues []string `json:"-"`

	// Levels is keyed by raw value. Categorical columns have one level per
	// unique value; measure columns may carry level descriptions only.
	Levels        map[string]Level `json:"levels,omitempty"`
	MissingValues []string         `json:"missingValues,omitempty"`

	Units  string            `json:"units,omitempty"`
	Format *vocab.TermFormat `json:"format,omitempty"`

	// Extras carries dictionary keys the model does not represent.
	Extras Extras `json:"-"`
}

// Extras are unmodeled data-dictionary keys kept for export.
type Extras struct {
	Entry       map[string]json.RawMessage
	Annotations map[string]json.RawMessage

	// Units and LevelTerms of a collection (measure) column; the model only
	// annotates these on the measure card.
	Units      string
	LevelTerms map[string]ExtraTerm
}

// ExtraTerm is a term reference carried through unchanged.
type ExtraTerm struct {
	TermURL string
	Label   string
}

func (x *Extras) resetMeasure() {
	x.Units = ""
	x.LevelTerms = nil
}

// UniqueValues returns the distinct raw values in order of first appearance.
func (c *Column) UniqueValues() []string {
	return common.Unique(c.AllValues)
}

// HasValue reports whether value occurs in the column.
func (c *Column) HasValue(value string) bool {
	return slices.Contains(c.AllValues, value)
}

// IsMissing reports whether value is flagged as missing.
func (c *Column) IsMissing(value string) bool {
	return slices.Contains(c.MissingValues, value)
}

// DescriptionText returns the description, or "" when unset.
func (c *Column) DescriptionText() string {
	if c.Description == nil {
		return ""
	}

	return *c.Description
}

// Clone returns a deep copy of c.
func (c *Column) Clone() Column {
	out := *c
	out.AllValues = common.Clone(c.AllValues)
	out.MissingValues = common.Clone(c.MissingValues)

	if c.Description != nil {
		d := *c.Description
		out.Description = &d
	}

	if c.IsPartOf != nil {
		t := *c.IsPartOf
		out.IsPartOf = &t
	}

	if c.Format != nil {
		f := *c.Format
		f.Examples = common.Clone(c.Format.Examples)
		out.Format = &f
	}

	if c.Levels != nil {
		out.Levels = make(map[string]Level, len(c.Levels))

		for k, l := range c.Levels {
			if l.Term != nil {
				t := *l.Term
				l.Term = &t
			}

			out.Levels[k] = l
		}
	}

	out.Extras = Extras{
		Entry:       cloneRaw(c.Extras.Entry),
		Annotations: cloneRaw(c.Extras.Annotations),
		Units:       c.Extras.Units,
		LevelTerms:  maps.Clone(c.Extras.LevelTerms),
	}

	return out
}

// Card groups columns of a multi-column measure variable under one term.
type Card struct {
	ID         string      `json:"id"`
	VariableID string      `json:"variableId"`
	Term       *vocab.Term `json:"term,omitempty"`
	// ColumnIDs are kept in the order the columns were mapped.
	ColumnIDs []string `json:"columnIds"`
}

// IsDraft reports whether the card has neither a term nor columns.
func (c *Card) IsDraft() bool {
	return c.Term == nil && len(c.ColumnIDs) == 0
}

// Clone returns a deep copy of c.
func (c *Card) Clone() Card {
	out := *c
	out.ColumnIDs = common.Clone(c.ColumnIDs)

	if c.Term != nil {
		t := *c.Term
		out.Term = &t
	}

	return out
}

// State is a point-in-time copy of the model contents.
type State struct {
	Columns []Column `json:"columns"`
	Cards   []Card   `json:"cards"`
}

// Column returns the column with the given id.
func (s *State) Column(id string) (*Column, bool) {
	for i := range s.Columns {
		if s.Columns[i].ID == id {
			return &s.Columns[i], true
		}
	}

	return nil, false
}

// Card returns the card with the given id.
func (s *State) Card(id string) (*Card, bool) {
	for i := range s.Cards {
		if s.Cards[i].ID == id {
			return &s.Cards[i], true
		}
	}

	return nil, false
}

// Clone returns a deep copy of s.
func (s *State) Clone() State {
	out := State{
		Columns: make([]Column, len(s.Columns)),
		Cards:   make([]Card, len(s.Cards)),
	}

	for i := range s.Columns {
		out.Columns[i] = s.Columns[i].Clone()
	}

	for i := range s.Cards {
		out.Cards[i] = s.Cards[i].Clone()
	}

	return out
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}

	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = append(json.RawMessage(nil), v...)
	}

	return out
}
