package dictionary

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"dictionary-annotator/internal/common"
)

// ErrMalformedDictionary is returned for input that is not a data dictionary.
var ErrMalformedDictionary = errors.New("malformed data dictionary")

// Shape records which nesting convention an entry was written in.
type Shape string

const (
	ShapeCurrent Shape = "current"
	ShapeLegacy  Shape = "legacy"
)

// Serialized key names.
const (
	keyDescription    = "Description"
	keyLevels         = "Levels"
	keyUnits          = "Units"
	keyAnnotations    = "Annotations"
	keyIsAbout        = "IsAbout"
	keyVariableType   = "VariableType"
	keyIsPartOf       = "IsPartOf"
	keyMissingValues  = "MissingValues"
	keyFormat         = "Format"
	keyTransformation = "Transformation"
	keyIdentifies     = "Identifies"
	keyTermURL        = "TermURL"
	keyLabel          = "Label"
)

// VariableType values written to Annotations.VariableType.
const (
	VariableTypeCategorical = "Categorical"
	VariableTypeContinuous  = "Continuous"
	VariableTypeCollection  = "Collection"
)

// TermRef references a vocabulary term or format.
type TermRef struct {
	TermURL string `json:"TermURL"`
	Label   string `json:"Label"`
}

// Entry is one column's data-dictionary record.
type Entry struct {
	// Shape is informational; it is never consulted after parsing.
	Shape Shape `json:"-"`

	Description *string
	// Levels maps a raw value to its description.
	Levels      map[string]string
	Units       string
	Annotations *Annotations

	// Extra holds unmodeled top-level keys.
	Extra map[string]json.RawMessage
}

// Annotations is the vocabulary-bound part of an entry.
type Annotations struct {
	IsAbout      *TermRef
	VariableType string
	IsPartOf     *TermRef
	// Levels maps a raw value to its standardized term.
	Levels        map[string]TermRef
	MissingValues []string
	Format        *TermRef
	Identifies    string

	// Extra holds unmodeled Annotations keys.
	Extra map[string]json.RawMessage
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}

	out := &Entry{
		Shape:  e.Shape,
		Units:  e.Units,
		Levels: cloneMap(e.Levels),
		Extra:  cloneRaw(e.Extra),
	}

	if e.Description != nil {
		d := *e.Description
		out.Description = &d
	}

	if a := e.Annotations; a != nil {
		out.Annotations = &Annotations{
			IsAbout:       cloneRef(a.IsAbout),
			VariableType:  a.VariableType,
			IsPartOf:      cloneRef(a.IsPartOf),
			Levels:        cloneMap(a.Levels),
			MissingValues: common.Clone(a.MissingValues),
			Format:        cloneRef(a.Format),
			Identifies:    a.Identifies,
			Extra:         cloneRaw(a.Extra),
		}
	}

	return out
}

// UnmarshalJSON parses either entry shape.
func (e *Entry) UnmarshalJSON(data []byte) error {
	parsed, err := parseEntry(data)
	if err != nil {
		return err
	}

	*e = *parsed

	return nil
}

// MarshalJSON writes the current shape with a fixed key order.
func (e *Entry) MarshalJSON() ([]byte, error) {
	var w objectWriter

	if e.Description != nil {
		w.field(keyDescription, *e.Description)
	}

	if len(e.Levels) > 0 {
		w.field(keyLevels, e.Levels)
	}

	if e.Units != "" {
		w.field(keyUnits, e.Units)
	}

	if e.Annotations != nil {
		w.field(keyAnnotations, e.Annotations)
	}

	w.extras(e.Extra)

	return w.finish()
}

// MarshalJSON writes annotations with a fixed key order.
func (a *Annotations) MarshalJSON() ([]byte, error) {
	var w objectWriter

	if a.IsAbout != nil {
		w.field(keyIsAbout, a.IsAbout)
	}

	if a.VariableType != "" {
		w.field(keyVariableType, a.VariableType)
	}

	if a.IsPartOf != nil {
		w.field(keyIsPartOf, a.IsPartOf)
	}

	if len(a.Levels) > 0 {
		w.field(keyLevels, a.Levels)
	}

	if len(a.MissingValues) > 0 {
		w.field(keyMissingValues, a.MissingValues)
	}

	if a.Format != nil {
		w.field(keyFormat, a.Format)
	}

	if a.Identifies != "" {
		w.field(keyIdentifies, a.Identifies)
	}

	w.extras(a.Extra)

	return w.finish()
}

func cloneRef(r *TermRef) *TermRef {
	if r == nil {
		return nil
	}

	c := *r

	return &c
}

func cloneMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return nil
	}

	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
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

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedDictionary, fmt.Sprintf(format, args...))
}
