// Package export serializes annotation state into a data dictionary.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"

	"dictionary-annotator/internal/annotation"
	"dictionary-annotator/internal/dictionary"
	"dictionary-annotator/internal/table"
	"dictionary-annotator/internal/vocab"
)

// Serialize converts the state into a dictionary keyed by column header, in
// column order. When two columns share a header the first one is written.
// Serializing the same state twice yields identical documents.
func Serialize(s annotation.State, cfg *vocab.Config) *dictionary.Document {
	doc := dictionary.New()
	cardOf := cardTerms(s)

	for i := range s.Columns {
		c := &s.Columns[i]

		if _, dup := doc.Get(c.Header); dup {
			continue
		}

		doc.Set(c.Header, entry(c, cfg, cardOf))
	}

	return doc
}

// Marshal serializes the state to indented JSON.
func Marshal(s annotation.State, cfg *vocab.Config) ([]byte, error) {
	data, err := Serialize(s, cfg).Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize dictionary: %w", err)
	}

	return data, nil
}

// cardTerms maps a column id to the term of the card it is mapped to.
func cardTerms(s annotation.State) map[string]*vocab.Term {
	out := make(map[string]*vocab.Term)

	for _, card := range s.Cards {
		if card.Term == nil {
			continue
		}

		for _, id := range card.ColumnIDs {
			out[id] = card.Term
		}
	}

	return out
}

func entry(c *annotation.Column, cfg *vocab.Config, cardOf map[string]*vocab.Term) *dictionary.Entry {
	desc := clean(c.DescriptionText())
	e := &dictionary.Entry{
		Description: &desc,
		Extra:       cleanRaw(c.Extras.Entry),
	}

	if c.StandardizedVariable == "" || cfg == nil {
		return e
	}

	v, ok := cfg.Variable(c.StandardizedVariable)
	if !ok {
		return e
	}

	a := &dictionary.Annotations{
		IsAbout:    &dictionary.TermRef{TermURL: v.Identifier, Label: clean(v.Label)},
		Identifies: v.Identifies,
		Extra:      cleanRaw(c.Extras.Annotations),
	}

	values := c.UniqueValues()

	switch {
	case v.IsMultiColumnMeasure:
		a.VariableType = dictionary.VariableTypeCollection
		e.Levels = describedLevels(c, values)
		e.Units = clean(c.Extras.Units)
		a.Levels = collectionTerms(c, values)
	case c.DataType == vocab.DataTypeCategorical:
		a.VariableType = dictionary.VariableTypeCategorical
		e.Levels, a.Levels = categoricalLevels(c, values)
	case c.DataType == vocab.DataTypeContinuous:
		a.VariableType = dictionary.VariableTypeContinuous
		e.Units = clean(c.Units)
		a.Format = formatRef(c.Format)
	}

	a.MissingValues = missingValues(c, values)

	if t, ok := cardOf[c.ID]; ok {
		a.IsPartOf = termRef(t)
	} else if c.IsPartOf != nil {
		a.IsPartOf = termRef(c.IsPartOf)
	}

	e.Annotations = a

	return e
}

// categoricalLevels writes a level for every value and a term for every
// non-missing value that has one.
func categoricalLevels(c *annotation.Column, values []string) (map[string]string, map[string]dictionary.TermRef) {
	if len(values) == 0 {
		return nil, nil
	}

	levels := make(map[string]string, len(values))
	terms := make(map[string]dictionary.TermRef)

	for _, v := range values {
		l := c.Levels[v]
		levels[v] = clean(l.Description)

		if l.Term != nil && !c.IsMissing(v) {
			terms[v] = *termRef(l.Term)
		}
	}

	return levels, terms
}

// collectionTerms writes the kept level terms of non-missing values.
func collectionTerms(c *annotation.Column, values []string) map[string]dictionary.TermRef {
	var terms map[string]dictionary.TermRef

	for _, v := range values {
		t, ok := c.Extras.LevelTerms[v]
		if !ok || c.IsMissing(v) {
			continue
		}

		if terms == nil {
			terms = make(map[string]dictionary.TermRef)
		}

		terms[v] = dictionary.TermRef{TermURL: t.TermURL, Label: clean(t.Label)}
	}

	return terms
}

// describedLevels writes only the values that carry a description.
func describedLevels(c *annotation.Column, values []string) map[string]string {
	var levels map[string]string

	for _, v := range values {
		l, ok := c.Levels[v]
		if !ok || l.Description == "" {
			continue
		}

		if levels == nil {
			levels = make(map[string]string)
		}

		levels[v] = clean(l.Description)
	}

	return levels
}

// missingValues lists the missing values in table order.
func missingValues(c *annotation.Column, values []string) []string {
	var out []string

	for _, v := range values {
		if c.IsMissing(v) {
			out = append(out, v)
		}
	}

	return out
}

func termRef(t *vocab.Term) *dictionary.TermRef {
	return &dictionary.TermRef{TermURL: t.Identifier, Label: clean(t.Label)}
}

func formatRef(f *vocab.TermFormat) *dictionary.TermRef {
	if f == nil {
		return nil
	}

	return &dictionary.TermRef{TermURL: f.TermURL, Label: clean(f.Label)}
}

// clean removes carriage returns left over from foreign line endings.
func clean(s string) string {
	return table.NormalizeLineEndings(s)
}

// cleanRaw normalizes line endings inside preserved JSON values. Values
// without an escaped carriage return are copied unchanged.
func cleanRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}

	out := make(map[string]json.RawMessage, len(m))

	for k, raw := range m {
		out[clean(k)] = cleanValue(raw)
	}

	return out
}

func cleanValue(raw json.RawMessage) json.RawMessage {
	if !bytes.Contains(raw, []byte(`\r`)) {
		return append(json.RawMessage(nil), raw...)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return append(json.RawMessage(nil), raw...)
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(cleanAny(v)); err != nil {
		return append(json.RawMessage(nil), raw...)
	}

	return bytes.TrimRight(buf.Bytes(), "\n")
}

func cleanAny(v any) any {
	switch t := v.(type) {
	case string:
		return clean(t)
	case []any:
		for i := range t {
			t[i] = cleanAny(t[i])
		}

		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[clean(k)] = cleanAny(x)
		}

		return out
	default:
		return v
	}
}
