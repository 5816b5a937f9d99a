package ingest

import (
	"fmt"
	"slices"
	"sort"

	"dictionary-annotator/internal/annotation"
	"dictionary-annotator/internal/dictionary"
	"dictionary-annotator/internal/diagnostic"
	"dictionary-annotator/internal/match"
	"dictionary-annotator/internal/vocab"
)

// seed copies a dictionary entry onto a freshly built column.
func (in *ingester) seed(c *annotation.Column, e *dictionary.Entry) {
	if e.Shape == dictionary.ShapeLegacy {
		in.diags.AddInfo(diagnostic.CodeLegacyShape, "entry uses the legacy dictionary layout", c.Header, "")
	}

	if e.Description != nil {
		d := *e.Description
		c.Description = &d
	}

	extras := e.Clone()
	c.Extras.Entry = extras.Extra

	if extras.Annotations != nil {
		c.Extras.Annotations = extras.Annotations.Extra
	}

	a := e.Annotations
	if a == nil {
		a = &dictionary.Annotations{}
	}

	variable, mapped := in.variable(c, a)
	if mapped {
		c.StandardizedVariable = variable.Identifier
	}

	c.DataType = in.dataType(c, e, a, variable, mapped)

	measure := mapped && variable.IsMultiColumnMeasure

	switch {
	case c.DataType == vocab.DataTypeCategorical:
		in.levels(c, e, a, mapped)
	case measure:
		in.collectionLevels(c, e)
		collectionExtras(c, e, a)
	}

	in.missingValues(c, a)

	if !measure && c.DataType != vocab.DataTypeCategorical {
		c.Units = e.Units

		if mapped && a.Format != nil {
			if f, ok := in.cfg.Format(c.StandardizedVariable, a.Format.TermURL); ok {
				c.Format = &f
			} else {
				in.diags.AddWarning(diagnostic.CodeUnknownFormat,
					fmt.Sprintf("format %s is not allowed for %s", a.Format.TermURL, c.StandardizedVariable), c.Header, "")
			}
		}
	}

	if mapped && a.IsPartOf != nil {
		c.IsPartOf = in.term(c, a.IsPartOf, "")
	}
}

// variable resolves Annotations.IsAbout against the configuration.
func (in *ingester) variable(c *annotation.Column, a *dictionary.Annotations) (vocab.StandardizedVariable, bool) {
	if a.IsAbout == nil {
		return vocab.StandardizedVariable{}, false
	}

	if v, ok := in.cfg.Variable(a.IsAbout.TermURL); ok {
		return v, true
	}

	vars := in.cfg.Variables()
	options := make([]match.Option, len(vars))

	for i, v := range vars {
		options[i] = match.Option{Key: v.Identifier, Label: v.Label}
	}

	in.diags.AddWarning(diagnostic.CodeUnknownVariable,
		fmt.Sprintf("IsAbout %s is not a variable of %s; column left unmapped", a.IsAbout.TermURL, in.cfg.Name()),
		c.Header, "", match.Suggest(a.IsAbout.TermURL, options, 3)...)

	return vocab.StandardizedVariable{}, false
}

// dataType applies, in order: measure columns take the variable's declared
// type (none for collections); a variable's declared type; Levels imply
// Categorical; then VariableType.
func (in *ingester) dataType(
	c *annotation.Column,
	e *dictionary.Entry,
	a *dictionary.Annotations,
	variable vocab.StandardizedVariable,
	mapped bool,
) vocab.DataType {
	if mapped && variable.IsMultiColumnMeasure {
		return variable.DataType
	}

	if a.VariableType == dictionary.VariableTypeCollection {
		in.diags.AddWarning(diagnostic.CodeUnsupportedDataType,
			"VariableType Collection applies to multi-column measures only", c.Header, "")
	}

	if mapped && variable.DataType != vocab.DataTypeNone {
		return variable.DataType
	}

	if len(e.Levels) > 0 || len(a.Levels) > 0 {
		return vocab.DataTypeCategorical
	}

	switch a.VariableType {
	case dictionary.VariableTypeCategorical:
		return vocab.DataTypeCategorical
	case dictionary.VariableTypeContinuous:
		return vocab.DataTypeContinuous
	}

	return vocab.DataTypeNone
}

// levels rebuilds categorical levels from the table's unique values,
// keeping dictionary descriptions and terms only for values still present.
func (in *ingester) levels(c *annotation.Column, e *dictionary.Entry, a *dictionary.Annotations, mapped bool) {
	values := c.UniqueValues()
	c.Levels = make(map[string]annotation.Level, len(values))

	described := len(e.Levels) > 0 || len(a.Levels) > 0

	for _, v := range values {
		level := annotation.Level{Description: e.Levels[v]}

		if ref, ok := a.Levels[v]; ok && mapped {
			level.Term = in.term(c, &ref, v)
		}

		_, hasDesc := e.Levels[v]
		_, hasTerm := a.Levels[v]

		if described && !hasDesc && !hasTerm {
			in.diags.AddInfo(diagnostic.CodeNewLevel, "value has no dictionary level; added empty", c.Header, v)
		}

		c.Levels[v] = level
	}

	stale := make(map[string]bool)

	for k := range e.Levels {
		if !c.HasValue(k) {
			stale[k] = true
		}
	}

	for k := range a.Levels {
		if !c.HasValue(k) {
			stale[k] = true
		}
	}

	for _, k := range sortedKeys(stale) {
		in.diags.AddInfo(diagnostic.CodeStaleLevel, "dictionary level is not a value of the table; dropped", c.Header, k)
	}
}

// collectionExtras keeps the units and level terms of a measure column so
// they survive export.
func collectionExtras(c *annotation.Column, e *dictionary.Entry, a *dictionary.Annotations) {
	c.Extras.Units = e.Units

	for _, k := range sortedKeys(a.Levels) {
		if !c.HasValue(k) {
			continue
		}

		if c.Extras.LevelTerms == nil {
			c.Extras.LevelTerms = make(map[string]annotation.ExtraTerm)
		}

		ref := a.Levels[k]
		c.Extras.LevelTerms[k] = annotation.ExtraTerm{TermURL: ref.TermURL, Label: ref.Label}
	}
}

// collectionLevels keeps the non-empty level descriptions of a measure
// column; terms and units belong to the measure card.
func (in *ingester) collectionLevels(c *annotation.Column, e *dictionary.Entry) {
	for _, k := range sortedKeys(e.Levels) {
		desc := e.Levels[k]
		if desc == "" {
			continue
		}

		if !c.HasValue(k) {
			in.diags.AddInfo(diagnostic.CodeStaleLevel, "dictionary level is not a value of the table; dropped", c.Header, k)
			continue
		}

		if c.Levels == nil {
			c.Levels = make(map[string]annotation.Level)
		}

		c.Levels[k] = annotation.Level{Description: desc}
	}
}

// missingValues keeps the dictionary's missing values that occur in the
// table. A missing value never carries a term.
func (in *ingester) missingValues(c *annotation.Column, a *dictionary.Annotations) {
	for _, v := range a.MissingValues {
		if !c.HasValue(v) {
			in.diags.AddInfo(diagnostic.CodeStaleMissingValue, "missing value does not occur in the table; dropped", c.Header, v)
			continue
		}

		if slices.Contains(c.MissingValues, v) {
			continue
		}

		c.MissingValues = append(c.MissingValues, v)

		if l, ok := c.Levels[v]; ok && l.Term != nil {
			in.diags.AddWarning(diagnostic.CodeMissingValueTerm,
				fmt.Sprintf("missing value carried term %s; cleared", l.Term.Identifier), c.Header, v)

			l.Term = nil
			c.Levels[v] = l
		}
	}
}

// term resolves a dictionary term reference within the column's variable.
func (in *ingester) term(c *annotation.Column, ref *dictionary.TermRef, value string) *vocab.Term {
	t, ok := in.cfg.Term(c.StandardizedVariable, ref.TermURL)
	if !ok {
		in.diags.AddWarning(diagnostic.CodeUnknownTerm,
			fmt.Sprintf("term %s is not defined for %s; dropped", ref.TermURL, c.StandardizedVariable), c.Header, value)

		return nil
	}

	return &t
}

// cards groups measure columns by their IsPartOf term, in order of first
// appearance. The card becomes the owner of the term.
func (in *ingester) cards(columns []annotation.Column) []annotation.Card {
	var cards []annotation.Card

	index := make(map[string]int)

	for i := range columns {
		c := &columns[i]
		if c.IsPartOf == nil {
			continue
		}

		v, ok := in.cfg.Variable(c.StandardizedVariable)
		if !ok || !v.IsMultiColumnMeasure {
			continue
		}

		key := v.Identifier + "\x00" + c.IsPartOf.Identifier

		n, ok := index[key]
		if !ok {
			card := annotation.NewCard(v.Identifier)
			term := *c.IsPartOf
			card.Term = &term

			n = len(cards)
			index[key] = n
			cards = append(cards, card)
		}

		cards[n].ColumnIDs = append(cards[n].ColumnIDs, c.ID)
		c.IsPartOf = nil
	}

	return cards
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
