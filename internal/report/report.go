// Package report renders an exported data dictionary as a spreadsheet or a
// printable summary for reviewers who do not read JSON.
package report

import (
	"sort"
	"strings"

	"dictionary-annotator/internal/dictionary"
)

// Row is one column of the dictionary flattened for tabular display.
type Row struct {
	Column        string
	Description   string
	Variable      string
	VariableURL   string
	VariableType  string
	Units         string
	Format        string
	IsPartOf      string
	MissingValues string
	Levels        []LevelRow
}

// LevelRow is one categorical value.
type LevelRow struct {
	Value       string
	Description string
	Term        string
	Missing     bool
}

// Rows flattens doc in document order. Levels are sorted by value.
func Rows(doc *dictionary.Document) []Row {
	keys := doc.Keys()
	rows := make([]Row, 0, len(keys))

	for _, key := range keys {
		e, _ := doc.Get(key)
		r := Row{Column: key, Units: e.Units}

		if e.Description != nil {
			r.Description = *e.Description
		}

		missing := map[string]bool{}

		if a := e.Annotations; a != nil {
			if a.IsAbout != nil {
				r.Variable = labelOr(a.IsAbout)
				r.VariableURL = a.IsAbout.TermURL
			}

			r.VariableType = a.VariableType
			r.Format = termLabel(a.Format)
			r.IsPartOf = termLabel(a.IsPartOf)
			r.MissingValues = strings.Join(quoteAll(a.MissingValues), ", ")

			for _, v := range a.MissingValues {
				missing[v] = true
			}
		}

		r.Levels = levelRows(e, missing)
		rows = append(rows, r)
	}

	return rows
}

func levelRows(e *dictionary.Entry, missing map[string]bool) []LevelRow {
	values := make(map[string]struct{})
	for v := range e.Levels {
		values[v] = struct{}{}
	}

	if e.Annotations != nil {
		for v := range e.Annotations.Levels {
			values[v] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(values))
	for v := range values {
		sorted = append(sorted, v)
	}

	sort.Strings(sorted)

	out := make([]LevelRow, 0, len(sorted))

	for _, v := range sorted {
		lr := LevelRow{Value: v, Description: e.Levels[v], Missing: missing[v]}

		if e.Annotations != nil {
			if t, ok := e.Annotations.Levels[v]; ok {
				lr.Term = labelOr(&t)
			}
		}

		out = append(out, lr)
	}

	return out
}

func termLabel(t *dictionary.TermRef) string {
	if t == nil {
		return ""
	}

	return labelOr(t)
}

func labelOr(t *dictionary.TermRef) string {
	if t.Label != "" {
		return t.Label
	}

	return t.TermURL
}

// quoteAll quotes values so that an empty missing value stays visible.
func quoteAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = `"` + v + `"`
	}

	return out
}
