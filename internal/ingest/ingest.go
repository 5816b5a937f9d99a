package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"dictionary-annotator/internal/annotation"
	"dictionary-annotator/internal/dictionary"
	"dictionary-annotator/internal/diagnostic"
	"dictionary-annotator/internal/match"
	"dictionary-annotator/internal/metrics"
	"dictionary-annotator/internal/table"
	"dictionary-annotator/internal/vocab"
)

// Result is a reconciled annotation state plus what had to be fixed up.
type Result struct {
	State       annotation.State
	Diagnostics *diagnostic.Diagnostics
}

// ParseAndIngest parses raw uploads and ingests them. dictionaryData may be
// empty when no dictionary was uploaded.
func ParseAndIngest(tableName string, tableData, dictionaryData []byte, cfg *vocab.Config) (res *Result, err error) {
	start := time.Now()
	defer func() { metrics.ObserveIngest(metrics.ResultOf(err), time.Since(start)) }()

	tbl, err := table.Parse(tableName, tableData)
	if err != nil {
		return nil, err
	}

	var doc *dictionary.Document

	if len(dictionaryData) > 0 {
		doc, err = dictionary.Parse(dictionaryData)
		if err != nil {
			return nil, err
		}
	}

	return Ingest(tbl, doc, cfg)
}

// Ingest builds the annotation state for tbl, seeded from doc when it is
// not nil. Column ids are the 1-based column positions.
func Ingest(tbl *table.Table, doc *dictionary.Document, cfg *vocab.Config) (*Result, error) {
	if tbl == nil {
		return nil, errors.New("ingest: no table")
	}

	if cfg == nil {
		return nil, annotation.ErrNoConfig
	}

	in := &ingester{cfg: cfg, diags: &diagnostic.Diagnostics{}}
	columns := in.columns(tbl)

	if doc != nil {
		matched := in.matchEntries(doc, columns)

		for i := range columns {
			if key, ok := matched[i]; ok {
				entry, _ := doc.Get(key)
				in.seed(&columns[i], entry)
			}
		}
	}

	return &Result{
		State: annotation.State{
			Columns: columns,
			Cards:   in.cards(columns),
		},
		Diagnostics: in.diags,
	}, nil
}

type ingester struct {
	cfg   *vocab.Config
	diags *diagnostic.Diagnostics
}

func (in *ingester) columns(tbl *table.Table) []annotation.Column {
	columns := make([]annotation.Column, tbl.NumColumns())
	seen := make(map[string]bool)

	for i, header := range tbl.Headers {
		if seen[header] {
			in.diags.AddWarning(diagnostic.CodeDuplicateHeader,
				"header appears more than once; only the first column is matched to the dictionary", header, "")
		}

		seen[header] = true
		columns[i] = annotation.Column{
			ID:        strconv.Itoa(i + 1),
			Header:    header,
			AllValues: tbl.Column(i),
		}
	}

	return columns
}

// matchEntries pairs dictionary keys with column indexes: exact header
// matches first, then unambiguous normalized matches.
func (in *ingester) matchEntries(doc *dictionary.Document, columns []annotation.Column) map[int]string {
	matched := make(map[int]string)

	var pending []string

	for _, key := range doc.Keys() {
		found := false

		for i := range columns {
			if _, used := matched[i]; !used && columns[i].Header == key {
				matched[i] = key
				found = true

				break
			}
		}

		if !found {
			pending = append(pending, key)
		}
	}

	for _, key := range pending {
		normalized := match.NormalizeKey(key)
		idx := -1

		for i := range columns {
			if _, used := matched[i]; used || match.NormalizeKey(columns[i].Header) != normalized {
				continue
			}

			if idx >= 0 {
				idx = -2
				break
			}

			idx = i
		}

		if idx >= 0 {
			matched[idx] = key

			in.diags.AddInfo(diagnostic.CodeFuzzyHeaderMatch,
				fmt.Sprintf("dictionary entry %q matched by normalized name", key), columns[idx].Header, "")

			continue
		}

		options := make([]match.Option, 0, len(columns))
		for _, c := range columns {
			options = append(options, match.Option{Key: c.Header})
		}

		in.diags.AddWarning(diagnostic.CodeUnmatchedEntry,
			fmt.Sprintf("dictionary entry %q matches no table column and is dropped", key), "", key,
			match.Suggest(key, options, 3)...)
	}

	return matched
}
