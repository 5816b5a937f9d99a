package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"dictionary-annotator/internal/common"
)

// ErrMalformedTable is returned for input that cannot be read as a table.
var ErrMalformedTable = errors.New("malformed table")

// Format is a supported input file format.
type Format string

const (
	FormatTSV  Format = "tsv"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf infers the format from a file name. Unknown extensions are read
// as tab-separated.
func FormatOf(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatTSV
	}
}

// Table is a parsed table. Every row has exactly len(Headers) cells.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Parse reads data in the format inferred from name.
func Parse(name string, data []byte) (*Table, error) {
	switch FormatOf(name) {
	case FormatCSV:
		return ParseDelimited(data, ',')
	case FormatXLSX:
		return ParseXLSX(data)
	default:
		return ParseDelimited(data, '\t')
	}
}

// NormalizeLineEndings converts \r\n and bare \r to \n.
func NormalizeLineEndings(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")

	return strings.ReplaceAll(s, "\r", "\n")
}

// ParseDelimited reads delimiter-separated text. The first line is the
// header. A final line terminator does not start an extra row, but blank
// lines before it are rows of empty cells.
func ParseDelimited(data []byte, delimiter rune) (*Table, error) {
	text := NormalizeLineEndings(string(bytes.TrimPrefix(data, []byte("\ufeff"))))

	var (
		records [][]string
		err     error
	)

	if delimiter == '\t' {
		records = splitTabs(text)
	} else {
		records, err = readCSV(text, delimiter)
		if err != nil {
			return nil, err
		}
	}

	return build(records)
}

// splitTabs splits TSV without quote handling; quotes are literal in TSV.
func splitTabs(text string) [][]string {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	records := make([][]string, len(lines))
	for i, line := range lines {
		records[i] = strings.Split(line, "\t")
	}

	return records
}

func readCSV(text string, delimiter rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delimiter
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}

	// Quoted cells may still carry line breaks
	for _, rec := range records {
		for i := range rec {
			rec[i] = NormalizeLineEndings(rec[i])
		}
	}

	return records, nil
}

// ParseXLSX reads the first sheet of an Excel workbook.
func ParseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrMalformedTable)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}

	for _, row := range rows {
		for i := range row {
			row[i] = NormalizeLineEndings(row[i])
		}
	}

	// GetRows omits trailing empty cells, so short rows are expected here
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}

	return build(rows)
}

func build(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrMalformedTable)
	}

	headers := records[0]
	if len(headers) == 1 && strings.TrimSpace(headers[0]) == "" {
		return nil, fmt.Errorf("%w: empty header row", ErrMalformedTable)
	}

	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	rows := make([][]string, 0, len(records)-1)

	for n, rec := range records[1:] {
		if len(rec) > len(headers) {
			return nil, fmt.Errorf("%w: row %d has %d cells, header has %d", ErrMalformedTable, n+2, len(rec), len(headers))
		}

		row := make([]string, len(headers))
		copy(row, rec)
		rows = append(rows, row)
	}

	return &Table{Headers: headers, Rows: rows}, nil
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	return len(t.Headers)
}

// Column returns the values of column i in row order.
func (t *Table) Column(i int) []string {
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}

	return out
}

// UniqueValues returns the distinct values of column i in order of first appearance.
func (t *Table) UniqueValues(i int) []string {
	return common.Unique(t.Column(i))
}
