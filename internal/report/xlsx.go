package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"dictionary-annotator/internal/dictionary"
)

const (
	columnsSheet = "columns"
	levelsSheet  = "levels"
)

var (
	columnsHeader = []any{"Column", "Description", "Variable", "Variable URL", "Variable type", "Units", "Format", "Is part of", "Missing values"}
	levelsHeader  = []any{"Column", "Value", "Description", "Term", "Missing"}
)

// BuildXLSX renders doc as a workbook with a columns sheet and a levels sheet.
func BuildXLSX(doc *dictionary.Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), columnsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	if _, err := f.NewSheet(levelsSheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}

	if err := f.SetSheetRow(columnsSheet, "A1", &columnsHeader); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(levelsSheet, "A1", &levelsHeader); err != nil {
		return nil, err
	}

	levelRow := 2

	for i, r := range Rows(doc) {
		row := []any{r.Column, r.Description, r.Variable, r.VariableURL, r.VariableType, r.Units, r.Format, r.IsPartOf, r.MissingValues}
		if err := f.SetSheetRow(columnsSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, err
		}

		for _, l := range r.Levels {
			missing := "no"
			if l.Missing {
				missing = "yes"
			}

			lrow := []any{r.Column, l.Value, l.Description, l.Term, missing}
			if err := f.SetSheetRow(levelsSheet, fmt.Sprintf("A%d", levelRow), &lrow); err != nil {
				return nil, err
			}

			levelRow++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}
