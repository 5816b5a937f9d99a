package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"dictionary-annotator/internal/dictionary"
)

// BuildPDF renders a printable summary of doc.
func BuildPDF(doc *dictionary.Document, title string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(tr(title), false)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, tr(title))
	pdf.Ln(10)

	rows := Rows(doc)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 5, fmt.Sprintf("%d columns", len(rows)))
	pdf.Ln(8)

	for _, r := range rows {
		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(0, 6, tr(r.Column))
		pdf.Ln(6)

		pdf.SetFont("Arial", "", 9)

		for _, field := range [][2]string{
			{"Description", r.Description},
			{"Variable", r.Variable},
			{"Variable type", r.VariableType},
			{"Units", r.Units},
			{"Format", r.Format},
			{"Is part of", r.IsPartOf},
			{"Missing values", r.MissingValues},
		} {
			if field[1] == "" {
				continue
			}

			pdf.CellFormat(35, 5, field[0], "", 0, "L", false, 0, "")
			pdf.MultiCell(0, 5, tr(field[1]), "", "L", false)
		}

		if len(r.Levels) > 0 {
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(35, 5, "Value", "1", 0, "C", false, 0, "")
			pdf.CellFormat(80, 5, "Description", "1", 0, "C", false, 0, "")
			pdf.CellFormat(60, 5, "Term", "1", 0, "C", false, 0, "")
			pdf.Ln(-1)
			pdf.SetFont("Arial", "", 9)

			for _, l := range r.Levels {
				value := l.Value
				if l.Missing {
					value += " (missing)"
				}

				pdf.CellFormat(35, 5, tr(value), "1", 0, "L", false, 0, "")
				pdf.CellFormat(80, 5, tr(l.Description), "1", 0, "L", false, 0, "")
				pdf.CellFormat(60, 5, tr(l.Term), "1", 0, "L", false, 0, "")
				pdf.Ln(-1)
			}
		}

		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	return buf.Bytes(), nil
}
