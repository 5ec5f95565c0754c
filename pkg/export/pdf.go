package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 277.0

// RenderPDF lays the table out on landscape A4 pages, repeating the header on each page.
func RenderPDF(t Table) ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	colWidth := pageWidth / float64(len(t.Columns))

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, col := range t.Columns {
			pdf.CellFormat(colWidth, 7, tr(col), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	pdf.SetHeaderFunc(func() {
		if t.Title != "" {
			pdf.SetFont("Helvetica", "B", 13)
			pdf.CellFormat(0, 9, tr(t.Title), "", 1, "L", false, 0, "")
		}
		header()
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 7)
		footer := fmt.Sprintf("Generated %s - page %d", time.Now().UTC().Format("2006-01-02 15:04 MST"), pdf.PageNo())
		pdf.CellFormat(0, 5, footer, "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	for _, row := range t.Rows {
		for _, cell := range row {
			pdf.CellFormat(colWidth, 6, tr(cell), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
