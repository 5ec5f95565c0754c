package export

import (
	"errors"
	"fmt"
	"strings"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts csv or pdf, case-insensitively. Empty means csv.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Table is a titled grid of string cells. Every row has one cell per column.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// AddRow appends a row, padding or truncating it to the column count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

func (t Table) validate() error {
	if len(t.Columns) == 0 {
		return errors.New("export requires at least one column")
	}
	return nil
}

// Render encodes the table in format f.
func Render(t Table, f Format) ([]byte, error) {
	switch f {
	case FormatPDF:
		return RenderPDF(t)
	default:
		return RenderCSV(t)
	}
}
