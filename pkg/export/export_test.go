package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable() Table {
	t := Table{Title: "Histórico de presença", Columns: []string{"Date", "Class", "Status"}}
	t.AddRow("2024-05-01", "Fundamentos", "present")
	t.AddRow("2024-05-03", "Avançado, noite")
	return t
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat("PDF")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(sampleTable(), FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "Date,Class,Status\n2024-05-01,Fundamentos,present\n2024-05-03,\"Avançado, noite\",\n", string(out))
}

func TestRenderPDF(t *testing.T) {
	out, err := Render(sampleTable(), FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRenderRequiresColumns(t *testing.T) {
	_, err := RenderCSV(Table{})
	assert.Error(t, err)
	_, err = RenderPDF(Table{})
	assert.Error(t, err)
}
