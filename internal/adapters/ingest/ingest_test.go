package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

func TestRead_CSVSemicolon(t *testing.T) {
	// Arrange
	data := "\xef\xbb\xbfCUIT;Razón Social;Monto Retenido\n" +
		"20-12345678-9;\"Pérez; Juan\";1.234,50\n" +
		";;\n" +
		"30-71234567-1;ACME SA;500\n"

	// Act
	table, err := Read("arca.csv", strings.NewReader(data))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "arca.csv", table.Name)
	assert.Equal(t, []string{"CUIT", "Razón Social", "Monto Retenido"}, table.Columns)
	require.Len(t, table.Rows, 2, "blank row skipped")
	assert.Equal(t, record.Fields{
		"CUIT":           "20-12345678-9",
		"Razón Social":   "Pérez; Juan",
		"Monto Retenido": "1.234,50",
	}, table.Rows[0])
}

func TestRead_CSVCommaAndRaggedRows(t *testing.T) {
	data := "Cuit,Crédito,Notas\n20123456789,1234.5\n"

	table, err := Read("contabilidad.CSV", strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0]["Notas"], "missing cells default to empty")
}

func TestRead_TabDelimited(t *testing.T) {
	table, err := Read("export.txt", strings.NewReader("a\tb\n1\t2\n"))

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, table.Columns)
	assert.Equal(t, "2", table.Rows[0]["b"])
}

func TestRead_HeaderNames(t *testing.T) {
	table, err := Read("dup.csv", strings.NewReader("Monto,,Monto,Monto (2)\n1,2,3,4\n"))

	require.NoError(t, err)
	assert.Equal(t, []string{"Monto", "Column 2", "Monto (2)", "Monto (2) (2)"}, table.Columns)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read("report.pdf", strings.NewReader("x"))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Read("empty.csv", strings.NewReader("\n ,  \n"))
	require.ErrorIs(t, err, ErrNoHeader)

	_, err = Read("broken.xlsx", strings.NewReader("not a zip"))
	require.Error(t, err)
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', sniffDelimiter([]byte("a;b;c\n1,5;2;3")))
	assert.Equal(t, ',', sniffDelimiter([]byte("a,b\n")))
	assert.Equal(t, '\t', sniffDelimiter([]byte("a\tb\tc")))
	assert.Equal(t, ',', sniffDelimiter([]byte(`"x;y;z",b`)), "quoted separators ignored")
	assert.Equal(t, ',', sniffDelimiter([]byte("single")))
}

func writeWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRead_XLSXTypedCells(t *testing.T) {
	// Arrange
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	data := writeWorkbook(t, [][]any{
		{"CUIT", "Fecha", "Monto Retenido"},
		{"20-12345678-9", date, 1234.5},
		{nil, nil, nil},
		{30712345671, "", "n/a"},
	})

	// Act
	table, err := Read("arca.xlsx", bytes.NewReader(data))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"CUIT", "Fecha", "Monto Retenido"}, table.Columns)
	require.Len(t, table.Rows, 2)

	first := table.Rows[0]
	assert.Equal(t, "20-12345678-9", first["CUIT"])
	assert.Equal(t, 1234.5, first["Monto Retenido"])
	if d, ok := first["Fecha"].(time.Time); assert.True(t, ok, "date cell should be time.Time, got %T", first["Fecha"]) {
		assert.Equal(t, date.Format("2006-01-02"), d.Format("2006-01-02"))
	}

	second := table.Rows[1]
	assert.Equal(t, float64(30712345671), second["CUIT"])
	assert.Equal(t, "", second["Fecha"])
	assert.Equal(t, "n/a", second["Monto Retenido"])
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contabilidad.xlsx")
	require.NoError(t, os.WriteFile(path, writeWorkbook(t, [][]any{{"Cuit", "Crédito"}, {"20123456789", 10.0}}), 0644))

	table, err := ReadFile(path)

	require.NoError(t, err)
	assert.Equal(t, "contabilidad.xlsx", table.Name)
	assert.Equal(t, 10.0, table.Rows[0]["Crédito"])

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSuggest(t *testing.T) {
	columnsA := []string{"Fecha", "CUIT Agente", "Monto Retenido", "Monto Sujeto"}
	columnsB := []string{"Fecha", "Cuit", "Débito", "Crédito"}

	tests := []struct {
		name    string
		columns []string
		hints   []string
		want    string
	}{
		{"identifier A", columnsA, []string{"cuit"}, "CUIT Agente"},
		{"amount A", columnsA, []string{"monto retenido"}, "Monto Retenido"},
		{"amount B prefers column order", columnsB, []string{"crédito", "monto"}, "Crédito"},
		{"no match", columnsB, []string{"importe"}, ""},
		{"empty hints", columnsB, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(tt.columns, tt.hints))
		})
	}
}

func TestSuggestMapping(t *testing.T) {
	m := SuggestMapping([]string{"CUIT", "Monto Retenido"}, []string{"cuit"}, []string{"monto retenido"})

	assert.Equal(t, record.ColumnMapping{Identifier: "CUIT", Amount: "Monto Retenido"}, m)
	assert.True(t, m.Complete())
}
