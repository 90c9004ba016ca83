package ingest

import (
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first sheet of a workbook. Numeric cells become
// float64, date-formatted numeric cells become time.Time and everything
// else stays text.
func readXLSX(r io.Reader) ([][]any, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	grid := make([][]any, len(rows))
	for i, row := range rows {
		out := make([]any, len(row))
		for j, raw := range row {
			out[j] = cellValue(f, sheet, i, j, raw)
		}
		grid[i] = out
	}
	return grid, nil
}

func cellValue(f *excelize.File, sheet string, row, col int, raw string) any {
	if raw == "" {
		return raw
	}
	cell, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return raw
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil || (typ != excelize.CellTypeUnset && typ != excelize.CellTypeNumber) {
		return raw
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	if isDateCell(f, sheet, cell) {
		if t, err := excelize.ExcelDateToTime(n, false); err == nil {
			return t
		}
	}
	return n
}

// isDateCell reports whether the cell uses one of the built-in date or
// time number formats.
func isDateCell(f *excelize.File, sheet, cell string) bool {
	styleID, err := f.GetCellStyle(sheet, cell)
	if err != nil || styleID == 0 {
		return false
	}
	style, err := f.GetStyle(styleID)
	if err != nil {
		return false
	}
	switch {
	case style.NumFmt >= 14 && style.NumFmt <= 22:
		return true
	case style.NumFmt >= 45 && style.NumFmt <= 47:
		return true
	}
	return false
}
