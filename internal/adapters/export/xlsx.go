package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is the longest sheet name a workbook accepts.
const maxSheetName = 31

// WriteXLSX writes rep as a workbook with one tab per sheet.
func WriteXLSX(w io.Writer, rep *Report) error {
	if rep == nil || len(rep.Sheets) == 0 {
		return ErrEmptyReport
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range rep.Sheets {
		name := sheetName(s.Name)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		header := make([]any, len(s.Columns))
		for j, c := range s.Columns {
			header[j] = c
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		for j, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, j+2)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				return fmt.Errorf("sheet %s row %d: %w", name, j+1, err)
			}
		}
	}
	f.SetActiveSheet(0)

	_, err := f.WriteTo(w)
	return err
}

func sheetName(name string) string {
	r := []rune(name)
	if len(r) > maxSheetName {
		return string(r[:maxSheetName])
	}
	return name
}
