package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// WriteCSVSheet writes one sheet as comma-separated text.
func WriteCSVSheet(w io.Writer, s Sheet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Columns); err != nil {
		return err
	}
	for _, row := range s.Rows {
		out := make([]string, len(row))
		for i, v := range row {
			out[i] = cellText(v)
		}
		if err := cw.Write(out); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVDir writes every sheet of rep to its own file in dir and returns
// the paths written.
func WriteCSVDir(dir string, rep *Report) ([]string, error) {
	if rep == nil || len(rep.Sheets) == 0 {
		return nil, ErrEmptyReport
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(rep.Sheets))
	for _, s := range rep.Sheets {
		path := filepath.Join(dir, csvFileName(rep.Name, s.Name))
		if err := writeCSVFile(path, s); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeCSVFile(path string, s Sheet) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSVSheet(f, s); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func csvFileName(report, sheet string) string {
	slug := strings.ToLower(strings.ReplaceAll(sheet, " ", "_"))
	if report == "" {
		return slug + ".csv"
	}
	return report + "_" + slug + ".csv"
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02")
	}
	return fmt.Sprint(v)
}
