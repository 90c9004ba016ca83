// Package ingest reads spreadsheet files into flat tables of rows keyed by
// header name.
//
// The first non-blank row is the header. Every later row that is not blank
// becomes one record.Fields with an entry for every column; empty cells hold
// the empty string.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

var (
	// ErrUnsupportedFormat is returned for file extensions other than
	// .xlsx, .xlsm, .csv and .txt.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoHeader is returned when a file holds no non-blank row.
	ErrNoHeader = errors.New("file has no header row")
)

// Table is one imported collection.
type Table struct {
	Name    string
	Columns []string
	Rows    []record.Fields
}

// ReadFile imports the file at path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(filepath.Base(path), f)
}

// Read imports r, choosing the parser from the extension of name.
func Read(name string, r io.Reader) (*Table, error) {
	var (
		grid [][]any
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx", ".xlsm":
		grid, err = readXLSX(r)
	case ".csv", ".txt":
		grid, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	t, err := fromGrid(grid)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	t.Name = name
	return t, nil
}

func fromGrid(grid [][]any) (*Table, error) {
	start := -1
	for i, row := range grid {
		if !blank(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}

	columns := headerNames(grid[start])
	t := &Table{Columns: columns}
	for _, row := range grid[start+1:] {
		if blank(row) {
			continue
		}
		fields := make(record.Fields, len(columns))
		for i, col := range columns {
			if i < len(row) && row[i] != nil {
				fields[col] = row[i]
			} else {
				fields[col] = ""
			}
		}
		t.Rows = append(t.Rows, fields)
	}
	return t, nil
}

// headerNames turns header cells into unique column names. Empty headers
// become "Column N" and repeats get a " (2)", " (3)" suffix.
func headerNames(cells []any) []string {
	names := make([]string, len(cells))
	used := make(map[string]bool, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(fmt.Sprint(valueOrEmpty(c)))
		if name == "" {
			name = fmt.Sprintf("Column %d", i+1)
		}
		if used[name] {
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s (%d)", name, n)
				if !used[candidate] {
					name = candidate
					break
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func valueOrEmpty(v any) any {
	if v == nil {
		return ""
	}
	return v
}

func blank(row []any) bool {
	for _, c := range row {
		if s, ok := c.(string); ok {
			if strings.TrimSpace(s) != "" {
				return false
			}
			continue
		}
		if c != nil {
			return false
		}
	}
	return true
}
