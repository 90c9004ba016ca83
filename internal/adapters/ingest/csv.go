package ingest

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
)

var delimiters = []rune{',', ';', '\t'}

// readCSV parses delimited text. The delimiter is sniffed from the first
// line and cells are kept as trimmed strings.
func readCSV(r io.Reader) ([][]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	grid := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, cell := range rec {
			row[j] = strings.TrimSpace(cell)
		}
		grid[i] = row
	}
	return grid, nil
}

// sniffDelimiter picks the candidate occurring most often outside quotes on
// the first line, defaulting to a comma.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	counts := make(map[rune]int, len(delimiters))
	quoted := false
	for _, c := range string(line) {
		if c == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[c]++
		}
	}

	best := ','
	for _, d := range delimiters {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}
