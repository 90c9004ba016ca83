package ingest

import (
	"strings"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

// Suggest returns the first column whose name contains any of hints,
// ignoring case, or "" when none does.
func Suggest(columns, hints []string) string {
	for _, col := range columns {
		name := strings.ToLower(col)
		for _, h := range hints {
			if h != "" && strings.Contains(name, strings.ToLower(h)) {
				return col
			}
		}
	}
	return ""
}

// SuggestMapping proposes identifier and amount columns for a table.
func SuggestMapping(columns, identifierHints, amountHints []string) record.ColumnMapping {
	return record.ColumnMapping{
		Identifier: Suggest(columns, identifierHints),
		Amount:     Suggest(columns, amountHints),
	}
}
