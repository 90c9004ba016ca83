package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/aggregate"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/validator"
)

// FormatAmount renders an amount with two decimals.
func FormatAmount(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// PrintColumns prints the columns of a source and the suggested mapping.
func PrintColumns(w io.Writer, name string, columns []string, suggested record.ColumnMapping) {
	fmt.Fprintf(w, "%s: %d columns\n", name, len(columns))
	for _, c := range columns {
		marker := "  "
		switch c {
		case suggested.Identifier:
			marker = "id"
		case suggested.Amount:
			marker = "$ "
		}
		fmt.Fprintf(w, "  %s %s\n", marker, c)
	}
}

// PrintSummary prints the outcome of an automatic pass.
func PrintSummary(w io.Writer, s *session.ReconcileSummary) {
	o := s.Overview
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Records: A=%d B=%d | Automatic matches: %d", s.RecordsA, s.RecordsB, s.AutoMatches)
	if s.RunID != 0 {
		fmt.Fprintf(w, " | Run: %d", s.RunID)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%-28s %16s %8s\n", "", "Amount", "Count")
	fmt.Fprintf(w, "%-28s %16s %8d\n", "Source A total", FormatAmount(o.TotalA), s.RecordsA)
	fmt.Fprintf(w, "%-28s %16s %8d\n", "Reconciled", FormatAmount(o.ReconciledAmount), o.ReconciledCount)
	fmt.Fprintf(w, "%-28s %16s %8d\n", "Pending", FormatAmount(o.PendingAmount), o.PendingCount)
	fmt.Fprintf(w, "%-28s %16s %8d\n", "Source B total", FormatAmount(o.TotalB), s.RecordsB)
	fmt.Fprintf(w, "%-28s %16s %8d\n", "Unmatched counterparty", FormatAmount(o.UnmatchedAmount), o.UnmatchedCount)

	printQuality(w, "A", o.QualityA)
	printQuality(w, "B", o.QualityB)
}

func printQuality(w io.Writer, side string, q validator.Quality) {
	if q.Clean() {
		return
	}
	fmt.Fprintf(w, "\nData quality (%s): empty identifiers=%d zero amounts=%d unparsable amounts=%d\n",
		side, q.EmptyIdentifiers, q.ZeroAmounts, q.UnparsableAmounts)
}

// PrintProviders prints one line per provider with its totals.
func PrintProviders(w io.Writer, summaries []aggregate.ProviderSummary) {
	fmt.Fprintf(w, "%-14s %16s %16s %16s %8s %8s\n", "Identifier", "Total A", "Total B", "Difference", "Pending", "Unmatch.")
	for _, p := range summaries {
		fmt.Fprintf(w, "%-14s %16s %16s %16s %8d %8d\n",
			p.Identifier,
			FormatAmount(p.TotalA),
			FormatAmount(p.TotalB),
			FormatAmount(p.Difference),
			len(p.PendingA),
			len(p.UnmatchedB))
	}
}
