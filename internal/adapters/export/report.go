// Package export turns reconciliation results into downloadable reports.
//
// A report has up to three sheets: pending source-A records, reconciled
// source-A records and unmatched source-B records. Bookkeeping fields are
// not exported; a Status column is appended instead. Empty sheets are
// left out.
package export

import (
	"errors"
	"slices"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

// Sheet names
const (
	SheetPending    = "Pending"
	SheetReconciled = "Reconciled"
	SheetUnmatched  = "Unmatched Counterparty"
)

// StatusColumn is appended to every sheet.
const StatusColumn = "Status"

// ErrEmptyReport is returned when every sheet would be empty.
var ErrEmptyReport = errors.New("no records to export")

// Sheet is one tab of a report.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// Report is a named set of sheets.
type Report struct {
	Name   string
	Sheets []Sheet
}

// Input is what a report is built from. Columns give the export order of
// each source; fields missing from them are appended in sorted order.
type Input struct {
	Name        string
	ColumnsA    []string
	ColumnsB    []string
	PendingA    []record.Record
	ReconciledA []record.Record
	UnmatchedB  []record.Record
}

// GeneralReportName is the file name of the whole-session report.
const GeneralReportName = "reconciliation_report"

// ProviderReportName returns the file name of a single-provider report.
func ProviderReportName(identifier string) string {
	return "provider_report_" + identifier
}

// Build assembles the report, omitting empty sheets.
func Build(in Input) (*Report, error) {
	rep := &Report{Name: in.Name}
	for _, s := range []struct {
		name    string
		columns []string
		records []record.Record
	}{
		{SheetPending, in.ColumnsA, in.PendingA},
		{SheetReconciled, in.ColumnsA, in.ReconciledA},
		{SheetUnmatched, in.ColumnsB, in.UnmatchedB},
	} {
		if len(s.records) == 0 {
			continue
		}
		rep.Sheets = append(rep.Sheets, buildSheet(s.name, s.columns, s.records))
	}
	if len(rep.Sheets) == 0 {
		return nil, ErrEmptyReport
	}
	return rep, nil
}

func buildSheet(name string, columns []string, records []record.Record) Sheet {
	cols := exportColumns(columns, records)
	sheet := Sheet{
		Name:    name,
		Columns: append(slices.Clone(cols), StatusColumn),
		Rows:    make([][]any, 0, len(records)),
	}
	for _, r := range records {
		row := make([]any, 0, len(cols)+1)
		for _, c := range cols {
			v, ok := r.Fields[c]
			if !ok || v == nil {
				v = ""
			}
			row = append(row, v)
		}
		row = append(row, string(r.Status))
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

func exportColumns(columns []string, records []record.Record) []string {
	cols := make([]string, 0, len(columns))
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		if c == StatusColumn || known[c] {
			continue
		}
		known[c] = true
		cols = append(cols, c)
	}

	var extra []string
	for _, r := range records {
		for k := range r.Fields {
			if !known[k] && k != StatusColumn {
				known[k] = true
				extra = append(extra, k)
			}
		}
	}
	slices.Sort(extra)
	return append(cols, extra...)
}
