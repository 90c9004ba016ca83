package session

import (
	"github.com/eshaffer321/ledger-reconciler/internal/adapters/export"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

// Report builds the general report, or the report of one provider when
// identifier is not empty.
func (s *Session) Report(identifier string) (*export.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil {
		return nil, ErrNoResults
	}

	in := export.Input{
		Name:        export.GeneralReportName,
		ColumnsA:    s.tables[record.SourceA].Columns,
		ColumnsB:    s.tables[record.SourceB].Columns,
		PendingA:    s.store.RecordsByStatus(record.SourceA, record.StatusPending),
		ReconciledA: s.store.RecordsByStatus(record.SourceA, record.StatusReconciled),
		UnmatchedB:  s.store.RecordsByStatus(record.SourceB, record.StatusPending),
	}

	if identifier != "" {
		id := normalizer.Identifier(identifier)
		in.Name = export.ProviderReportName(id)
		in.PendingA = s.forIdentifier(record.SourceA, id, in.PendingA)
		in.ReconciledA = s.forIdentifier(record.SourceA, id, in.ReconciledA)
		in.UnmatchedB = s.forIdentifier(record.SourceB, id, in.UnmatchedB)
	}

	rep, err := export.Build(in)
	if err != nil {
		return nil, err
	}
	s.logger.Info("report built", "name", rep.Name, "sheets", len(rep.Sheets))
	return rep, nil
}

func (s *Session) forIdentifier(source record.Source, id string, recs []record.Record) []record.Record {
	col := s.cols[source].Identifier
	var out []record.Record
	for _, r := range recs {
		if normalizer.Normalize(r.Fields, col, "").Identifier == id {
			out = append(out, r)
		}
	}
	return out
}
