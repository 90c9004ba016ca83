// Package record defines the reconciliation record model shared by every
// domain package.
//
// A record is a flat row as produced by import (column name to value) plus
// the bookkeeping the reconciler attaches to it: the row's position in its
// source collection, its status and, once reconciled, the match id linking it
// to its counterpart in the other source.
package record

// Source identifies one of the two ledgers being reconciled.
type Source string

const (
	// SourceA is the primary ledger (e.g. the tax authority report).
	SourceA Source = "a"
	// SourceB is the counterparty ledger (e.g. the accounting export).
	SourceB Source = "b"
)

// Valid reports whether s is one of the two known sources.
func (s Source) Valid() bool {
	return s == SourceA || s == SourceB
}

// Other returns the opposite source.
func (s Source) Other() Source {
	if s == SourceA {
		return SourceB
	}
	return SourceA
}

// Status is the lifecycle state of a record.
type Status string

const (
	StatusPending    Status = "pending"
	StatusReconciled Status = "reconciled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusReconciled
}

// Fields is a raw imported row. Values are strings, numbers or time.Time.
type Fields map[string]any

// Clone returns a shallow copy of the row. Values are primitives so a
// shallow copy is enough to keep callers from mutating the original.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ColumnMapping names the columns holding the identifier and the amount.
type ColumnMapping struct {
	Identifier string `json:"identifier" yaml:"identifier"`
	Amount     string `json:"amount" yaml:"amount"`
}

// Complete reports whether both columns have been chosen.
func (m ColumnMapping) Complete() bool {
	return m.Identifier != "" && m.Amount != ""
}

// Record is a raw row augmented with reconciliation bookkeeping.
type Record struct {
	Fields        Fields
	OriginalIndex int
	Status        Status
	MatchID       string
}

// IsPending reports whether the record is still waiting for a match.
func (r Record) IsPending() bool {
	return r.Status == StatusPending
}

// IsReconciled reports whether the record belongs to a match group.
func (r Record) IsReconciled() bool {
	return r.Status == StatusReconciled
}

// Clone returns a copy whose Fields can be modified independently.
func (r Record) Clone() Record {
	r.Fields = r.Fields.Clone()
	return r
}

// FromRows turns an imported collection into pending records. Nil rows are
// dropped before positions are assigned, so OriginalIndex always equals the
// record's position in the returned slice.
func FromRows(rows []Fields) []*Record {
	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		records = append(records, &Record{
			Fields:        row.Clone(),
			OriginalIndex: len(records),
			Status:        StatusPending,
		})
	}
	return records
}
