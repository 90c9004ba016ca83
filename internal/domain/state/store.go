// Package state owns the reconciliation records of both sources and the
// only two operations allowed to change them.
//
// Every other component refers to records by (source, original index) and
// reads them through the store. Mutations validate the whole request before
// touching anything, so a refused request leaves the store unchanged.
package state

import (
	"fmt"
	"slices"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

// Group is the set of records sharing one match id.
type Group struct {
	MatchID string
	A       []int
	B       []int
}

func (g Group) clone() Group {
	return Group{MatchID: g.MatchID, A: slices.Clone(g.A), B: slices.Clone(g.B)}
}

// Anomaly describes a group found without any source-B partner while
// rolling it back. Its source-A records are reverted anyway.
type Anomaly struct {
	MatchID string
	A       []int
	Reason  string
}

// DereconcileResult lists what a rollback reverted.
type DereconcileResult struct {
	// Groups holds every reverted group in the order its first selected
	// source-A record appeared in the request.
	Groups    []Group
	Anomalies []Anomaly
}

// Reverted returns how many records were returned to pending per source.
func (r *DereconcileResult) Reverted() (a, b int) {
	for _, g := range r.Groups {
		a += len(g.A)
		b += len(g.B)
	}
	return a, b
}

// Store holds the records of both sources.
type Store struct {
	a      []*record.Record
	b      []*record.Record
	groups map[string]*Group
}

// NewStore builds a store from the imported rows of each source. Every
// record starts pending with its position as original index.
func NewStore(a, b []record.Fields) *Store {
	return &Store{
		a:      record.FromRows(a),
		b:      record.FromRows(b),
		groups: make(map[string]*Group),
	}
}

func (s *Store) side(source record.Source) []*record.Record {
	if source == record.SourceB {
		return s.b
	}
	return s.a
}

// Len returns the number of records in source.
func (s *Store) Len(source record.Source) int {
	return len(s.side(source))
}

// Record returns a copy of one record.
func (s *Store) Record(source record.Source, index int) (record.Record, bool) {
	recs := s.side(source)
	if index < 0 || index >= len(recs) {
		return record.Record{}, false
	}
	return recs[index].Clone(), true
}

// Records returns copies of all records of source in original order.
func (s *Store) Records(source record.Source) []record.Record {
	recs := s.side(source)
	out := make([]record.Record, len(recs))
	for i, r := range recs {
		out[i] = r.Clone()
	}
	return out
}

// RecordsByStatus returns copies of the records of source with the given
// status, in original order.
func (s *Store) RecordsByStatus(source record.Source, status record.Status) []record.Record {
	var out []record.Record
	for _, r := range s.side(source) {
		if r.Status == status {
			out = append(out, r.Clone())
		}
	}
	return out
}

// Group returns a copy of the live group with the given match id.
func (s *Store) Group(matchID string) (Group, bool) {
	g, ok := s.groups[matchID]
	if !ok {
		return Group{}, false
	}
	return g.clone(), true
}

// MatchIDs returns every live match id, sorted.
func (s *Store) MatchIDs() []string {
	ids := make([]string, 0, len(s.groups))
	for id := range s.groups {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ApplyReconcile marks the given pending records of both sources as one
// group under matchID. Either every record transitions or none does.
// Duplicate indices are collapsed.
func (s *Store) ApplyReconcile(aIndices, bIndices []int, matchID string) error {
	if matchID == "" {
		return ErrEmptyMatchID
	}
	if _, ok := s.groups[matchID]; ok {
		return fmt.Errorf("%w: %s", ErrMatchIDInUse, matchID)
	}
	aIndices, bIndices = unique(aIndices), unique(bIndices)
	if len(aIndices) == 0 || len(bIndices) == 0 {
		return ErrIncompleteGroup
	}
	if err := s.checkPending(record.SourceA, aIndices); err != nil {
		return err
	}
	if err := s.checkPending(record.SourceB, bIndices); err != nil {
		return err
	}

	for _, i := range aIndices {
		s.a[i].Status, s.a[i].MatchID = record.StatusReconciled, matchID
	}
	for _, i := range bIndices {
		s.b[i].Status, s.b[i].MatchID = record.StatusReconciled, matchID
	}
	s.groups[matchID] = &Group{MatchID: matchID, A: aIndices, B: bIndices}
	return nil
}

func (s *Store) checkPending(source record.Source, indices []int) error {
	recs := s.side(source)
	for _, i := range indices {
		if i < 0 || i >= len(recs) {
			return &RecordError{Source: source, Index: i, Err: ErrUnknownRecord}
		}
		r := recs[i]
		if !r.IsPending() || r.MatchID != "" {
			return &RecordError{Source: source, Index: i, Status: r.Status, Err: ErrNotPending}
		}
	}
	return nil
}

// ApplyDereconcile rolls back the groups of the given reconciled source-A
// records. Each distinct group is reverted whole: all of its records on
// both sides return to pending with their match id cleared. A group with
// no source-B record is still reverted and reported as an anomaly.
func (s *Store) ApplyDereconcile(aIndices []int) (*DereconcileResult, error) {
	aIndices = unique(aIndices)
	if len(aIndices) == 0 {
		return nil, fmt.Errorf("%w: no records given", ErrNotReconciled)
	}

	var matchIDs []string
	seen := make(map[string]bool)
	for _, i := range aIndices {
		if i < 0 || i >= len(s.a) {
			return nil, &RecordError{Source: record.SourceA, Index: i, Err: ErrUnknownRecord}
		}
		r := s.a[i]
		if !r.IsReconciled() || r.MatchID == "" {
			return nil, &RecordError{Source: record.SourceA, Index: i, Status: r.Status, Err: ErrNotReconciled}
		}
		if !seen[r.MatchID] {
			seen[r.MatchID] = true
			matchIDs = append(matchIDs, r.MatchID)
		}
	}

	result := &DereconcileResult{}
	for _, id := range matchIDs {
		g := s.collectGroup(id)
		for _, i := range g.A {
			s.a[i].Status, s.a[i].MatchID = record.StatusPending, ""
		}
		for _, i := range g.B {
			s.b[i].Status, s.b[i].MatchID = record.StatusPending, ""
		}
		delete(s.groups, id)

		result.Groups = append(result.Groups, g)
		if len(g.B) == 0 {
			result.Anomalies = append(result.Anomalies, Anomaly{
				MatchID: id,
				A:       slices.Clone(g.A),
				Reason:  "no counterparty record carries this match id",
			})
		}
	}
	return result, nil
}

// collectGroup gathers the group from the records themselves rather than
// the group index, so records that drifted from the index are still found.
func (s *Store) collectGroup(matchID string) Group {
	g := Group{MatchID: matchID}
	for _, r := range s.a {
		if r.IsReconciled() && r.MatchID == matchID {
			g.A = append(g.A, r.OriginalIndex)
		}
	}
	for _, r := range s.b {
		if r.IsReconciled() && r.MatchID == matchID {
			g.B = append(g.B, r.OriginalIndex)
		}
	}
	return g
}

// CheckInvariants verifies the store's internal consistency: positions equal
// original indices, reconciled records carry a match id and pending ones
// do not, and every live group has records on both sides that agree with
// the group index.
func (s *Store) CheckInvariants() error {
	counts := make(map[string][2]int)
	for _, source := range []record.Source{record.SourceA, record.SourceB} {
		for pos, r := range s.side(source) {
			if r.OriginalIndex != pos {
				return fmt.Errorf("source %s position %d holds original index %d", source, pos, r.OriginalIndex)
			}
			switch r.Status {
			case record.StatusPending:
				if r.MatchID != "" {
					return fmt.Errorf("source %s record %d is pending with match id %q", source, pos, r.MatchID)
				}
			case record.StatusReconciled:
				if r.MatchID == "" {
					return fmt.Errorf("source %s record %d is reconciled without a match id", source, pos)
				}
				c := counts[r.MatchID]
				if source == record.SourceA {
					c[0]++
				} else {
					c[1]++
				}
				counts[r.MatchID] = c
			default:
				return fmt.Errorf("source %s record %d has unknown status %q", source, pos, r.Status)
			}
		}
	}

	if len(counts) != len(s.groups) {
		return fmt.Errorf("records reference %d match ids, index holds %d", len(counts), len(s.groups))
	}
	for id, c := range counts {
		g, ok := s.groups[id]
		if !ok {
			return fmt.Errorf("match id %s missing from group index", id)
		}
		if c[0] == 0 || c[1] == 0 {
			return fmt.Errorf("match id %s has %d source-a and %d source-b records", id, c[0], c[1])
		}
		if c[0] != len(g.A) || c[1] != len(g.B) {
			return fmt.Errorf("match id %s index disagrees with records", id)
		}
	}
	return nil
}

func unique(indices []int) []int {
	out := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}
