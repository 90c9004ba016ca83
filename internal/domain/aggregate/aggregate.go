// Package aggregate provides read-only per-provider and overall summaries of
// a state store. A provider is a distinct normalized identifier.
package aggregate

import (
	"slices"
	"strings"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/state"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/validator"
)

// ProviderSummary is everything known about one provider across both
// sources. Totals include records of every status.
type ProviderSummary struct {
	Identifier  string
	TotalA      float64
	TotalB      float64
	Difference  float64
	PendingA    []record.Record
	ReconciledA []record.Record
	UnmatchedB  []record.Record
	// ReconciledB is not shown by the UI but completes the breakdown.
	ReconciledB []record.Record
}

// Overview summarizes a whole store.
type Overview struct {
	TotalA           float64
	ReconciledAmount float64
	ReconciledCount  int
	PendingAmount    float64
	PendingCount     int
	TotalB           float64
	UnmatchedAmount  float64
	UnmatchedCount   int
	MatchGroups      int
	QualityA         validator.Quality
	QualityB         validator.Quality
}

// Aggregator reads a store through the chosen column mappings.
type Aggregator struct {
	store *state.Store
	colsA record.ColumnMapping
	colsB record.ColumnMapping
}

// NewAggregator creates an aggregator over store.
func NewAggregator(store *state.Store, colsA, colsB record.ColumnMapping) *Aggregator {
	return &Aggregator{store: store, colsA: colsA, colsB: colsB}
}

func (g *Aggregator) cols(source record.Source) record.ColumnMapping {
	if source == record.SourceB {
		return g.colsB
	}
	return g.colsA
}

// DetailsFor returns the summary of one provider. The identifier is
// canonicalized first, so formatted input is accepted.
func (g *Aggregator) DetailsFor(identifier string) ProviderSummary {
	id := normalizer.Identifier(identifier)
	summary := ProviderSummary{Identifier: id}

	for _, r := range g.store.Records(record.SourceA) {
		v := normalizer.NormalizeRecord(r, g.colsA)
		if v.Identifier != id {
			continue
		}
		summary.TotalA += v.Amount
		if r.IsReconciled() {
			summary.ReconciledA = append(summary.ReconciledA, r)
		} else {
			summary.PendingA = append(summary.PendingA, r)
		}
	}
	for _, r := range g.store.Records(record.SourceB) {
		v := normalizer.NormalizeRecord(r, g.colsB)
		if v.Identifier != id {
			continue
		}
		summary.TotalB += v.Amount
		if r.IsReconciled() {
			summary.ReconciledB = append(summary.ReconciledB, r)
		} else {
			summary.UnmatchedB = append(summary.UnmatchedB, r)
		}
	}
	summary.Difference = summary.TotalA - summary.TotalB
	return summary
}

// ListDistinctIdentifiers returns the sorted union of non-empty identifiers
// of both sources.
func (g *Aggregator) ListDistinctIdentifiers() []string {
	seen := make(map[string]struct{})
	for _, source := range []record.Source{record.SourceA, record.SourceB} {
		cols := g.cols(source)
		for _, r := range g.store.Records(source) {
			if id := normalizer.Normalize(r.Fields, cols.Identifier, "").Identifier; id != "" {
				seen[id] = struct{}{}
			}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// FilterIdentifiers returns the distinct identifiers containing query,
// ignoring case. An empty query returns them all.
func (g *Aggregator) FilterIdentifiers(query string) []string {
	ids := g.ListDistinctIdentifiers()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		if strings.Contains(strings.ToLower(id), query) {
			out = append(out, id)
		}
	}
	return out
}

// Overview computes the general summary. Pending amount is the source-A
// total minus the reconciled amount.
func (g *Aggregator) Overview() Overview {
	var o Overview

	valuesA := make([]normalizer.Value, 0, g.store.Len(record.SourceA))
	for _, r := range g.store.Records(record.SourceA) {
		v := normalizer.NormalizeRecord(r, g.colsA)
		valuesA = append(valuesA, v)
		o.TotalA += v.Amount
		if r.IsReconciled() {
			o.ReconciledAmount += v.Amount
			o.ReconciledCount++
		} else {
			o.PendingCount++
		}
	}
	o.PendingAmount = o.TotalA - o.ReconciledAmount

	valuesB := make([]normalizer.Value, 0, g.store.Len(record.SourceB))
	for _, r := range g.store.Records(record.SourceB) {
		v := normalizer.NormalizeRecord(r, g.colsB)
		valuesB = append(valuesB, v)
		o.TotalB += v.Amount
		if r.IsPending() {
			o.UnmatchedAmount += v.Amount
			o.UnmatchedCount++
		}
	}

	o.MatchGroups = len(g.store.MatchIDs())
	o.QualityA = validator.AssessQuality(valuesA)
	o.QualityB = validator.AssessQuality(valuesB)
	return o
}
