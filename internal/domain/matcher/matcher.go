// Package matcher provides the automatic one-to-one pass that pairs source-A
// records with source-B records.
//
// The matcher uses strict matching criteria:
//   - Identifiers must be equal after normalization
//   - Amounts must be equal when rendered with two decimals
//   - Each source-B record is claimed at most once
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	result := m.Match(store.Records(record.SourceA), store.Records(record.SourceB), colsA, colsB)
//	for _, p := range result.Pairs {
//		store.ApplyReconcile([]int{p.A}, []int{p.B}, p.MatchID)
//	}
package matcher

import (
	"strconv"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

// Matcher pairs records from two ledgers
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	return &Matcher{
		config: config,
	}
}

// Match walks a in original order and pairs each pending record with the
// first unclaimed pending record of b (in original order) carrying the same
// identifier and the same two-decimal amount. Records that are not pending
// are ignored on both sides. Inputs are not modified.
func (m *Matcher) Match(a, b []record.Record, colsA, colsB record.ColumnMapping) *Result {
	index := newKeyIndex(b, colsB)

	result := &Result{Pairs: make([]Pair, 0, min(len(a), len(b)))}
	for _, ra := range a {
		if !ra.IsPending() {
			continue
		}

		bi, ok := index.claim(keyOf(normalizer.NormalizeRecord(ra, colsA)))
		if !ok {
			continue
		}

		result.Pairs = append(result.Pairs, Pair{
			A:       ra.OriginalIndex,
			B:       bi,
			MatchID: m.config.IDPrefix + strconv.Itoa(len(result.Pairs)+1),
		})
	}
	return result
}

type matchKey struct {
	identifier string
	amount     string
}

func keyOf(v normalizer.Value) matchKey {
	return matchKey{identifier: v.Identifier, amount: normalizer.FixedCents(v.Amount)}
}

// keyIndex maps a match key to the source-B indices carrying it, oldest
// first. Claiming pops the head, which is the record a linear scan in
// original order would have found.
type keyIndex map[matchKey][]int

func newKeyIndex(b []record.Record, cols record.ColumnMapping) keyIndex {
	idx := make(keyIndex, len(b))
	for _, rb := range b {
		if !rb.IsPending() {
			continue
		}
		k := keyOf(normalizer.NormalizeRecord(rb, cols))
		idx[k] = append(idx[k], rb.OriginalIndex)
	}
	return idx
}

func (idx keyIndex) claim(k matchKey) (int, bool) {
	queue := idx[k]
	if len(queue) == 0 {
		return 0, false
	}
	idx[k] = queue[1:]
	return queue[0], true
}
