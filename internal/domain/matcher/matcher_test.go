package matcher

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

var (
	colsA = record.ColumnMapping{Identifier: "CUIT", Amount: "Monto Retenido"}
	colsB = record.ColumnMapping{Identifier: "CUIT", Amount: "Crédito"}
)

// Helper to create test records
func makeRecords(cols record.ColumnMapping, rows ...[2]any) []record.Record {
	out := make([]record.Record, len(rows))
	for i, row := range rows {
		out[i] = record.Record{
			Fields:        record.Fields{cols.Identifier: row[0], cols.Amount: row[1]},
			OriginalIndex: i,
			Status:        record.StatusPending,
		}
	}
	return out
}

func TestMatcher_ExactMatch(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	a := makeRecords(colsA, [2]any{"20-12345678-9", "1.234,50"})
	b := makeRecords(colsB, [2]any{"20123456789", 1234.50})

	// Act
	result := matcher.Match(a, b, colsA, colsB)

	// Assert
	require.Equal(t, 1, result.MatchCount())
	assert.Equal(t, Pair{A: 0, B: 0, MatchID: "auto_1"}, result.Pairs[0])
}

func TestMatcher_DifferentIdentifier_NoMatch(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	a := makeRecords(colsA, [2]any{"20-12345678-9", 100.0})
	b := makeRecords(colsB, [2]any{"27-12345678-9", 100.0})

	// Act
	result := matcher.Match(a, b, colsA, colsB)

	// Assert
	assert.Zero(t, result.MatchCount())
	assert.Empty(t, result.Pairs)
}

func TestMatcher_OneCentOff_NoMatch(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	a := makeRecords(colsA, [2]any{"20123456789", 100.00})
	b := makeRecords(colsB, [2]any{"20123456789", 100.01})

	// Act
	result := matcher.Match(a, b, colsA, colsB)

	// Assert - amounts are compared exactly at two decimals, no tolerance
	assert.Zero(t, result.MatchCount())
}

func TestMatcher_SubCentDifferenceRoundsEqual(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	a := makeRecords(colsA, [2]any{"20123456789", 100.001})
	b := makeRecords(colsB, [2]any{"20123456789", 99.999})

	// Act
	result := matcher.Match(a, b, colsA, colsB)

	// Assert - both render as 100.00
	assert.Equal(t, 1, result.MatchCount())
}

func TestMatcher_FirstAvailableInOrder(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	a := makeRecords(colsA,
		[2]any{"111", 50.0},
		[2]any{"111", 50.0},
		[2]any{"111", 50.0},
	)
	b := makeRecords(colsB,
		[2]any{"222", 50.0},
		[2]any{"111", 50.0},
		[2]any{"111", 50.0},
	)

	// Act
	result := matcher.Match(a, b, colsA, colsB)

	// Assert - third A record finds nothing left to claim
	assert.Equal(t, []Pair{
		{A: 0, B: 1, MatchID: "auto_1"},
		{A: 1, B: 2, MatchID: "auto_2"},
	}, result.Pairs)
}

func TestMatcher_SkipsNonPending(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	a := makeRecords(colsA, [2]any{"111", 10.0}, [2]any{"111", 10.0})
	b := makeRecords(colsB, [2]any{"111", 10.0}, [2]any{"111", 10.0})
	a[0].Status, a[0].MatchID = record.StatusReconciled, "manual_x"
	b[0].Status, b[0].MatchID = record.StatusReconciled, "manual_x"

	// Act
	result := matcher.Match(a, b, colsA, colsB)

	// Assert
	assert.Equal(t, []Pair{{A: 1, B: 1, MatchID: "auto_1"}}, result.Pairs)
}

func TestMatcher_EmptyIdentifiersStillMatch(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	a := makeRecords(colsA, [2]any{nil, "abc"})
	b := makeRecords(colsB, [2]any{"", 0})

	// Act
	result := matcher.Match(a, b, colsA, colsB)

	// Assert - both normalize to ("", 0.00)
	assert.Equal(t, 1, result.MatchCount())
}

func TestMatcher_CustomPrefix(t *testing.T) {
	// Arrange
	matcher := NewMatcher(Config{IDPrefix: "run7_"})
	a := makeRecords(colsA, [2]any{"1", 1.0})
	b := makeRecords(colsB, [2]any{"1", 1.0})

	// Act
	result := matcher.Match(a, b, colsA, colsB)

	// Assert
	require.Len(t, result.Pairs, 1)
	assert.Equal(t, "run7_1", result.Pairs[0].MatchID)
}

func TestMatcher_DoesNotModifyInput(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	a := makeRecords(colsA, [2]any{"1", 1.0})
	b := makeRecords(colsB, [2]any{"1", 1.0})

	// Act
	matcher.Match(a, b, colsA, colsB)

	// Assert
	assert.True(t, a[0].IsPending())
	assert.True(t, b[0].IsPending())
	assert.Empty(t, a[0].MatchID)
}

func TestResult_MatchCountNil(t *testing.T) {
	var r *Result
	assert.Zero(t, r.MatchCount())
}

// naiveMatch is the quadratic reference: for each A, scan B from the start.
func naiveMatch(a, b []record.Record) []Pair {
	claimed := make([]bool, len(b))
	var pairs []Pair
	for _, ra := range a {
		va := normalizer.NormalizeRecord(ra, colsA)
		for j, rb := range b {
			if claimed[j] {
				continue
			}
			vb := normalizer.NormalizeRecord(rb, colsB)
			if va.Identifier == vb.Identifier && normalizer.FixedCents(va.Amount) == normalizer.FixedCents(vb.Amount) {
				claimed[j] = true
				pairs = append(pairs, Pair{A: ra.OriginalIndex, B: rb.OriginalIndex, MatchID: "auto_" + strconv.Itoa(len(pairs)+1)})
				break
			}
		}
	}
	return pairs
}

func randomRecords(rng *rand.Rand, cols record.ColumnMapping, n int) []record.Record {
	ids := []any{"20-11111111-1", "20111111111", "30-22222222-2", "", nil, 30222222222}
	amounts := []any{100.0, "100,00", "1.234,50", 1234.5, 0.125, 0.13, "abc", nil, 99.995}
	rows := make([][2]any, n)
	for i := range rows {
		rows[i] = [2]any{ids[rng.Intn(len(ids))], amounts[rng.Intn(len(amounts))]}
	}
	return makeRecords(cols, rows...)
}

func TestMatcher_EquivalentToNaiveScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	matcher := NewMatcher(DefaultConfig())

	for i := 0; i < 50; i++ {
		a := randomRecords(rng, colsA, rng.Intn(40))
		b := randomRecords(rng, colsB, rng.Intn(40))

		got := matcher.Match(a, b, colsA, colsB)
		want := naiveMatch(a, b)

		if len(want) == 0 {
			assert.Empty(t, got.Pairs, "iteration %d", i)
			continue
		}
		assert.Equal(t, want, got.Pairs, "iteration %d", i)
	}
}

func TestMatcher_Cardinality(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	matcher := NewMatcher(DefaultConfig())
	a := randomRecords(rng, colsA, 200)
	b := randomRecords(rng, colsB, 150)

	result := matcher.Match(a, b, colsA, colsB)

	seenA := make(map[int]bool)
	seenB := make(map[int]bool)
	seenID := make(map[string]bool)
	for _, p := range result.Pairs {
		assert.False(t, seenA[p.A], "A %d paired twice", p.A)
		assert.False(t, seenB[p.B], "B %d paired twice", p.B)
		assert.False(t, seenID[p.MatchID], "match id %s reused", p.MatchID)
		seenA[p.A], seenB[p.B], seenID[p.MatchID] = true, true, true
	}
}

func TestMatcher_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	matcher := NewMatcher(DefaultConfig())
	a := randomRecords(rng, colsA, 100)
	b := randomRecords(rng, colsB, 100)

	first := matcher.Match(a, b, colsA, colsB)
	second := matcher.Match(a, b, colsA, colsB)

	assert.Equal(t, first, second)
}
