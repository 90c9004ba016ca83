package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

func rows(amounts ...any) []record.Fields {
	out := make([]record.Fields, len(amounts))
	for i, a := range amounts {
		out[i] = record.Fields{"CUIT": "20-12345678-9", "Monto": a}
	}
	return out
}

func total(s *Store, source record.Source) float64 {
	var sum float64
	for _, r := range s.Records(source) {
		sum += normalizer.Normalize(r.Fields, "", "Monto").Amount
	}
	return sum
}

func TestNewStore(t *testing.T) {
	// Arrange & Act
	s := NewStore(rows(1.0, 2.0, nil), rows(3.0))

	// Assert
	assert.Equal(t, 3, s.Len(record.SourceA))
	assert.Equal(t, 1, s.Len(record.SourceB))
	for i, r := range s.Records(record.SourceA) {
		assert.Equal(t, i, r.OriginalIndex)
		assert.True(t, r.IsPending())
	}
	assert.Empty(t, s.MatchIDs())
	require.NoError(t, s.CheckInvariants())
}

func TestStore_RecordReturnsCopy(t *testing.T) {
	s := NewStore(rows(1.0), nil)

	r, ok := s.Record(record.SourceA, 0)
	require.True(t, ok)
	r.Fields["Monto"] = 999.0
	r.Status = record.StatusReconciled

	again, _ := s.Record(record.SourceA, 0)
	assert.Equal(t, 1.0, again.Fields["Monto"])
	assert.True(t, again.IsPending())

	_, ok = s.Record(record.SourceA, 5)
	assert.False(t, ok)
	_, ok = s.Record(record.SourceB, -1)
	assert.False(t, ok)
}

func TestApplyReconcile_Success(t *testing.T) {
	// Arrange
	s := NewStore(rows(200.0, 300.0, 50.0), rows(500.0))

	// Act
	err := s.ApplyReconcile([]int{0, 1}, []int{0}, "manual_1")

	// Assert
	require.NoError(t, err)
	reconciled := s.RecordsByStatus(record.SourceA, record.StatusReconciled)
	require.Len(t, reconciled, 2)
	for _, r := range reconciled {
		assert.Equal(t, "manual_1", r.MatchID)
	}
	b, _ := s.Record(record.SourceB, 0)
	assert.Equal(t, "manual_1", b.MatchID)

	g, ok := s.Group("manual_1")
	require.True(t, ok)
	assert.Equal(t, []int{0, 1}, g.A)
	assert.Equal(t, []int{0}, g.B)
	assert.Equal(t, []string{"manual_1"}, s.MatchIDs())
	require.NoError(t, s.CheckInvariants())
}

func TestApplyReconcile_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []int
		matchID string
		wantErr error
	}{
		{"empty match id", []int{0}, []int{0}, "", ErrEmptyMatchID},
		{"match id in use", []int{1}, []int{1}, "auto_1", ErrMatchIDInUse},
		{"no A records", nil, []int{1}, "m", ErrIncompleteGroup},
		{"no B records", []int{1}, nil, "m", ErrIncompleteGroup},
		{"unknown A index", []int{1, 9}, []int{1}, "m", ErrUnknownRecord},
		{"unknown B index", []int{1}, []int{-1}, "m", ErrUnknownRecord},
		{"A already reconciled", []int{1, 0}, []int{1}, "m", ErrNotPending},
		{"B already reconciled", []int{1}, []int{1, 0}, "m", ErrNotPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			s := NewStore(rows(10.0, 20.0), rows(10.0, 20.0))
			require.NoError(t, s.ApplyReconcile([]int{0}, []int{0}, "auto_1"))
			before := [2][]record.Record{s.Records(record.SourceA), s.Records(record.SourceB)}

			// Act
			err := s.ApplyReconcile(tt.a, tt.b, tt.matchID)

			// Assert - nothing moved
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before[0], s.Records(record.SourceA))
			assert.Equal(t, before[1], s.Records(record.SourceB))
			assert.Equal(t, []string{"auto_1"}, s.MatchIDs())
		})
	}
}

func TestApplyReconcile_RecordErrorCarriesState(t *testing.T) {
	s := NewStore(rows(10.0), rows(10.0))
	require.NoError(t, s.ApplyReconcile([]int{0}, []int{0}, "auto_1"))

	err := s.ApplyReconcile([]int{0}, []int{0}, "auto_2")

	var recErr *RecordError
	require.True(t, errors.As(err, &recErr))
	assert.Equal(t, record.SourceA, recErr.Source)
	assert.Equal(t, 0, recErr.Index)
	assert.Equal(t, record.StatusReconciled, recErr.Status)
	assert.Contains(t, err.Error(), "record is not pending")
}

func TestApplyReconcile_DuplicateIndicesCollapse(t *testing.T) {
	s := NewStore(rows(10.0), rows(10.0))

	require.NoError(t, s.ApplyReconcile([]int{0, 0}, []int{0, 0}, "m"))

	g, _ := s.Group("m")
	assert.Equal(t, []int{0}, g.A)
	assert.Equal(t, []int{0}, g.B)
	require.NoError(t, s.CheckInvariants())
}

func TestApplyDereconcile_RevertsPair(t *testing.T) {
	// Arrange
	s := NewStore(rows(10.0, 20.0), rows(20.0, 10.0))
	require.NoError(t, s.ApplyReconcile([]int{0}, []int{1}, "auto_1"))
	require.NoError(t, s.ApplyReconcile([]int{1}, []int{0}, "auto_2"))

	// Act
	result, err := s.ApplyDereconcile([]int{0})

	// Assert
	require.NoError(t, err)
	assert.Empty(t, result.Anomalies)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, Group{MatchID: "auto_1", A: []int{0}, B: []int{1}}, result.Groups[0])
	a, b := result.Reverted()
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)

	ra, _ := s.Record(record.SourceA, 0)
	rb, _ := s.Record(record.SourceB, 1)
	assert.True(t, ra.IsPending())
	assert.Empty(t, ra.MatchID)
	assert.True(t, rb.IsPending())
	assert.Empty(t, rb.MatchID)

	// untouched group
	other, _ := s.Record(record.SourceA, 1)
	assert.Equal(t, "auto_2", other.MatchID)
	assert.Equal(t, []string{"auto_2"}, s.MatchIDs())
	require.NoError(t, s.CheckInvariants())
}

func TestApplyDereconcile_TwiceFails(t *testing.T) {
	s := NewStore(rows(10.0), rows(10.0))
	require.NoError(t, s.ApplyReconcile([]int{0}, []int{0}, "auto_1"))
	_, err := s.ApplyDereconcile([]int{0})
	require.NoError(t, err)

	result, err := s.ApplyDereconcile([]int{0})

	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrNotReconciled)
	require.NoError(t, s.CheckInvariants())
}

func TestApplyDereconcile_WholeGroupReverts(t *testing.T) {
	// Arrange - two A records share one B
	s := NewStore(rows(200.0, 300.0), rows(500.0))
	require.NoError(t, s.ApplyReconcile([]int{0, 1}, []int{0}, "manual_1"))

	// Act - select only one A record of the group
	result, err := s.ApplyDereconcile([]int{1})

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Groups, 1)
	assert.Equal(t, []int{0, 1}, result.Groups[0].A)
	assert.Empty(t, s.RecordsByStatus(record.SourceA, record.StatusReconciled))
	assert.Empty(t, s.RecordsByStatus(record.SourceB, record.StatusReconciled))
	require.NoError(t, s.CheckInvariants())
}

func TestApplyDereconcile_RefusesMixedRequest(t *testing.T) {
	s := NewStore(rows(10.0, 20.0), rows(10.0))
	require.NoError(t, s.ApplyReconcile([]int{0}, []int{0}, "auto_1"))

	_, err := s.ApplyDereconcile([]int{0, 1})

	require.ErrorIs(t, err, ErrNotReconciled)
	r, _ := s.Record(record.SourceA, 0)
	assert.Equal(t, "auto_1", r.MatchID)

	_, err = s.ApplyDereconcile([]int{7})
	require.ErrorIs(t, err, ErrUnknownRecord)

	_, err = s.ApplyDereconcile(nil)
	require.ErrorIs(t, err, ErrNotReconciled)
}

func TestApplyDereconcile_ReportsAnomaly(t *testing.T) {
	// Arrange - corrupt the store so the B partner silently lost its match id
	s := NewStore(rows(10.0), rows(10.0))
	require.NoError(t, s.ApplyReconcile([]int{0}, []int{0}, "auto_1"))
	s.b[0].Status, s.b[0].MatchID = record.StatusPending, ""
	require.Error(t, s.CheckInvariants())

	// Act
	result, err := s.ApplyDereconcile([]int{0})

	// Assert - the lone A record still goes back to pending
	require.NoError(t, err)
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, "auto_1", result.Anomalies[0].MatchID)
	assert.Equal(t, []int{0}, result.Anomalies[0].A)
	r, _ := s.Record(record.SourceA, 0)
	assert.True(t, r.IsPending())
	require.NoError(t, s.CheckInvariants())
}

func TestStore_ConservesAmounts(t *testing.T) {
	s := NewStore(rows(100.0, "1.234,50", 7.25), rows(100.0, 1234.5, "oops"))
	wantA, wantB := total(s, record.SourceA), total(s, record.SourceB)

	require.NoError(t, s.ApplyReconcile([]int{0}, []int{0}, "auto_1"))
	require.NoError(t, s.ApplyReconcile([]int{1, 2}, []int{1, 2}, "manual_1"))
	_, err := s.ApplyDereconcile([]int{2})
	require.NoError(t, err)

	assert.InDelta(t, wantA, total(s, record.SourceA), 1e-9)
	assert.InDelta(t, wantB, total(s, record.SourceB), 1e-9)
	require.NoError(t, s.CheckInvariants())
}
