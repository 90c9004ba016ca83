// Package selection holds the short-lived manual selection and turns it into
// a reconcile or rollback on the state store.
//
// A selection is three disjoint sets of original indices: pending source-A
// records, unmatched (pending) source-B records and reconciled source-A
// records. Commits validate first and leave the selection intact when they
// fail, so the user can correct it and retry.
package selection

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/state"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/validator"
)

// Bucket names one of the three selection sets.
type Bucket string

const (
	BucketPending    Bucket = "pending"
	BucketUnmatched  Bucket = "unmatched"
	BucketReconciled Bucket = "reconciled"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{BucketPending, BucketUnmatched, BucketReconciled}

// Source returns the source whose records the bucket holds.
func (b Bucket) Source() record.Source {
	if b == BucketUnmatched {
		return record.SourceB
	}
	return record.SourceA
}

// Valid reports whether b is a known bucket.
func (b Bucket) Valid() bool {
	return slices.Contains(Buckets, b)
}

// Mode is the action the current selection allows.
type Mode string

const (
	ModeIdle        Mode = "idle"
	ModeReconcile   Mode = "reconcile"
	ModeDereconcile Mode = "dereconcile"
	ModeMixed       Mode = "mixed"
)

var (
	// ErrUnknownBucket is returned for a bucket name outside Buckets.
	ErrUnknownBucket = errors.New("unknown selection bucket")
	// ErrSelectionEmpty is returned when a commit lacks required records.
	ErrSelectionEmpty = errors.New("selection empty")
	// ErrMixedSelection is returned when pending and reconciled records are
	// selected together.
	ErrMixedSelection = errors.New("selection mixes pending and reconciled records")
	// ErrUnbalanced is returned when the selected amounts do not net to zero.
	ErrUnbalanced = errors.New("amounts do not balance within tolerance")
)

// Preview summarizes the current selection without changing anything.
type Preview struct {
	Mode            Mode    `json:"mode"`
	CountA          int     `json:"count_a"`
	CountB          int     `json:"count_b"`
	CountReconciled int     `json:"count_reconciled"`
	SumA            float64 `json:"sum_a"`
	SumB            float64 `json:"sum_b"`
	SumReconciled   float64 `json:"sum_reconciled"`
	Difference      float64 `json:"difference"`
	CanReconcile    bool    `json:"can_reconcile"`
	CanDereconcile  bool    `json:"can_dereconcile"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator replaces the generator used for manual match ids.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// NewManualMatchID returns a fresh manual match id.
func NewManualMatchID() string {
	return "manual_" + uuid.NewString()
}

// Engine tracks a manual selection against one store.
type Engine struct {
	store *state.Store
	colsA record.ColumnMapping
	colsB record.ColumnMapping
	sel   map[Bucket]map[int]struct{}
	newID func() string
}

// NewEngine creates an engine with an empty selection.
func NewEngine(store *state.Store, colsA, colsB record.ColumnMapping, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		colsA: colsA,
		colsB: colsB,
		newID: NewManualMatchID,
	}
	e.Clear()
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) check(bucket Bucket, index int) error {
	if !bucket.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownBucket, bucket)
	}
	if index < 0 || index >= e.store.Len(bucket.Source()) {
		return &state.RecordError{Source: bucket.Source(), Index: index, Err: state.ErrUnknownRecord}
	}
	return nil
}

// Toggle flips the membership of one record and reports whether it is now
// selected. Record status is checked at commit time, not here.
func (e *Engine) Toggle(bucket Bucket, index int) (bool, error) {
	if err := e.check(bucket, index); err != nil {
		return false, err
	}
	set := e.sel[bucket]
	if _, ok := set[index]; ok {
		delete(set, index)
		return false, nil
	}
	set[index] = struct{}{}
	return true, nil
}

// SelectAll adds every index to bucket. Nothing is added if any index is
// invalid.
func (e *Engine) SelectAll(bucket Bucket, indices []int) error {
	for _, i := range indices {
		if err := e.check(bucket, i); err != nil {
			return err
		}
	}
	for _, i := range indices {
		e.sel[bucket][i] = struct{}{}
	}
	return nil
}

// ClearBucket empties one bucket.
func (e *Engine) ClearBucket(bucket Bucket) {
	if bucket.Valid() {
		e.sel[bucket] = make(map[int]struct{})
	}
}

// Clear empties every bucket.
func (e *Engine) Clear() {
	e.sel = make(map[Bucket]map[int]struct{}, len(Buckets))
	for _, b := range Buckets {
		e.sel[b] = make(map[int]struct{})
	}
}

// Selected returns the selected indices of bucket in ascending order.
func (e *Engine) Selected(bucket Bucket) []int {
	out := make([]int, 0, len(e.sel[bucket]))
	for i := range e.sel[bucket] {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Mode derives the allowed action from which buckets are non-empty.
func (e *Engine) Mode() Mode {
	pending := len(e.sel[BucketPending]) > 0 || len(e.sel[BucketUnmatched]) > 0
	reconciled := len(e.sel[BucketReconciled]) > 0
	switch {
	case pending && reconciled:
		return ModeMixed
	case pending:
		return ModeReconcile
	case reconciled:
		return ModeDereconcile
	}
	return ModeIdle
}

func (e *Engine) amounts(bucket Bucket) []float64 {
	cols := e.colsA
	if bucket.Source() == record.SourceB {
		cols = e.colsB
	}
	indices := e.Selected(bucket)
	out := make([]float64, 0, len(indices))
	for _, i := range indices {
		r, ok := e.store.Record(bucket.Source(), i)
		if !ok {
			continue
		}
		out = append(out, normalizer.Normalize(r.Fields, "", cols.Amount).Amount)
	}
	return out
}

// PreviewTotals sums the selected amounts per side.
func (e *Engine) PreviewTotals() Preview {
	mode := e.Mode()
	balance := validator.ValidateBalance(e.amounts(BucketPending), e.amounts(BucketUnmatched))

	p := Preview{
		Mode:            mode,
		CountA:          len(e.sel[BucketPending]),
		CountB:          len(e.sel[BucketUnmatched]),
		CountReconciled: len(e.sel[BucketReconciled]),
		SumA:            balance.SumA,
		SumB:            balance.SumB,
		SumReconciled:   validator.Sum(e.amounts(BucketReconciled)),
		Difference:      balance.Difference,
	}
	p.CanReconcile = mode == ModeReconcile && p.CountA > 0 && p.CountB > 0 && balance.Valid
	p.CanDereconcile = mode == ModeDereconcile
	return p
}

// CommitReconcile groups the selected pending records of both sources under
// a new manual match id. The selection is cleared only on success.
func (e *Engine) CommitReconcile() (string, error) {
	switch e.Mode() {
	case ModeIdle, ModeDereconcile:
		return "", fmt.Errorf("%w: nothing pending selected", ErrSelectionEmpty)
	case ModeMixed:
		return "", ErrMixedSelection
	}

	a, b := e.Selected(BucketPending), e.Selected(BucketUnmatched)
	if len(a) == 0 || len(b) == 0 {
		return "", fmt.Errorf("%w: select at least one record from each source", ErrSelectionEmpty)
	}

	balance := validator.ValidateBalance(e.amounts(BucketPending), e.amounts(BucketUnmatched))
	if !balance.Valid {
		return "", fmt.Errorf("%w: %s", ErrUnbalanced, balance.Reason)
	}

	matchID := e.newID()
	if err := e.store.ApplyReconcile(a, b, matchID); err != nil {
		return "", fmt.Errorf("commit reconcile: %w", err)
	}
	e.Clear()
	return matchID, nil
}

// CommitDereconcile rolls back the groups of the selected reconciled
// records. The selection is cleared only on success.
func (e *Engine) CommitDereconcile() (*state.DereconcileResult, error) {
	switch e.Mode() {
	case ModeIdle, ModeReconcile:
		return nil, fmt.Errorf("%w: nothing reconciled selected", ErrSelectionEmpty)
	case ModeMixed:
		return nil, ErrMixedSelection
	}

	result, err := e.store.ApplyDereconcile(e.Selected(BucketReconciled))
	if err != nil {
		return nil, fmt.Errorf("commit dereconcile: %w", err)
	}
	e.Clear()
	return result, nil
}
