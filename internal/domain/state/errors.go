package state

import (
	"errors"
	"fmt"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
)

var (
	// ErrUnknownRecord is returned when an index is outside its collection.
	ErrUnknownRecord = errors.New("record does not exist")
	// ErrNotPending is returned when a record that must be pending is not.
	ErrNotPending = errors.New("record is not pending")
	// ErrNotReconciled is returned when a record that must be reconciled is not.
	ErrNotReconciled = errors.New("record is not reconciled")
	// ErrMatchIDInUse is returned when a new group would reuse a live match id.
	ErrMatchIDInUse = errors.New("match id already in use")
	// ErrEmptyMatchID is returned when a group is created without a match id.
	ErrEmptyMatchID = errors.New("match id is empty")
	// ErrIncompleteGroup is returned when a group would lack records on one side.
	ErrIncompleteGroup = errors.New("match group needs at least one record from each source")
)

// RecordError reports which record refused a mutation and in what state it
// was found.
type RecordError struct {
	Source record.Source
	Index  int
	Status record.Status
	Err    error
}

func (e *RecordError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("source %s record %d: %v", e.Source, e.Index, e.Err)
	}
	return fmt.Sprintf("source %s record %d (%s): %v", e.Source, e.Index, e.Status, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
