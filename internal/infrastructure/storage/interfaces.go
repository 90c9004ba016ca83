package storage

import "errors"

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// Repository defines the complete journal interface.
// This interface allows swapping implementations and makes testing with
// mocks straightforward.
type Repository interface {
	RunRepository
	EventRepository
	Close() error
}

// RunRepository handles reconciliation run tracking
type RunRepository interface {
	// StartRun records the start of an automatic pass and sets run.ID
	StartRun(run *Run) (int64, error)

	// CompleteRun records the outcome of an automatic pass
	CompleteRun(runID int64, autoMatches int) error

	// GetRun retrieves a run by ID
	GetRun(runID int64) (*Run, error)

	// ListRuns returns the most recent runs first
	ListRuns(limit int) ([]Run, error)
}

// EventRepository handles manual action logging
type EventRepository interface {
	// LogEvent appends a manual action to a run
	LogEvent(event *MatchEvent) error

	// ListEvents returns the events of a run in the order they were logged
	ListEvents(runID int64) ([]MatchEvent, error)
}
