package storage

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu        sync.Mutex
	runs      map[int64]*Run
	events    []MatchEvent
	nextRunID int64

	// Hooks for test assertions
	StartRunCalled bool
	LogEventCalled bool
	LastEvent      *MatchEvent

	// Error injection for testing error paths
	StartRunErr    error
	CompleteRunErr error
	LogEventErr    error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:      make(map[int64]*Run),
		nextRunID: 1,
	}
}

// Close does nothing
func (m *MockRepository) Close() error {
	return nil
}

// StartRun creates a new run and returns its ID
func (m *MockRepository) StartRun(run *Run) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartRunCalled = true
	if m.StartRunErr != nil {
		return 0, m.StartRunErr
	}

	run.ID = m.nextRunID
	m.nextRunID++
	run.Status = RunStatusRunning
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	stored := *run
	m.runs[run.ID] = &stored
	return run.ID, nil
}

// CompleteRun marks a run as complete
func (m *MockRepository) CompleteRun(runID int64, autoMatches int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CompleteRunErr != nil {
		return m.CompleteRunErr
	}

	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}

	now := time.Now().UTC()
	run.AutoMatches = autoMatches
	run.Status = RunStatusCompleted
	run.CompletedAt = &now
	return nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(runID int64) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	copied := *run
	return &copied, nil
}

// ListRuns returns runs newest first
func (m *MockRepository) ListRuns(limit int) ([]Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	ids := make([]int64, 0, len(m.runs))
	for id := range m.runs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	slices.Reverse(ids)

	var result []Run
	for _, id := range ids {
		if len(result) >= limit {
			break
		}
		result = append(result, *m.runs[id])
	}
	return result, nil
}

// LogEvent records an event
func (m *MockRepository) LogEvent(event *MatchEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LogEventCalled = true
	if m.LogEventErr != nil {
		return m.LogEventErr
	}

	event.ID = int64(len(m.events) + 1)
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	m.events = append(m.events, *event)
	m.LastEvent = event
	return nil
}

// ListEvents returns the events of a run
func (m *MockRepository) ListEvents(runID int64) ([]MatchEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []MatchEvent
	for _, e := range m.events {
		if e.RunID == runID {
			result = append(result, e)
		}
	}
	return result, nil
}

// Events returns every logged event (test helper)
func (m *MockRepository) Events() []MatchEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.events)
}
