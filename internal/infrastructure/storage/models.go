package storage

import "time"

// Run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
)

// EventAction names what a journal event recorded.
type EventAction string

const (
	ActionManualReconcile EventAction = "manual_reconcile"
	ActionDereconcile     EventAction = "dereconcile"
	ActionAnomaly         EventAction = "anomaly"
)

// Run is one automatic matching pass over a session's two sources.
type Run struct {
	ID          int64      `json:"id"`
	SessionID   string     `json:"session_id"`
	SourceA     string     `json:"source_a"`
	SourceB     string     `json:"source_b"`
	RecordsA    int        `json:"records_a"`
	RecordsB    int        `json:"records_b"`
	AutoMatches int        `json:"auto_matches"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MatchEvent is one manual action taken after a run.
type MatchEvent struct {
	ID        int64       `json:"id"`
	RunID     int64       `json:"run_id"`
	MatchID   string      `json:"match_id"`
	Action    EventAction `json:"action"`
	IndicesA  []int       `json:"indices_a"`
	IndicesB  []int       `json:"indices_b"`
	AmountA   float64     `json:"amount_a"`
	AmountB   float64     `json:"amount_b"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}
