// Package storage provides the SQLite audit journal of reconciliation runs
// and manual actions. The journal is append-only and is never read back to
// rebuild reconciliation state.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for the journal.
// It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database.
// ":memory:" keeps the journal for the life of the process.
func NewStorage(dbPath string) (*Storage, error) {
	return NewStorageWithLogger(dbPath, slog.Default())
}

// NewStorageWithLogger is NewStorage with an injected logger
func NewStorageWithLogger(dbPath string, logger *slog.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db, logger: logger}

	// Run all pending migrations
	if err := s.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun records the start of a reconciliation run
func (s *Storage) StartRun(run *Run) (int64, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = RunStatusRunning

	query := `
		INSERT INTO reconciliation_runs
		(session_id, source_a, source_b, records_a, records_b, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		run.SessionID,
		run.SourceA,
		run.SourceB,
		run.RecordsA,
		run.RecordsB,
		run.Status,
		run.StartedAt,
	)
	if err != nil {
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	run.ID = id
	return id, nil
}

// CompleteRun records the completion of a reconciliation run
func (s *Storage) CompleteRun(runID int64, autoMatches int) error {
	query := `
		UPDATE reconciliation_runs
		SET completed_at = ?, auto_matches = ?, status = ?
		WHERE id = ?
	`

	result, err := s.db.Exec(query, time.Now().UTC(), autoMatches, RunStatusCompleted, runID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return nil
}

const runColumns = `id, session_id, source_a, source_b, records_a, records_b,
	auto_matches, status, started_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var completedAt sql.NullTime
	err := row.Scan(
		&run.ID,
		&run.SessionID,
		&run.SourceA,
		&run.SourceB,
		&run.RecordsA,
		&run.RecordsB,
		&run.AutoMatches,
		&run.Status,
		&run.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return run, nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(runID int64) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM reconciliation_runs WHERE id = ?`

	run, err := scanRun(s.db.QueryRow(query, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return run, err
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM reconciliation_runs ORDER BY id DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// LogEvent appends a manual action to the journal
func (s *Storage) LogEvent(event *MatchEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	indicesA, err := json.Marshal(nonNil(event.IndicesA))
	if err != nil {
		return err
	}
	indicesB, err := json.Marshal(nonNil(event.IndicesB))
	if err != nil {
		return err
	}

	query := `
		INSERT INTO match_events
		(run_id, match_id, action, indices_a, indices_b, amount_a, amount_b, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		event.RunID,
		event.MatchID,
		string(event.Action),
		string(indicesA),
		string(indicesB),
		event.AmountA,
		event.AmountB,
		event.Detail,
		event.CreatedAt,
	)
	if err != nil {
		return err
	}

	event.ID, err = result.LastInsertId()
	return err
}

// ListEvents returns the events of a run in insertion order
func (s *Storage) ListEvents(runID int64) ([]MatchEvent, error) {
	query := `
		SELECT id, run_id, match_id, action, indices_a, indices_b,
		       amount_a, amount_b, detail, created_at
		FROM match_events
		WHERE run_id = ?
		ORDER BY id
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []MatchEvent
	for rows.Next() {
		var e MatchEvent
		var action, indicesA, indicesB string
		if err := rows.Scan(
			&e.ID,
			&e.RunID,
			&e.MatchID,
			&action,
			&indicesA,
			&indicesB,
			&e.AmountA,
			&e.AmountB,
			&e.Detail,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Action = EventAction(action)
		if err := json.Unmarshal([]byte(indicesA), &e.IndicesA); err != nil {
			return nil, fmt.Errorf("event %d indices_a: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(indicesB), &e.IndicesB); err != nil {
			return nil, fmt.Errorf("event %d indices_b: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func nonNil(indices []int) []int {
	if indices == nil {
		return []int{}
	}
	return indices
}
