package dto

import (
	"time"

	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/selection"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/validator"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a healthy response stamped with the current time.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// SourceResponse describes one imported table.
type SourceResponse struct {
	Name      string               `json:"name"`
	Columns   []string             `json:"columns"`
	Rows      int                  `json:"rows"`
	Suggested record.ColumnMapping `json:"suggested"`
}

// SessionResponse describes a session.
type SessionResponse struct {
	ID         string                    `json:"id"`
	CreatedAt  string                    `json:"created_at"`
	Sources    map[string]SourceResponse `json:"sources"`
	Reconciled bool                      `json:"reconciled"`
	RunID      int64                     `json:"run_id,omitempty"`
	Provider   string                    `json:"provider,omitempty"`
}

// OverviewResponse is the general summary of a reconciled session.
type OverviewResponse struct {
	TotalA           float64           `json:"total_a"`
	ReconciledAmount float64           `json:"reconciled_amount"`
	ReconciledCount  int               `json:"reconciled_count"`
	PendingAmount    float64           `json:"pending_amount"`
	PendingCount     int               `json:"pending_count"`
	TotalB           float64           `json:"total_b"`
	UnmatchedAmount  float64           `json:"unmatched_amount"`
	UnmatchedCount   int               `json:"unmatched_count"`
	MatchGroups      int               `json:"match_groups"`
	QualityA         validator.Quality `json:"quality_a"`
	QualityB         validator.Quality `json:"quality_b"`
}

// ReconcileResponse is returned after the automatic pass.
type ReconcileResponse struct {
	RunID       int64            `json:"run_id,omitempty"`
	RecordsA    int              `json:"records_a"`
	RecordsB    int              `json:"records_b"`
	AutoMatches int              `json:"auto_matches"`
	Overview    OverviewResponse `json:"overview"`
}

// RecordResponse is one record with its normalized key.
type RecordResponse struct {
	Index      int            `json:"index"`
	Status     record.Status  `json:"status"`
	MatchID    string         `json:"match_id,omitempty"`
	Identifier string         `json:"identifier"`
	Amount     float64        `json:"amount"`
	Fields     map[string]any `json:"fields"`
}

// RecordListResponse is returned when listing records.
type RecordListResponse struct {
	Source  record.Source    `json:"source"`
	Records []RecordResponse `json:"records"`
	Count   int              `json:"count"`
}

// ProviderListResponse is returned when listing providers.
type ProviderListResponse struct {
	Providers []string `json:"providers"`
	Count     int      `json:"count"`
}

// ProviderResponse is the breakdown of one provider.
type ProviderResponse struct {
	Identifier  string           `json:"identifier"`
	TotalA      float64          `json:"total_a"`
	TotalB      float64          `json:"total_b"`
	Difference  float64          `json:"difference"`
	PendingA    []RecordResponse `json:"pending_a"`
	ReconciledA []RecordResponse `json:"reconciled_a"`
	UnmatchedB  []RecordResponse `json:"unmatched_b"`
	ReconciledB []RecordResponse `json:"reconciled_b"`
}

// SelectionResponse describes the current selection.
type SelectionResponse struct {
	Provider   string            `json:"provider,omitempty"`
	Pending    []int             `json:"pending"`
	Unmatched  []int             `json:"unmatched"`
	Reconciled []int             `json:"reconciled"`
	Preview    selection.Preview `json:"preview"`
}

// ToggleResponse reports whether the record is now selected.
type ToggleResponse struct {
	Selected  bool              `json:"selected"`
	Selection SelectionResponse `json:"selection"`
}

// CommitResponse is returned by a successful manual reconcile.
type CommitResponse struct {
	MatchID string `json:"match_id"`
}

// GroupResponse is one match group.
type GroupResponse struct {
	MatchID string `json:"match_id"`
	A       []int  `json:"a"`
	B       []int  `json:"b"`
}

// AnomalyResponse is a group rolled back without a counterparty.
type AnomalyResponse struct {
	MatchID string `json:"match_id"`
	A       []int  `json:"a"`
	Reason  string `json:"reason"`
}

// DereconcileResponse is returned by a successful rollback.
type DereconcileResponse struct {
	Groups    []GroupResponse   `json:"groups"`
	Anomalies []AnomalyResponse `json:"anomalies"`
	RevertedA int               `json:"reverted_a"`
	RevertedB int               `json:"reverted_b"`
}

// RunListResponse is returned when listing journaled runs.
type RunListResponse struct {
	Runs  []storage.Run `json:"runs"`
	Count int           `json:"count"`
}

// RunDetailResponse is a run with its manual actions.
type RunDetailResponse struct {
	Run    storage.Run          `json:"run"`
	Events []storage.MatchEvent `json:"events"`
}
