package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconciler/internal/api/dto"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/aggregate"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/normalizer"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

// ReconcileHandler handles the automatic pass and the read side of its
// results.
type ReconcileHandler struct {
	*Base
}

// NewReconcileHandler creates a new reconcile handler.
func NewReconcileHandler(sessions *session.Manager, repo storage.Repository, logger *slog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		Base: NewBase(sessions, repo, logger),
	}
}

// Reconcile handles POST /api/sessions/:id/reconcile.
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	var req dto.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	summary, err := s.Reconcile(req.ColumnsA, req.ColumnsB)
	if err != nil {
		h.Fail(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.ReconcileResponse{
		RunID:       summary.RunID,
		RecordsA:    summary.RecordsA,
		RecordsB:    summary.RecordsB,
		AutoMatches: summary.AutoMatches,
		Overview:    toOverviewResponse(summary.Overview),
	})
}

// Records handles GET /api/sessions/:id/records?source=a&status=pending&provider=...
func (h *ReconcileHandler) Records(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	source, err := session.ParseSource(c.Query("source"))
	if err != nil {
		h.Fail(c, err)
		return
	}
	status := record.Status(c.Query("status"))
	if status != "" && !status.Valid() {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(fmt.Sprintf("unknown status %q", status)))
		return
	}

	recs, err := s.Records(source, status, c.Query("provider"))
	if err != nil {
		h.Fail(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.RecordListResponse{
		Source:  source,
		Records: toRecordResponses(recs, s.Columns(source)),
		Count:   len(recs),
	})
}

// Overview handles GET /api/sessions/:id/overview.
func (h *ReconcileHandler) Overview(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	o, err := s.Overview()
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.WriteJSON(c, http.StatusOK, toOverviewResponse(o))
}

func toOverviewResponse(o aggregate.Overview) dto.OverviewResponse {
	return dto.OverviewResponse{
		TotalA:           o.TotalA,
		ReconciledAmount: o.ReconciledAmount,
		ReconciledCount:  o.ReconciledCount,
		PendingAmount:    o.PendingAmount,
		PendingCount:     o.PendingCount,
		TotalB:           o.TotalB,
		UnmatchedAmount:  o.UnmatchedAmount,
		UnmatchedCount:   o.UnmatchedCount,
		MatchGroups:      o.MatchGroups,
		QualityA:         o.QualityA,
		QualityB:         o.QualityB,
	}
}

func toRecordResponses(recs []record.Record, cols record.ColumnMapping) []dto.RecordResponse {
	out := make([]dto.RecordResponse, 0, len(recs))
	for _, r := range recs {
		v := normalizer.NormalizeRecord(r, cols)
		out = append(out, dto.RecordResponse{
			Index:      r.OriginalIndex,
			Status:     r.Status,
			MatchID:    r.MatchID,
			Identifier: v.Identifier,
			Amount:     v.Amount,
			Fields:     r.Fields,
		})
	}
	return out
}
