package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconciler/internal/api/dto"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/selection"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

// SelectionHandler handles the manual selection and its commits.
type SelectionHandler struct {
	*Base
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(sessions *session.Manager, repo storage.Repository, logger *slog.Logger) *SelectionHandler {
	return &SelectionHandler{
		Base: NewBase(sessions, repo, logger),
	}
}

// Get handles GET /api/sessions/:id/selection.
func (h *SelectionHandler) Get(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}
	h.writeSelection(c, s)
}

// Clear handles DELETE /api/sessions/:id/selection.
func (h *SelectionHandler) Clear(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}
	if err := s.ClearSelection(); err != nil {
		h.Fail(c, err)
		return
	}
	h.writeSelection(c, s)
}

// Toggle handles POST /api/sessions/:id/selection/toggle.
func (h *SelectionHandler) Toggle(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	var req dto.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}

	selected, err := s.Toggle(selection.Bucket(req.Bucket), *req.Index)
	if err != nil {
		h.Fail(c, err)
		return
	}
	sel, err := s.Selection()
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.ToggleResponse{Selected: selected, Selection: toSelectionResponse(sel)})
}

// Select handles POST /api/sessions/:id/selection/select.
func (h *SelectionHandler) Select(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	var req dto.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}
	if err := s.SelectAll(selection.Bucket(req.Bucket), req.Indices); err != nil {
		h.Fail(c, err)
		return
	}
	h.writeSelection(c, s)
}

// Commit handles POST /api/sessions/:id/selection/commit.
func (h *SelectionHandler) Commit(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	matchID, err := s.CommitReconcile()
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.CommitResponse{MatchID: matchID})
}

// Dereconcile handles POST /api/sessions/:id/selection/dereconcile.
func (h *SelectionHandler) Dereconcile(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	result, err := s.CommitDereconcile()
	if err != nil {
		h.Fail(c, err)
		return
	}

	resp := dto.DereconcileResponse{
		Groups:    make([]dto.GroupResponse, 0, len(result.Groups)),
		Anomalies: make([]dto.AnomalyResponse, 0, len(result.Anomalies)),
	}
	for _, g := range result.Groups {
		resp.Groups = append(resp.Groups, dto.GroupResponse{MatchID: g.MatchID, A: g.A, B: g.B})
	}
	for _, a := range result.Anomalies {
		resp.Anomalies = append(resp.Anomalies, dto.AnomalyResponse{MatchID: a.MatchID, A: a.A, Reason: a.Reason})
	}
	resp.RevertedA, resp.RevertedB = result.Reverted()
	h.WriteJSON(c, http.StatusOK, resp)
}

func (h *SelectionHandler) writeSelection(c *gin.Context, s *session.Session) {
	sel, err := s.Selection()
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.WriteJSON(c, http.StatusOK, toSelectionResponse(sel))
}

func toSelectionResponse(sel *session.Selection) dto.SelectionResponse {
	return dto.SelectionResponse{
		Provider:   sel.Provider,
		Pending:    sel.Pending,
		Unmatched:  sel.Unmatched,
		Reconciled: sel.Reconciled,
		Preview:    sel.Preview,
	}
}
