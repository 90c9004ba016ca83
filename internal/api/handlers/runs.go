package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconciler/internal/api/dto"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

// RunsHandler handles journaled run requests.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(sessions *session.Manager, repo storage.Repository, logger *slog.Logger) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(sessions, repo, logger),
	}
}

// List handles GET /api/runs - returns the most recent runs.
func (h *RunsHandler) List(c *gin.Context) {
	limit := ParseIntParam(c, "limit", 20)

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		h.Fail(c, err)
		return
	}
	if runs == nil {
		runs = []storage.Run{}
	}

	h.WriteJSON(c, http.StatusOK, dto.RunListResponse{Runs: runs, Count: len(runs)})
}

// Get handles GET /api/runs/:id - returns a run and its manual actions.
func (h *RunsHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid run ID"))
		return
	}

	run, err := h.repo.GetRun(id)
	if err != nil {
		h.Fail(c, err)
		return
	}
	events, err := h.repo.ListEvents(id)
	if err != nil {
		h.Fail(c, err)
		return
	}
	if events == nil {
		events = []storage.MatchEvent{}
	}

	h.WriteJSON(c, http.StatusOK, dto.RunDetailResponse{Run: *run, Events: events})
}
