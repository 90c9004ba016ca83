package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconciler/internal/api/dto"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

// ProvidersHandler handles provider listing and focus.
type ProvidersHandler struct {
	*Base
}

// NewProvidersHandler creates a new providers handler.
func NewProvidersHandler(sessions *session.Manager, repo storage.Repository, logger *slog.Logger) *ProvidersHandler {
	return &ProvidersHandler{
		Base: NewBase(sessions, repo, logger),
	}
}

// List handles GET /api/sessions/:id/providers?q=...
func (h *ProvidersHandler) List(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	ids, err := s.Providers(c.Query("q"))
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.ProviderListResponse{Providers: ids, Count: len(ids)})
}

// Get handles GET /api/sessions/:id/providers/:identifier.
func (h *ProvidersHandler) Get(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	p, err := s.ProviderDetails(c.Param("identifier"))
	if err != nil {
		h.Fail(c, err)
		return
	}

	colsA, colsB := s.Columns(record.SourceA), s.Columns(record.SourceB)
	h.WriteJSON(c, http.StatusOK, dto.ProviderResponse{
		Identifier:  p.Identifier,
		TotalA:      p.TotalA,
		TotalB:      p.TotalB,
		Difference:  p.Difference,
		PendingA:    toRecordResponses(p.PendingA, colsA),
		ReconciledA: toRecordResponses(p.ReconciledA, colsA),
		UnmatchedB:  toRecordResponses(p.UnmatchedB, colsB),
		ReconciledB: toRecordResponses(p.ReconciledB, colsB),
	})
}

// SetFocus handles PUT /api/sessions/:id/provider.
func (h *ProvidersHandler) SetFocus(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	var req dto.ProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid request body: "+err.Error()))
		return
	}
	if err := s.SetProvider(req.Identifier); err != nil {
		h.Fail(c, err)
		return
	}

	sel, err := s.Selection()
	if err != nil {
		h.Fail(c, err)
		return
	}
	h.WriteJSON(c, http.StatusOK, toSelectionResponse(sel))
}
