package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconciler/internal/adapters/ingest"
	"github.com/eshaffer321/ledger-reconciler/internal/api/dto"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/record"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/config"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

// SessionsHandler handles session lifecycle and file uploads.
type SessionsHandler struct {
	*Base
	columns config.ColumnsConfig
}

// NewSessionsHandler creates a new sessions handler. columns supplies the
// hints used to suggest a mapping for uploaded files.
func NewSessionsHandler(sessions *session.Manager, repo storage.Repository, columns config.ColumnsConfig, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		Base:    NewBase(sessions, repo, logger),
		columns: columns,
	}
}

// Create handles POST /api/sessions.
func (h *SessionsHandler) Create(c *gin.Context) {
	s := h.sessions.Create()
	h.WriteJSON(c, http.StatusCreated, h.toSessionResponse(s))
}

// Get handles GET /api/sessions/:id.
func (h *SessionsHandler) Get(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}
	h.WriteJSON(c, http.StatusOK, h.toSessionResponse(s))
}

// Delete handles DELETE /api/sessions/:id.
func (h *SessionsHandler) Delete(c *gin.Context) {
	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Upload handles POST /api/sessions/:id/sources/:source with a multipart
// "file" field.
func (h *SessionsHandler) Upload(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	source, err := session.ParseSource(c.Param("source"))
	if err != nil {
		h.Fail(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("multipart field \"file\" is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.Fail(c, err)
		return
	}
	defer f.Close()

	table, err := ingest.Read(fh.Filename, f)
	if err != nil {
		h.Fail(c, err)
		return
	}
	if err := s.SetSource(source, table); err != nil {
		h.Fail(c, err)
		return
	}

	h.WriteJSON(c, http.StatusOK, h.toSourceResponse(source, table))
}

func (h *SessionsHandler) amountHints(source record.Source) []string {
	if source == record.SourceB {
		return h.columns.AmountHintsB
	}
	return h.columns.AmountHintsA
}

func (h *SessionsHandler) toSourceResponse(source record.Source, t *ingest.Table) dto.SourceResponse {
	return dto.SourceResponse{
		Name:      t.Name,
		Columns:   t.Columns,
		Rows:      len(t.Rows),
		Suggested: ingest.SuggestMapping(t.Columns, h.columns.IdentifierHints, h.amountHints(source)),
	}
}

func (h *SessionsHandler) toSessionResponse(s *session.Session) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt.Format(time.RFC3339),
		Sources:    make(map[string]dto.SourceResponse, 2),
		Reconciled: s.Reconciled(),
		RunID:      s.RunID(),
		Provider:   s.Provider(),
	}
	for _, source := range []record.Source{record.SourceA, record.SourceB} {
		if t, ok := s.Table(source); ok {
			resp.Sources[string(source)] = h.toSourceResponse(source, t)
		}
	}
	return resp
}
