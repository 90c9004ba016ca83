package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconciler/internal/adapters/export"
	"github.com/eshaffer321/ledger-reconciler/internal/adapters/ingest"
	"github.com/eshaffer321/ledger-reconciler/internal/api/dto"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/selection"
	"github.com/eshaffer321/ledger-reconciler/internal/domain/state"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

// Base provides shared functionality for all handlers.
type Base struct {
	sessions *session.Manager
	repo     storage.Repository
	logger   *slog.Logger
}

// NewBase creates a new base handler.
func NewBase(sessions *session.Manager, repo storage.Repository, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{sessions: sessions, repo: repo, logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.AbortWithStatusJSON(status, err)
}

// Fail maps a domain error onto an HTTP status and writes it.
func (b *Base) Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError("session"))
	case errors.Is(err, storage.ErrNotFound):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError("run"))
	case errors.Is(err, selection.ErrUnbalanced):
		b.WriteError(c, http.StatusUnprocessableEntity, dto.UnbalancedError(err.Error()))
	case errors.Is(err, state.ErrNotPending),
		errors.Is(err, state.ErrNotReconciled),
		errors.Is(err, state.ErrMatchIDInUse),
		errors.Is(err, state.ErrIncompleteGroup),
		errors.Is(err, selection.ErrSelectionEmpty),
		errors.Is(err, selection.ErrMixedSelection),
		errors.Is(err, session.ErrNoResults),
		errors.Is(err, session.ErrSourcesMissing),
		errors.Is(err, export.ErrEmptyReport):
		b.WriteError(c, http.StatusConflict, dto.ConflictError(err.Error()))
	case errors.Is(err, state.ErrUnknownRecord),
		errors.Is(err, selection.ErrUnknownBucket),
		errors.Is(err, session.ErrUnknownSource),
		errors.Is(err, session.ErrInvalidColumns),
		errors.Is(err, session.ErrOutsideProvider),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrNoHeader):
		b.WriteError(c, http.StatusBadRequest, dto.BadRequestError(err.Error()))
	default:
		b.logger.Error("request failed", "path", c.FullPath(), "error", err)
		b.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}

// Session loads the session named by the :id path parameter. It writes the
// error response and returns false when the session does not exist.
func (b *Base) Session(c *gin.Context) (*session.Session, bool) {
	s, err := b.sessions.Get(c.Param("id"))
	if err != nil {
		b.Fail(c, err)
		return nil, false
	}
	return s, true
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
