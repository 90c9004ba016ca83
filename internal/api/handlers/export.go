package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ledger-reconciler/internal/adapters/export"
	"github.com/eshaffer321/ledger-reconciler/internal/api/dto"
	"github.com/eshaffer321/ledger-reconciler/internal/application/session"
	"github.com/eshaffer321/ledger-reconciler/internal/infrastructure/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler streams reports.
type ExportHandler struct {
	*Base
}

// NewExportHandler creates a new export handler.
func NewExportHandler(sessions *session.Manager, repo storage.Repository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		Base: NewBase(sessions, repo, logger),
	}
}

// Export handles GET /api/sessions/:id/export?provider=...&format=xlsx|csv&sheet=...
//
// The workbook holds every non-empty sheet. CSV carries a single sheet,
// the first one unless sheet names another.
func (h *ExportHandler) Export(c *gin.Context) {
	s, ok := h.Session(c)
	if !ok {
		return
	}

	rep, err := s.Report(c.Query("provider"))
	if err != nil {
		h.Fail(c, err)
		return
	}

	switch format := c.DefaultQuery("format", "xlsx"); format {
	case "xlsx":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Name+".xlsx"))
		c.Header("Content-Type", xlsxContentType)
		c.Status(http.StatusOK)
		if err := export.WriteXLSX(c.Writer, rep); err != nil {
			h.logger.Error("failed to write workbook", "report", rep.Name, "error", err)
		}
	case "csv":
		sheet, found := rep.Sheets[0], true
		if name := c.Query("sheet"); name != "" {
			sheet, found = findSheet(rep, name)
		}
		if !found {
			h.WriteError(c, http.StatusNotFound, dto.NotFoundError("sheet"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.Name+".csv"))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := export.WriteCSVSheet(c.Writer, sheet); err != nil {
			h.logger.Error("failed to write csv", "report", rep.Name, "sheet", sheet.Name, "error", err)
		}
	default:
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError(fmt.Sprintf("unknown format %q", format)))
	}
}

func findSheet(rep *export.Report, name string) (export.Sheet, bool) {
	for _, s := range rep.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return export.Sheet{}, false
}
