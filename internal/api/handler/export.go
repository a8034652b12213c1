package handler

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kitecrm/export-service/internal/domain"
	"github.com/kitecrm/export-service/internal/service"
)

// ExportHandler handles export job endpoints.
type ExportHandler struct {
	exportService *service.ExportService
}

// NewExportHandler creates a new export handler.
// Parameters:
//   - exportService: export service instance.
// Returns:
//   - *ExportHandler: initialized handler.
func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// StartExportRequest is the JSON body for POST /api/v1/exports.
type StartExportRequest struct {
	Entities        []domain.EntityKind `json:"entities"`
	Format          domain.Format       `json:"format"`
	DateRange       domain.DateRange    `json:"date_range"`
	DateFrom        *time.Time          `json:"date_from"`
	DateTo          *time.Time          `json:"date_to"`
	IncludeArchived bool                `json:"include_archived"`
	IncludeDeleted  bool                `json:"include_deleted"`
}

// StartExport handles POST /api/v1/exports. A valid request is accepted
// with 202 and the pending job; the export runs asynchronously.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ExportHandler) StartExport(c *gin.Context) {
	var body StartExportRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	req := service.NewExportRequest()
	req.SetEntities(body.Entities)
	if body.Format != "" {
		req.SetFormat(body.Format)
	}
	if body.DateRange != "" {
		req.SetDateRange(body.DateRange)
	}
	req.SetCustomRange(body.DateFrom, body.DateTo)
	req.SetIncludeArchived(body.IncludeArchived)
	req.SetIncludeDeleted(body.IncludeDeleted)

	job, err := h.exportService.StartExport(c.Request.Context(), req)
	if err != nil {
		if domain.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start export: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// ListExports handles GET /api/v1/exports. History is returned newest first.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ExportHandler) ListExports(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit parameter",
			})
			return
		}
		limit = parsed
	}

	jobs, err := h.exportService.ListJobs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list exports: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"exports": jobs,
		"total":   len(jobs),
	})
}

// GetExport handles GET /api/v1/exports/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ExportHandler) GetExport(c *gin.Context) {
	job, err := h.exportService.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Export job not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get export: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, job)
}

// DownloadExport handles GET /api/v1/exports/:id/download. The artifact of
// a completed job is streamed as a file attachment.
// Parameters:
//   - c: Gin request context.
// Returns: none (streams file or writes JSON error).
func (h *ExportHandler) DownloadExport(c *gin.Context) {
	job, reader, err := h.exportService.DownloadExport(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Export job not found",
			})
		case errors.Is(err, domain.ErrJobNotReady):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Export is not ready for download",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to open export artifact: " + err.Error(),
			})
		}
		return
	}
	defer reader.Close()

	filename := path.Base(job.DownloadRef)
	headers := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	}
	c.DataFromReader(http.StatusOK, job.SizeBytes, contentTypeFor(filename), reader, headers)
}

// CancelExport handles POST /api/v1/exports/:id/cancel. Cancellation is
// asynchronous: the response confirms the request, and the job reaches the
// cancelled state once its worker stops.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ExportHandler) CancelExport(c *gin.Context) {
	err := h.exportService.CancelExport(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Export job not found",
			})
		case errors.Is(err, domain.ErrJobFinished):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Export job already finished",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to cancel export: " + err.Error(),
			})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "cancelling",
	})
}

// DeleteExport handles DELETE /api/v1/exports/:id. The delete is
// idempotent: unknown ids and repeated deletes both return 204.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes status only).
func (h *ExportHandler) DeleteExport(c *gin.Context) {
	if err := h.exportService.DeleteExport(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete export: " + err.Error(),
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// contentTypeFor maps an artifact filename to its download content type.
// Multi-entity csv and json exports are bundled as zip, so the extension,
// not the job format, decides.
func contentTypeFor(filename string) string {
	switch path.Ext(filename) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
