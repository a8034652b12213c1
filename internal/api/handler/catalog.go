package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kitecrm/export-service/internal/service"
)

// CatalogHandler handles catalog endpoints.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
// Parameters:
//   - catalogService: catalog service instance.
// Returns:
//   - *CatalogHandler: initialized handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// ListEntities handles GET /api/v1/catalog/entities.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CatalogHandler) ListEntities(c *gin.Context) {
	entities := h.catalogService.ListEntities(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"entities": entities,
		"total":    len(entities),
	})
}

// ListFormats handles GET /api/v1/catalog/formats.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CatalogHandler) ListFormats(c *gin.Context) {
	formats := h.catalogService.ListFormats()
	c.JSON(http.StatusOK, gin.H{
		"formats": formats,
		"total":   len(formats),
	})
}
