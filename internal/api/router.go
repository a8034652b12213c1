package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kitecrm/export-service/internal/api/handler"
	"github.com/kitecrm/export-service/internal/api/middleware"
	"github.com/kitecrm/export-service/internal/logger"
	"github.com/kitecrm/export-service/internal/service"
)

// SetupRouter configures the Gin router with all routes
func SetupRouter(
	exportService *service.ExportService,
	catalogService *service.CatalogService,
	log *logger.Logger,
	mode string,
	allowedOrigins []string,
) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  allowedOrigins,
		AllowAllOrigins: len(allowedOrigins) == 0,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	exportHandler := handler.NewExportHandler(exportService)
	catalogHandler := handler.NewCatalogHandler(catalogService)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Export jobs
		v1.POST("/exports", exportHandler.StartExport)
		v1.GET("/exports", exportHandler.ListExports)
		v1.GET("/exports/:id", exportHandler.GetExport)
		v1.GET("/exports/:id/download", exportHandler.DownloadExport)
		v1.POST("/exports/:id/cancel", exportHandler.CancelExport)
		v1.DELETE("/exports/:id", exportHandler.DeleteExport)

		// Catalog
		v1.GET("/catalog/entities", catalogHandler.ListEntities)
		v1.GET("/catalog/formats", catalogHandler.ListFormats)
	}

	return r
}
