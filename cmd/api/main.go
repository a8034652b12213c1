package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kitecrm/export-service/internal/api"
	"github.com/kitecrm/export-service/internal/config"
	"github.com/kitecrm/export-service/internal/logger"
	"github.com/kitecrm/export-service/internal/notify"
	"github.com/kitecrm/export-service/internal/repository"
	"github.com/kitecrm/export-service/internal/service"
	"github.com/kitecrm/export-service/internal/storage"
)

func main() {
	// Initialize logger first so startup failures are captured
	log := logger.NewDefault()
	logger.SetDefaultLogger(log)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db)
	crmRepo := repository.NewCRMRepository(db)

	// Initialize artifact storage (supports local filesystem, S3, R2)
	objectStorage, err := storage.NewStorage(&storage.Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		LocalDir:  cfg.Storage.LocalDir,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	ctx := context.Background()
	if err := objectStorage.Ensure(ctx); err != nil {
		log.WithError(err).Fatal("Failed to prepare storage")
	}

	// Optional webhook notifier for terminal job states
	var notifier notify.Notifier
	if cfg.Webhook.URL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Webhook.URL, cfg.Webhook.Token, cfg.Webhook.Timeout)
		log.WithField("url", cfg.Webhook.URL).Info("Webhook notifications enabled")
	}

	// Initialize services
	exportService := service.NewExportService(jobRepo, crmRepo, objectStorage, notifier, log, &service.Options{
		Workers:    cfg.Export.Workers,
		BatchSize:  cfg.Export.BatchSize,
		JobTimeout: cfg.Export.JobTimeout,
	})
	catalogService := service.NewCatalogService(crmRepo, log)

	// Setup router
	router := api.SetupRouter(exportService, catalogService, log, cfg.Server.Mode, cfg.Server.CORS.AllowedOrigins)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown with timeout; running exports get a chance to
	// cancel cleanly so no job is left stuck in processing
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}
	if err := exportService.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Export workers did not drain in time")
	}

	log.Info("Server exited")
}
