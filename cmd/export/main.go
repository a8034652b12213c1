package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kitecrm/export-service/internal/config"
	"github.com/kitecrm/export-service/internal/domain"
	"github.com/kitecrm/export-service/internal/logger"
	"github.com/kitecrm/export-service/internal/repository"
	"github.com/kitecrm/export-service/internal/service"
	"github.com/kitecrm/export-service/internal/storage"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "warn",
		Format:      "text",
		ServiceName: "crm-export-cli",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	entities := flag.String("entities", "", "Comma-separated entity kinds to export (empty lists the catalog)")
	format := flag.String("format", "csv", "Output format: csv, json, or xlsx")
	dateRange := flag.String("range", "all", "Date range: all, year, quarter, or month")
	includeArchived := flag.Bool("include-archived", false, "Include archived records")
	includeDeleted := flag.Bool("include-deleted", false, "Include deleted records")
	seed := flag.Int("seed", 0, "Seed the database with N demo records per entity before exporting")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	if *seed > 0 {
		if err := repository.SeedDemoData(db, *seed); err != nil {
			appLogger.WithError(err).Fatal("Failed to seed demo data")
		}
		fmt.Printf("Seeded %d demo records per entity\n", *seed)
	}

	// Initialize repositories and storage
	jobRepo := repository.NewJobRepository(db)
	crmRepo := repository.NewCRMRepository(db)

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
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := objectStorage.Ensure(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to prepare storage")
	}

	exportService := service.NewExportService(jobRepo, crmRepo, objectStorage, nil, appLogger, &service.Options{
		Workers:    cfg.Export.Workers,
		BatchSize:  cfg.Export.BatchSize,
		JobTimeout: cfg.Export.JobTimeout,
	})
	catalogService := service.NewCatalogService(crmRepo, appLogger)

	// No entities requested: print the catalog and exit
	if *entities == "" {
		fmt.Println("Available data types:")
		for _, desc := range catalogService.ListEntities(ctx) {
			fmt.Printf("  %-16s %-16s %d records\n", desc.Kind, desc.Label, desc.RecordCount)
		}
		fmt.Println("\nFormats:")
		for _, desc := range catalogService.ListFormats() {
			fmt.Printf("  %-6s %s\n", desc.Format, desc.Description)
		}
		return
	}

	// Build the export request from flags
	req := service.NewExportRequest()
	kinds := make([]domain.EntityKind, 0)
	for _, raw := range strings.Split(*entities, ",") {
		raw = strings.TrimSpace(raw)
		if raw != "" {
			kinds = append(kinds, domain.EntityKind(raw))
		}
	}
	req.SetEntities(kinds)
	req.SetFormat(domain.Format(*format))
	req.SetDateRange(domain.DateRange(*dateRange))
	req.SetIncludeArchived(*includeArchived)
	req.SetIncludeDeleted(*includeDeleted)

	// Print progress as the job advances
	exportService.SetProgressObserver(func(jobID string, progress int) {
		fmt.Printf("\rExporting... %3d%%", progress)
	})

	job, err := exportService.StartExport(ctx, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	// Ctrl-C cancels the running job instead of killing it mid-write
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		fmt.Println("\nCancelling...")
		_ = exportService.CancelExport(ctx, job.ID)
	}()

	exportService.Wait()
	fmt.Println()

	final, err := exportService.GetJob(ctx, job.ID)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load job result")
	}

	switch final.Status {
	case domain.JobStatusCompleted:
		fmt.Printf("Export completed: %d records, %s\n", final.RecordCount, final.FileSize)
		fmt.Printf("Artifact: %s\n", objectStorage.GetURL(final.DownloadRef))
	case domain.JobStatusCancelled:
		fmt.Println("Export cancelled")
	default:
		fmt.Fprintf(os.Stderr, "Export %s: %s\n", final.Status, final.Error)
		os.Exit(1)
	}
}
