package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/analyzer"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/config"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/db"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/handlers"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/repository"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/router"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/services"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/storage"
	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Run migrations
	if err := db.RunMigrations(cfg.DatabasePath); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	// Initialize database
	database, err := db.NewSQLiteDB(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	// Initialize document storage
	var store storage.Storage
	if cfg.S3Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		store, err = storage.NewS3Storage(ctx, cfg)
		cancel()
		if err != nil {
			logger.Fatal("Failed to initialize S3 storage", "error", err)
		}
		logger.Info("Using S3 document storage", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketName)
	} else {
		store = storage.NewMemoryStorage()
		logger.Warn("S3 disabled, uploaded documents are kept in memory")
	}

	// Initialize analysis service
	repo := repository.NewRepository(database)
	engine := analyzer.NewEngine(cfg.AnalysisWorkers)
	analysisService := services.NewService(repo, store, engine, logger)

	// Setup HTTP router
	handler := router.NewRouter(analysisService, logger, handlers.Limits{
		MaxFileSize:      cfg.MaxFileSize,
		MaxFilesPerBatch: cfg.MaxFilesPerBatch,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
