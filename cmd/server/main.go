package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"review-service/internal/config"
	"review-service/internal/handler"
	"review-service/internal/ledger"
	"review-service/internal/repository"
	"review-service/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Review Service...")

	// Local .env is optional
	if err := godotenv.Load(); err == nil {
		logger.Info("Loaded .env file")
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Initialize vote ledger
	votes, err := newLedger(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize vote ledger", zap.Error(err))
	}
	defer votes.Close()

	// Initialize record repository
	records := repository.NewRecordRepository(cfg.DatasetDirs(), cfg.ImagesDir, logger)

	// Initialize session manager
	sessions := session.NewManager(
		session.Config{
			Reviewers:  cfg.Reviewers,
			Datasets:   cfg.DatasetNames(),
			Partitions: cfg.PartitionMap(),
		},
		records,
		votes,
		cfg.IdleTTL(),
		cfg.SweepInterval(),
		logger,
	)
	defer sessions.Close()

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(sessions, records, votes, cfg.DatasetNames(), cfg.PartitionMap(), logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	apiHandler.RegisterRoutes(router)

	// Serve image bytes
	router.Static("/images", cfg.ImagesDir)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("Server starting", zap.String("address", serverAddr))

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Review Service is running",
		zap.String("port", cfg.Server.Port),
		zap.String("ledger", cfg.Ledger.Backend),
		zap.Strings("datasets", cfg.DatasetNames()))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLedger(cfg *config.Config, logger *zap.Logger) (ledger.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "sheets":
		return ledger.NewSheetsLedger(context.Background(), ledger.SheetsConfig{
			SpreadsheetID:   cfg.Ledger.Sheets.SpreadsheetID,
			DefaultTab:      cfg.Ledger.Sheets.DefaultTab,
			CredentialsFile: cfg.Ledger.Sheets.CredentialsFile,
			CredentialsJSON: cfg.Ledger.Sheets.CredentialsJSON,
		}, logger)
	case "csv":
		if err := os.MkdirAll(filepath.Dir(cfg.Ledger.CSV.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		return ledger.NewCSVLedger(cfg.Ledger.CSV.Path, logger)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Ledger.SQLite.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
		return ledger.NewSQLiteLedger(cfg.Ledger.SQLite.Path, logger)
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}
