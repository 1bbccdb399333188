package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"invoicegrid/internal/cipher"
	"invoicegrid/internal/config"
	"invoicegrid/internal/extraction"
	"invoicegrid/internal/handler"
	"invoicegrid/internal/logging"
	"invoicegrid/internal/metrics"
	"invoicegrid/internal/pdfsource"
	"invoicegrid/internal/report"
	"invoicegrid/internal/repository/postgres"
	"invoicegrid/internal/router"
	"invoicegrid/internal/service"
	s3storage "invoicegrid/internal/storage/s3"
)

// @title invoicegrid API
// @version 1.0
// @description Line-item extraction from PDF invoices, with workbook and CSV export.
// @BasePath /api/v1
func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(cfg.Log)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	fieldCipher, err := cipher.NewFieldCipher(cfg.Cipher)
	if err != nil {
		return fmt.Errorf("failed to initialize field cipher: %w", err)
	}

	// Initialize repositories
	sessionRepo := postgres.NewSessionRepo(db, fieldCipher)

	// Initialize storage
	s3Client, err := s3storage.NewS3Client(ctx, &cfg.S3, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	m := metrics.New()

	// Initialize services
	source := pdfsource.NewReader(pdfsource.DefaultLayoutOptions(), logger)
	pipeline := extraction.NewPipeline(extraction.RulesFromConfig(cfg.Extraction), logger)
	extractSvc := service.NewExtractionService(source, pipeline, cfg.Extraction, cfg.S3.MaxFileSizeMB, m, logger)
	batchSvc := service.NewBatchService(extractSvc, cfg.Batch.Concurrency, logger)
	exportSvc := service.NewExportService(report.NewExporter(logger), s3Client, m, logger)
	sessionSvc := service.NewSessionService(sessionRepo, s3Client, batchSvc, exportSvc, &cfg.S3, &cfg.Export, m, logger)

	// Initialize handlers
	extractH := handler.NewExtractHandler(extractSvc, exportSvc)
	sessionH := handler.NewSessionHandler(sessionSvc)
	healthH := handler.NewHealthHandler(sessionRepo)

	// Setup router
	r := router.Setup(router.Options{
		Logger:      logger,
		Metrics:     m,
		CORSOrigins: cfg.Server.CORSOrigins,
		MaxUploadMB: cfg.S3.MaxFileSizeMB,
	}, extractH, sessionH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Server.Port).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
