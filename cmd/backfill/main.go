// Command backfill re-extracts the stored uploads of every completed session
// with the current extraction rules, replaces the persisted line items, and
// regenerates the session workbook from the new results.
// Usage: go run ./cmd/backfill
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"invoicegrid/internal/cipher"
	"invoicegrid/internal/config"
	"invoicegrid/internal/domain"
	"invoicegrid/internal/extraction"
	"invoicegrid/internal/logging"
	"invoicegrid/internal/pdfsource"
	"invoicegrid/internal/port"
	"invoicegrid/internal/report"
	"invoicegrid/internal/repository/postgres"
	"invoicegrid/internal/service"
	s3storage "invoicegrid/internal/storage/s3"
)

const batchSize = 100

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := logging.New(cfg.Log)
	ctx := context.Background()

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	fieldCipher, err := cipher.NewFieldCipher(cfg.Cipher)
	if err != nil {
		return fmt.Errorf("initializing field cipher: %w", err)
	}
	repo := postgres.NewSessionRepo(db, fieldCipher)

	storage, err := s3storage.NewS3Client(ctx, &cfg.S3, logger)
	if err != nil {
		return fmt.Errorf("initializing S3 client: %w", err)
	}

	source := pdfsource.NewReader(pdfsource.DefaultLayoutOptions(), logger)
	pipeline := extraction.NewPipeline(extraction.RulesFromConfig(cfg.Extraction), logger)
	extractor := service.NewExtractionService(source, pipeline, cfg.Extraction, cfg.S3.MaxFileSizeMB, nil, logger)
	exporter := service.NewExportService(report.NewExporter(logger), storage, nil, logger)

	dir, err := os.MkdirTemp("", "invoicegrid-backfill-*")
	if err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	offset, total := 0, 0
	for {
		sessions, _, err := repo.ListSessions(ctx, offset, batchSize)
		if err != nil {
			return fmt.Errorf("listing sessions at offset %d: %w", offset, err)
		}
		if len(sessions) == 0 {
			break
		}

		for i := range sessions {
			if sessions[i].Status != domain.SessionStatusCompleted {
				continue
			}
			n, err := backfillSession(ctx, repo, storage, extractor, exporter, dir, &sessions[i], logger)
			if err != nil {
				logger.WithError(err).WithField("session_id", sessions[i].ID).Warn("backfill: skipping session")
				continue
			}
			total += n
		}

		offset += len(sessions)
		logger.WithField("files", total).Info("backfill: progress")
	}

	logger.WithField("files", total).Info("backfill: complete")
	return nil
}

// backfillSession re-extracts every completed file of one session and returns
// how many were rewritten. The workbook is re-uploaded only when every
// completed file was rewritten.
func backfillSession(
	ctx context.Context,
	repo port.SessionRepository,
	storage port.ObjectStorage,
	extractor service.ExtractionService,
	exporter service.ExportService,
	dir string,
	session *domain.Session,
	logger logrus.FieldLogger,
) (int, error) {
	files, err := repo.ListFiles(ctx, session.ID)
	if err != nil {
		return 0, err
	}

	results := make([]domain.ExtractionResult, 0, len(files))
	n, skipped := 0, 0
	for i := range files {
		file := &files[i]
		if file.Status != domain.FileStatusCompleted {
			results = append(results, domain.ExtractionResult{
				Filename:  file.Filename,
				Error:     file.ErrorMessage,
				LineItems: []domain.LineItem{},
			})
			continue
		}
		log := logger.WithFields(logrus.Fields{"session_id": session.ID, "file_id": file.ID})

		body, err := storage.Download(ctx, file.StorageBucket, file.StorageKey)
		if err != nil {
			log.WithError(err).Warn("backfill: download failed")
			skipped++
			continue
		}
		result, err := reextract(ctx, extractor, dir, file, body)
		if err != nil {
			return n, err
		}
		if result.Failed() {
			log.WithField("error", result.Error).Warn("backfill: extraction failed, keeping stored items")
			skipped++
			continue
		}

		if err := repo.SaveResult(ctx, file.ID, result); err != nil {
			log.WithError(err).Warn("backfill: saving result failed")
			skipped++
			continue
		}
		now := time.Now().UTC()
		file.NumPages = result.Metadata.Pages
		file.NumTables = len(result.Tables)
		file.NumLineItems = len(result.LineItems)
		file.ProcessedAt = &now
		if err := repo.UpdateFile(ctx, file); err != nil {
			log.WithError(err).Warn("backfill: updating file failed")
			skipped++
			continue
		}
		results = append(results, *result)
		n++
	}

	if n == 0 || session.OutputKey == "" {
		return n, nil
	}
	if skipped > 0 {
		logger.WithFields(logrus.Fields{"session_id": session.ID, "skipped": skipped}).
			Warn("backfill: workbook left unchanged")
		return n, nil
	}
	if err := exporter.Upload(ctx, service.FormatXLSX, results, session.OutputBucket, session.OutputKey); err != nil {
		return n, fmt.Errorf("regenerating workbook: %w", err)
	}
	return n, nil
}

// reextract writes a stored upload to dir and extracts it under its original name.
func reextract(
	ctx context.Context,
	extractor service.ExtractionService,
	dir string,
	file *domain.ProcessedFile,
	body []byte,
) (*domain.ExtractionResult, error) {
	path := filepath.Join(dir, file.ID.String()+".pdf")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(path)

	result := extractor.ExtractFile(ctx, path)
	result.Filename = file.Filename
	result.FilePath = file.Filename
	return &result, nil
}
