package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"invoicegrid/internal/config"
	"invoicegrid/internal/domain"
	"invoicegrid/internal/extraction"
	"invoicegrid/internal/metrics"
	"invoicegrid/internal/port"
)

// ExtractionService turns one PDF into an ExtractionResult.
type ExtractionService interface {
	// ExtractFile never returns an error: failures are recorded on the result.
	ExtractFile(ctx context.Context, path string) domain.ExtractionResult
	ExtractUpload(ctx context.Context, input UploadInput) (*domain.ExtractionResult, error)
}

type extractionService struct {
	source   port.DocumentSource
	pipeline *extraction.Pipeline
	cfg      config.ExtractionConfig
	maxBytes int64
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

// NewExtractionService creates a new ExtractionService implementation.
func NewExtractionService(
	source port.DocumentSource,
	pipeline *extraction.Pipeline,
	cfg config.ExtractionConfig,
	maxFileSizeMB int64,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) ExtractionService {
	return &extractionService{
		source:   source,
		pipeline: pipeline,
		cfg:      cfg,
		maxBytes: maxFileSizeMB * 1024 * 1024,
		metrics:  m,
		log:      logger,
	}
}

func (s *extractionService) ExtractFile(ctx context.Context, path string) domain.ExtractionResult {
	start := time.Now()
	result := domain.ExtractionResult{
		Filename:    filepath.Base(path),
		FilePath:    path,
		Tables:      []domain.RawTable{},
		LineItems:   []domain.LineItem{},
		ExtractedAt: time.Now().UTC(),
	}
	logger := s.log.WithField("file", result.Filename)

	doc, err := s.source.Open(ctx, path)
	if err != nil {
		result.Error = err.Error()
		if info, statErr := os.Stat(path); statErr == nil {
			result.Metadata.FileSizeBytes = info.Size()
		}
		logger.WithError(err).Warn("extractionService.ExtractFile: extraction failed")
		s.metrics.ObserveFile(true, 0, time.Since(start))
		return result
	}
	result.Metadata = doc.Metadata

	var text []string
	for _, page := range doc.Pages {
		if s.cfg.ExtractText && page.Text != "" {
			text = append(text, fmt.Sprintf("Page %d:\n%s\n", page.Number, page.Text))
		}
		if !s.cfg.ExtractTables {
			continue
		}
		for i, grid := range page.Tables {
			result.Tables = append(result.Tables, domain.RawTable{
				Page:            page.Number,
				TableNumber:     i + 1,
				Rows:            grid,
				DetectionMethod: page.DetectionMethod,
			})
		}
	}
	result.Text = strings.Join(text, "\n")

	if items := s.pipeline.Extract(result.Tables, result.Text); len(items) > 0 {
		result.LineItems = items
	}
	result.Invoice = s.pipeline.ExtractInvoiceMetadata(result.Text)

	logger.WithFields(logrus.Fields{
		"pages":      doc.PageCount,
		"tables":     len(result.Tables),
		"line_items": len(result.LineItems),
	}).Info("extractionService.ExtractFile: extracted")
	s.metrics.ObserveFile(false, len(result.LineItems), time.Since(start))
	return result
}

// ExtractUpload spools an uploaded PDF to a temporary directory and extracts it.
// Validation failures are returned as errors; extraction failures are on the result.
func (s *extractionService) ExtractUpload(ctx context.Context, input UploadInput) (*domain.ExtractionResult, error) {
	dir, err := os.MkdirTemp("", "invoicegrid-extract-*")
	if err != nil {
		return nil, fmt.Errorf("extractionService.ExtractUpload: %w", err)
	}
	defer os.RemoveAll(dir)

	spooled, err := spoolPDF(dir, 0, input, s.maxBytes)
	if err != nil {
		return nil, err
	}

	result := s.ExtractFile(ctx, spooled.Path)
	result.FilePath = spooled.Filename
	return &result, nil
}
