package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"invoicegrid/internal/csvexport"
	"invoicegrid/internal/domain"
	"invoicegrid/internal/metrics"
	"invoicegrid/internal/port"
	"invoicegrid/internal/report"
	"invoicegrid/internal/storage/s3"
)

// Export formats.
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// ExportService writes extraction results as a workbook or CSV, to a stream,
// a local path, or an s3://bucket/key destination.
type ExportService interface {
	Write(ctx context.Context, format string, results []domain.ExtractionResult, w io.Writer) error
	Save(ctx context.Context, format string, results []domain.ExtractionResult, dest string) error
	Upload(ctx context.Context, format string, results []domain.ExtractionResult, bucket, key string) error
}

type exportService struct {
	exporter *report.Exporter
	storage  port.ObjectStorage
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

// NewExportService creates a new ExportService. storage may be nil when
// only local destinations are used.
func NewExportService(exporter *report.Exporter, storage port.ObjectStorage, m *metrics.Metrics, logger logrus.FieldLogger) ExportService {
	return &exportService{exporter: exporter, storage: storage, metrics: m, log: logger}
}

// ContentType returns the MIME type for an export format.
func ContentType(format string) string {
	if format == FormatCSV {
		return domain.ContentTypeCSV
	}
	return domain.ContentTypeXLSX
}

func (s *exportService) Write(_ context.Context, format string, results []domain.ExtractionResult, w io.Writer) error {
	if format == "" {
		format = FormatXLSX
	}
	var err error
	switch format {
	case FormatXLSX:
		err = s.exporter.Export(results, w)
	case FormatCSV:
		err = csvexport.NewWriter(w).Write(results)
	default:
		return fmt.Errorf("%w: unknown format %q", domain.ErrExportFailed, format)
	}
	s.metrics.ObserveExport(format, err)
	if err != nil {
		return fmt.Errorf("exportService.Write: %w: %w", domain.ErrExportFailed, err)
	}
	return nil
}

func (s *exportService) Save(ctx context.Context, format string, results []domain.ExtractionResult, dest string) error {
	if bucket, key, ok := s3.ParseURI(dest); ok {
		return s.Upload(ctx, format, results, bucket, key)
	}

	f, err := os.Create(dest)
	if err != nil {
		s.metrics.ObserveExport(format, err)
		return fmt.Errorf("exportService.Save: %w: %w", domain.ErrExportFailed, err)
	}
	if err := s.Write(ctx, format, results, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("exportService.Save: %w: %w", domain.ErrExportFailed, err)
	}

	s.log.WithFields(logrus.Fields{"format": format, "path": dest}).Info("exportService.Save: export written")
	return nil
}

func (s *exportService) Upload(ctx context.Context, format string, results []domain.ExtractionResult, bucket, key string) error {
	if s.storage == nil {
		return fmt.Errorf("exportService.Upload: object storage is not configured: %w", domain.ErrUploadFailed)
	}

	var buf bytes.Buffer
	if err := s.Write(ctx, format, results, &buf); err != nil {
		return err
	}
	size := int64(buf.Len())
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      bucket,
		Key:         key,
		Body:        &buf,
		ContentType: ContentType(format),
		Size:        size,
	})
	if err != nil {
		return fmt.Errorf("exportService.Upload: %w: %w", domain.ErrUploadFailed, err)
	}

	s.log.WithFields(logrus.Fields{"format": format, "bucket": bucket, "key": key, "bytes": size}).
		Info("exportService.Upload: export stored")
	return nil
}
