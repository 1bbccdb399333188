package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"invoicegrid/internal/config"
	"invoicegrid/internal/domain"
	"invoicegrid/internal/metrics"
	"invoicegrid/internal/port"
)

// SessionService processes a set of uploaded PDFs as one tracked session.
type SessionService interface {
	Process(ctx context.Context, uploads []UploadInput) (*domain.SessionDetail, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.SessionDetail, error)
	List(ctx context.Context, offset, limit int) ([]domain.Session, int, error)
	ListLineItems(ctx context.Context, sessionID, fileID uuid.UUID) ([]domain.StoredLineItem, error)
	GetInvoice(ctx context.Context, sessionID, fileID uuid.UUID) (*domain.StoredInvoice, error)
	GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error)
}

type sessionService struct {
	repo     port.SessionRepository
	storage  port.ObjectStorage
	batch    BatchService
	exporter ExportService
	s3Cfg    *config.S3Config
	export   *config.ExportConfig
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

// NewSessionService creates a new SessionService implementation.
func NewSessionService(
	repo port.SessionRepository,
	storage port.ObjectStorage,
	batch BatchService,
	exporter ExportService,
	s3Cfg *config.S3Config,
	exportCfg *config.ExportConfig,
	m *metrics.Metrics,
	logger logrus.FieldLogger,
) SessionService {
	return &sessionService{
		repo:     repo,
		storage:  storage,
		batch:    batch,
		exporter: exporter,
		s3Cfg:    s3Cfg,
		export:   exportCfg,
		metrics:  m,
		log:      logger,
	}
}

func (s *sessionService) Process(ctx context.Context, uploads []UploadInput) (*domain.SessionDetail, error) {
	if len(uploads) == 0 {
		return nil, domain.ErrNoFiles
	}
	maxBytes := s.s3Cfg.MaxFileSizeMB * 1024 * 1024
	for _, u := range uploads {
		if err := validateUpload(u, maxBytes); err != nil {
			return nil, fmt.Errorf("%s: %w", u.Filename, err)
		}
	}

	dir, err := os.MkdirTemp("", "invoicegrid-session-*")
	if err != nil {
		return nil, fmt.Errorf("sessionService.Process: %w", err)
	}
	defer os.RemoveAll(dir)

	spooled := make([]*spooledFile, len(uploads))
	for i, u := range uploads {
		if spooled[i], err = spoolPDF(dir, i, u, maxBytes); err != nil {
			return nil, fmt.Errorf("%s: %w", u.Filename, err)
		}
	}

	session := &domain.Session{
		ID:         uuid.New(),
		Status:     domain.SessionStatusProcessing,
		TotalFiles: len(spooled),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("sessionService.Process: %w", err)
	}
	logger := s.log.WithField("session_id", session.ID)

	files := make([]*domain.ProcessedFile, len(spooled))
	paths := make([]string, len(spooled))
	for i, sf := range spooled {
		file := &domain.ProcessedFile{
			ID:            uuid.New(),
			SessionID:     session.ID,
			Filename:      sf.Filename,
			StorageBucket: s.s3Cfg.Bucket,
			FileSize:      sf.Size,
			Status:        domain.FileStatusPending,
		}
		file.StorageKey = s.objectKey(session.ID, "uploads", file.ID.String()+".pdf")

		if _, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      file.StorageBucket,
			Key:         file.StorageKey,
			Body:        bytes.NewReader(sf.Data),
			ContentType: domain.ContentTypePDF,
			Size:        sf.Size,
		}); err != nil {
			logger.WithError(err).WithField("file", sf.Filename).Error("sessionService.Process: upload failed")
			return nil, s.fail(ctx, session, fmt.Errorf("%w: %s: %w", domain.ErrUploadFailed, sf.Filename, err))
		}
		if err := s.repo.CreateFile(ctx, file); err != nil {
			if delErr := s.storage.Delete(ctx, file.StorageBucket, file.StorageKey); delErr != nil {
				logger.WithError(delErr).WithField("key", file.StorageKey).Warn("sessionService.Process: removing orphaned upload")
			}
			return nil, s.fail(ctx, session, fmt.Errorf("sessionService.Process: %w", err))
		}
		files[i] = file
		paths[i] = sf.Path
	}

	// Progress runs on the calling goroutine, in file order.
	var persistErr error
	results, runErr := s.batch.Run(ctx, paths, func(index, _ int, result *domain.ExtractionResult) {
		if persistErr != nil {
			return
		}
		persistErr = s.recordFile(ctx, files[index-1], result)
		if persistErr == nil {
			session.ProcessedFiles++
		}
	})
	if runErr != nil {
		return nil, s.fail(ctx, session, runErr)
	}
	if persistErr != nil {
		return nil, s.fail(ctx, session, persistErr)
	}

	key := s.objectKey(session.ID, "extracted_data.xlsx")
	if err := s.exporter.Upload(ctx, FormatXLSX, results, s.s3Cfg.Bucket, key); err != nil {
		return nil, s.fail(ctx, session, err)
	}

	now := time.Now().UTC()
	session.Status = domain.SessionStatusCompleted
	session.OutputBucket = s.s3Cfg.Bucket
	session.OutputKey = key
	session.CompletedAt = &now
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("sessionService.Process: %w", err)
	}
	s.metrics.ObserveSession(string(session.Status))

	summary := Summarize(results)
	logger.WithFields(logrus.Fields{
		"files":      summary.Total,
		"failed":     summary.Failed,
		"line_items": summary.LineItems,
	}).Info("sessionService.Process: session completed")

	detail := &domain.SessionDetail{Session: *session, Files: make([]domain.ProcessedFile, len(files))}
	for i, f := range files {
		detail.Files[i] = *f
	}
	return detail, nil
}

func (s *sessionService) recordFile(ctx context.Context, file *domain.ProcessedFile, result *domain.ExtractionResult) error {
	now := time.Now().UTC()
	file.ProcessedAt = &now
	file.NumPages = result.Metadata.Pages
	file.NumTables = len(result.Tables)
	file.NumLineItems = len(result.LineItems)
	if result.Failed() {
		file.Status = domain.FileStatusFailed
		file.ErrorMessage = result.Error
	} else {
		file.Status = domain.FileStatusCompleted
		if err := s.repo.SaveResult(ctx, file.ID, result); err != nil {
			return fmt.Errorf("sessionService.recordFile: %w", err)
		}
	}
	if err := s.repo.UpdateFile(ctx, file); err != nil {
		return fmt.Errorf("sessionService.recordFile: %w", err)
	}
	return nil
}

// fail marks the session failed and returns cause.
func (s *sessionService) fail(ctx context.Context, session *domain.Session, cause error) error {
	session.Status = domain.SessionStatusFailed
	session.ErrorMessage = cause.Error()
	// The request context may already be done; the status update must still land.
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.repo.UpdateSession(updateCtx, session); err != nil {
		s.log.WithError(err).WithField("session_id", session.ID).Error("sessionService: marking session failed")
	}
	s.metrics.ObserveSession(string(session.Status))
	return cause
}

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*domain.SessionDetail, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := s.repo.ListFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []domain.ProcessedFile{}
	}
	return &domain.SessionDetail{Session: *session, Files: files}, nil
}

func (s *sessionService) List(ctx context.Context, offset, limit int) ([]domain.Session, int, error) {
	return s.repo.ListSessions(ctx, offset, limit)
}

func (s *sessionService) ListLineItems(ctx context.Context, sessionID, fileID uuid.UUID) ([]domain.StoredLineItem, error) {
	if _, err := s.repo.GetFile(ctx, sessionID, fileID); err != nil {
		return nil, err
	}
	return s.repo.ListLineItems(ctx, fileID)
}

func (s *sessionService) GetInvoice(ctx context.Context, sessionID, fileID uuid.UUID) (*domain.StoredInvoice, error) {
	if _, err := s.repo.GetFile(ctx, sessionID, fileID); err != nil {
		return nil, err
	}
	return s.repo.GetInvoice(ctx, fileID)
}

func (s *sessionService) GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return "", err
	}
	if session.Status != domain.SessionStatusCompleted || session.OutputKey == "" {
		return "", domain.ErrOutputNotReady
	}
	url, err := s.storage.GetPresignedURL(ctx, session.OutputBucket, session.OutputKey, s.export.PresignExpiry)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", domain.ErrOutputNotReady
		}
		return "", fmt.Errorf("sessionService.GetDownloadURL: %w", err)
	}
	return url, nil
}

func (s *sessionService) objectKey(sessionID uuid.UUID, parts ...string) string {
	return path.Join(append([]string{s.export.KeyPrefix, sessionID.String()}, parts...)...)
}
