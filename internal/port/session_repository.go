package port

import (
	"context"

	"github.com/google/uuid"

	"invoicegrid/internal/domain"
)

// SessionRepository persists upload sessions, their files, and extracted results.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *domain.Session) error
	UpdateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	ListSessions(ctx context.Context, offset, limit int) ([]domain.Session, int, error)

	CreateFile(ctx context.Context, file *domain.ProcessedFile) error
	UpdateFile(ctx context.Context, file *domain.ProcessedFile) error
	GetFile(ctx context.Context, sessionID, fileID uuid.UUID) (*domain.ProcessedFile, error)
	ListFiles(ctx context.Context, sessionID uuid.UUID) ([]domain.ProcessedFile, error)

	// SaveResult stores the line items and invoice metadata of one processed file,
	// replacing anything stored for it before.
	SaveResult(ctx context.Context, fileID uuid.UUID, result *domain.ExtractionResult) error
	ListLineItems(ctx context.Context, fileID uuid.UUID) ([]domain.StoredLineItem, error)
	GetInvoice(ctx context.Context, fileID uuid.UUID) (*domain.StoredInvoice, error)

	Ping(ctx context.Context) error
}
