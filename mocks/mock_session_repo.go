package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"invoicegrid/internal/domain"
)

// MockSessionRepo is a mock implementation of port.SessionRepository.
type MockSessionRepo struct {
	mock.Mock
}

func (m *MockSessionRepo) CreateSession(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepo) UpdateSession(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepo) GetSession(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepo) ListSessions(ctx context.Context, offset, limit int) ([]domain.Session, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Session), args.Int(1), args.Error(2)
}

func (m *MockSessionRepo) CreateFile(ctx context.Context, file *domain.ProcessedFile) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockSessionRepo) UpdateFile(ctx context.Context, file *domain.ProcessedFile) error {
	args := m.Called(ctx, file)
	return args.Error(0)
}

func (m *MockSessionRepo) GetFile(ctx context.Context, sessionID, fileID uuid.UUID) (*domain.ProcessedFile, error) {
	args := m.Called(ctx, sessionID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessedFile), args.Error(1)
}

func (m *MockSessionRepo) ListFiles(ctx context.Context, sessionID uuid.UUID) ([]domain.ProcessedFile, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ProcessedFile), args.Error(1)
}

func (m *MockSessionRepo) SaveResult(ctx context.Context, fileID uuid.UUID, result *domain.ExtractionResult) error {
	args := m.Called(ctx, fileID, result)
	return args.Error(0)
}

func (m *MockSessionRepo) ListLineItems(ctx context.Context, fileID uuid.UUID) ([]domain.StoredLineItem, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredLineItem), args.Error(1)
}

func (m *MockSessionRepo) GetInvoice(ctx context.Context, fileID uuid.UUID) (*domain.StoredInvoice, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredInvoice), args.Error(1)
}

func (m *MockSessionRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
