package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/service"
)

// MockSessionService is a mock implementation of service.SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) Process(ctx context.Context, uploads []service.UploadInput) (*domain.SessionDetail, error) {
	args := m.Called(ctx, uploads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionDetail), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, id uuid.UUID) (*domain.SessionDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionDetail), args.Error(1)
}

func (m *MockSessionService) List(ctx context.Context, offset, limit int) ([]domain.Session, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Session), args.Int(1), args.Error(2)
}

func (m *MockSessionService) ListLineItems(ctx context.Context, sessionID, fileID uuid.UUID) ([]domain.StoredLineItem, error) {
	args := m.Called(ctx, sessionID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StoredLineItem), args.Error(1)
}

func (m *MockSessionService) GetInvoice(ctx context.Context, sessionID, fileID uuid.UUID) (*domain.StoredInvoice, error) {
	args := m.Called(ctx, sessionID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredInvoice), args.Error(1)
}

func (m *MockSessionService) GetDownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}
