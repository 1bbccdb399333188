package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/service"
)

// MockExtractionService is a mock implementation of service.ExtractionService.
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) ExtractFile(ctx context.Context, path string) domain.ExtractionResult {
	args := m.Called(ctx, path)
	return args.Get(0).(domain.ExtractionResult)
}

func (m *MockExtractionService) ExtractUpload(ctx context.Context, input service.UploadInput) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}
