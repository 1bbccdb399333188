package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"invoicegrid/internal/domain"
)

// MockExportService is a mock implementation of service.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Write(ctx context.Context, format string, results []domain.ExtractionResult, w io.Writer) error {
	args := m.Called(ctx, format, results, w)
	return args.Error(0)
}

func (m *MockExportService) Save(ctx context.Context, format string, results []domain.ExtractionResult, dest string) error {
	args := m.Called(ctx, format, results, dest)
	return args.Error(0)
}

func (m *MockExportService) Upload(ctx context.Context, format string, results []domain.ExtractionResult, bucket, key string) error {
	args := m.Called(ctx, format, results, bucket, key)
	return args.Error(0)
}
