package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicegrid/internal/domain"
	"invoicegrid/internal/service"
)

// MockBatchService is a mock implementation of service.BatchService.
// Run reports progress for the returned results before returning them.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) Discover(dir string) ([]string, error) {
	args := m.Called(dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBatchService) Run(ctx context.Context, paths []string, progress service.ProgressFunc) ([]domain.ExtractionResult, error) {
	args := m.Called(ctx, paths)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	results := args.Get(0).([]domain.ExtractionResult)
	if progress != nil {
		for i := range results {
			progress(i+1, len(results), &results[i])
		}
	}
	return results, args.Error(1)
}
