package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicegrid/internal/domain"
)

// MockDocumentSource is a mock implementation of port.DocumentSource.
type MockDocumentSource struct {
	mock.Mock
}

func (m *MockDocumentSource) Open(ctx context.Context, path string) (*domain.Document, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}
