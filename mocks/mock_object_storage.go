package mocks

import (
	"context"
	"io"
	"sync"

	"github.com/stretchr/testify/mock"

	"invoicegrid/internal/port"
)

// MockObjectStorage is a mock implementation of port.ObjectStorage.
// Upload drains the body so tests can inspect what was stored.
type MockObjectStorage struct {
	mock.Mock

	mu      sync.Mutex
	objects map[string][]byte
}

func (m *MockObjectStorage) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	var body []byte
	if input.Body != nil {
		body, _ = io.ReadAll(input.Body)
	}
	m.mu.Lock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[input.Bucket+"/"+input.Key] = body
	m.mu.Unlock()

	args := m.Called(ctx, input.Bucket, input.Key, input.ContentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.UploadOutput), args.Error(1)
}

// Object returns the bytes last uploaded to bucket/key.
func (m *MockObjectStorage) Object(bucket, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[bucket+"/"+key]
	return b, ok
}

func (m *MockObjectStorage) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockObjectStorage) Delete(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockObjectStorage) GetPresignedURL(ctx context.Context, bucket, key string, expirySeconds int64) (string, error) {
	args := m.Called(ctx, bucket, key, expirySeconds)
	return args.String(0), args.Error(1)
}
