package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockFieldCipher is a mock implementation of port.FieldCipher.
type MockFieldCipher struct {
	mock.Mock
}

func (m *MockFieldCipher) Encrypt(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockFieldCipher) Decrypt(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}
