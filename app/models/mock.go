package models

import (
	"context"

	"github.com/stretchr/testify/mock"
)

var _ Backend = &MockBackend{}

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Configure(ctx context.Context, opts Options) error {
	args := m.Called(ctx, opts)
	return args.Error(0)
}

func (m *MockBackend) GenerateContent(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
