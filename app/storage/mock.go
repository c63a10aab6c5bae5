package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
)

var _ Interface = &MockStorage{}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveExchange(ctx context.Context, exchange Exchange) error {
	return m.Called(ctx, exchange).Error(0)
}

func (m *MockStorage) RecentExchanges(ctx context.Context, client, chatID string, n int) ([]Exchange, error) {
	args := m.Called(ctx, client, chatID, n)
	out, _ := args.Get(0).([]Exchange)
	return out, args.Error(1)
}

func (m *MockStorage) Close() error {
	return m.Called().Error(0)
}
