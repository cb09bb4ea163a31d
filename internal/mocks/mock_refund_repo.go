package mocks

import (
	"context"

	"github.com/slimmermetai/checkout-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockRefundRepo struct {
	mock.Mock
	domain.RefundRepository
}

func (m *MockRefundRepo) CreateRefund(ctx context.Context, sessionID string, amount int64, reason string) (string, error) {
	args := m.Called(ctx, sessionID, amount, reason)
	return args.String(0), args.Error(1)
}

func (m *MockRefundRepo) ApplyRefundResult(ctx context.Context, refundID string, success bool) error {
	args := m.Called(ctx, refundID, success)
	return args.Error(0)
}

func (m *MockRefundRepo) GetBySessionID(ctx context.Context, sessionID string) ([]domain.RefundRecord, error) {
	args := m.Called(ctx, sessionID)

	records, _ := args.Get(0).([]domain.RefundRecord)
	return records, args.Error(1)
}
