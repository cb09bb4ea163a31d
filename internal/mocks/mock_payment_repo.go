package mocks

import (
	"context"

	"github.com/slimmermetai/checkout-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepo struct {
	mock.Mock
	domain.PaymentSessionRepository
}

func (m *MockPaymentRepo) Create(ctx context.Context, session *domain.PaymentSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockPaymentRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.PaymentSession, error) {
	args := m.Called(ctx, sessionID)

	session, _ := args.Get(0).(*domain.PaymentSession)
	return session, args.Error(1)
}

func (m *MockPaymentRepo) Transition(
	ctx context.Context,
	sessionID string,
	paymentStatus domain.PaymentStatus,
	status *domain.SessionStatus) error {

	args := m.Called(ctx, sessionID, paymentStatus, status)
	return args.Error(0)
}

func (m *MockPaymentRepo) MarkCompleted(ctx context.Context, sessionID string, metadata map[string]string) error {
	args := m.Called(ctx, sessionID, metadata)
	return args.Error(0)
}

func (m *MockPaymentRepo) MarkFailed(ctx context.Context, sessionID, reason string) error {
	args := m.Called(ctx, sessionID, reason)
	return args.Error(0)
}
