package mocks

import (
	"context"

	"github.com/slimmermetai/checkout-api/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockWebhookRepo struct {
	mock.Mock
	domain.WebhookRepository
}

func (m *MockWebhookRepo) ApplyEvent(
	ctx context.Context,
	event *domain.WebhookEvent,
	paymentStatus domain.PaymentStatus,
	status *domain.SessionStatus) (bool, error) {

	args := m.Called(ctx, event, paymentStatus, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookRepo) RecordUnknownSession(ctx context.Context, event *domain.WebhookEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
