package mocks

import (
	"context"

	"github.com/slimmermetai/checkout-api/internal/events"
	"github.com/stretchr/testify/mock"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
