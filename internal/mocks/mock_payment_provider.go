package mocks

import (
	"context"

	"github.com/slimmermetai/checkout-api/internal/domain"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v82"
)

type MockPaymentProvider struct {
	mock.Mock
	domain.PaymentProvider
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	session *domain.PaymentSession,
	opts domain.CheckoutOptions) (*stripe.CheckoutSession, error) {

	args := m.Called(ctx, session, opts)

	checkoutSession, _ := args.Get(0).(*stripe.CheckoutSession)
	return checkoutSession, args.Error(1)
}

type MockEventVerifier struct {
	mock.Mock
}

func (m *MockEventVerifier) VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	args := m.Called(payload, signatureHeader)

	event, _ := args.Get(0).(stripe.Event)
	return event, args.Error(1)
}
