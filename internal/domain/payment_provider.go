package domain

import (
	"context"

	"github.com/stripe/stripe-go/v82"
)

// CheckoutOptions are per-request knobs for the provider session. Empty URLs
// fall back to the configured defaults.
type CheckoutOptions struct {
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, session *PaymentSession, opts CheckoutOptions) (*stripe.CheckoutSession, error)
}
