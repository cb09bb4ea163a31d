package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// DirectProviderBackend creates the session against the payment provider
// itself, bypassing our APIs entirely. No payment row is written and no
// webhook will find a session to settle, so completions via this path show up
// only in the provider dashboard. It stays out of the default chain unless
// explicitly enabled.
type DirectProviderBackend struct {
	name string
	api  *client.API
}

func NewDirectProviderBackend(secretKey string) *DirectProviderBackend {
	api := &client.API{}
	api.Init(secretKey, nil)

	return &DirectProviderBackend{name: "direct-provider", api: api}
}

func (b *DirectProviderBackend) Name() string {
	return b.name
}

func (b *DirectProviderBackend) Attempt(ctx context.Context, payload *CheckoutPayload) (*RedirectTarget, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(payload.Items))

	for _, item := range payload.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(payload.Currency)),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(payload.SuccessURL),
		CancelURL:  stripe.String(payload.CancelURL),
		Metadata:   payload.Metadata,
	}
	params.Context = ctx

	if payload.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(payload.CustomerEmail)
	}

	sess, err := b.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, classifyProviderError(b.name, err)
	}

	if sess.ID == "" {
		return nil, retryableError(b.name, KindMissingSessionID,
			errors.New("provider returned session without identifier"))
	}

	return &RedirectTarget{
		SessionID: sess.ID,
		URL:       sess.URL,
		Backend:   b.name,
		Direct:    true,
	}, nil
}

func classifyProviderError(backend string, err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= 400 && stripeErr.HTTPStatusCode < 500 {
			return terminalError(backend, KindRejected, err)
		}

		return retryableError(backend, KindUpstreamUnavailable, err)
	}

	return retryableError(backend, KindNetwork, err)
}
