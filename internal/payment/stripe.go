package payment

import (
	"context"

	"github.com/slimmermetai/checkout-api/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

type StripePaymentProvider struct {
	successUrl string
	cancelUrl  string
}

func NewStripePaymentProvider(successUrl, cancelUrl string) *StripePaymentProvider {
	return &StripePaymentProvider{
		successUrl: successUrl,
		cancelUrl:  cancelUrl,
	}
}

func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	paymentSession *domain.PaymentSession,
	opts domain.CheckoutOptions) (*stripe.CheckoutSession, error) {

	successUrl := opts.SuccessURL
	if successUrl == "" {
		successUrl = s.successUrl
	}

	cancelUrl := opts.CancelURL
	if cancelUrl == "" {
		cancelUrl = s.cancelUrl
	}

	var lineItems []*stripe.CheckoutSessionLineItemParams

	for _, item := range paymentSession.Items {
		lineItem := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(paymentSession.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Name),
					Description: stripe.String(string(item.ProductType)),
				},
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		}

		lineItems = append(lineItems, lineItem)
	}

	metadata := map[string]string{
		"session_id": paymentSession.SessionID,
	}
	for k, v := range paymentSession.Metadata {
		metadata[k] = v
	}

	params := &stripe.CheckoutSessionParams{
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successUrl),
		CancelURL:  stripe.String(cancelUrl),
		Metadata:   metadata,
	}
	params.Context = ctx

	if opts.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(opts.CustomerEmail)
	}

	return session.New(params)
}

// EventVerifier checks the authenticity of incoming webhook payloads.
type EventVerifier interface {
	VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error)
}

type StripeEventVerifier struct {
	webhookSecret string
}

func NewStripeEventVerifier(webhookSecret string) *StripeEventVerifier {
	return &StripeEventVerifier{webhookSecret: webhookSecret}
}

func (v *StripeEventVerifier) VerifyEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(
		payload,
		signatureHeader,
		v.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
}
