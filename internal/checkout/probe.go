package checkout

import (
	"context"
	"net/http"

	"github.com/slimmermetai/checkout-api/internal/domain"
)

// fallbackAmount is charged when the emergency probe cannot derive a total
// from the payload.
const fallbackAmount = 2999

// EmergencyProbeBackend walks a list of endpoints with a single generic line
// item standing in for the whole order. It exists for the case where every
// regular deployment is down but an older or regional endpoint still answers;
// order details are reconciled manually afterwards.
type EmergencyProbeBackend struct {
	name     string
	backends []*APIBackend
}

func NewEmergencyProbeBackend(urls []string, client *http.Client) *EmergencyProbeBackend {
	backends := make([]*APIBackend, 0, len(urls))
	for _, url := range urls {
		backends = append(backends, NewAPIBackend("emergency-probe", url, client))
	}

	return &EmergencyProbeBackend{name: "emergency-probe", backends: backends}
}

func (b *EmergencyProbeBackend) Name() string {
	return b.name
}

func (b *EmergencyProbeBackend) Attempt(ctx context.Context, payload *CheckoutPayload) (*RedirectTarget, error) {
	probe := &CheckoutPayload{
		Items:         []domain.LineItem{genericDescriptor(payload)},
		Currency:      payload.Currency,
		SuccessURL:    payload.SuccessURL,
		CancelURL:     payload.CancelURL,
		CustomerEmail: payload.CustomerEmail,
		Metadata:      payload.Metadata,
	}

	var lastErr error

	for _, backend := range b.backends {
		if ctx.Err() != nil {
			return nil, retryableError(b.name, KindNetwork, ctx.Err())
		}

		target, err := backend.Attempt(ctx, probe)
		if err == nil {
			return target, nil
		}

		lastErr = err

		// Terminal rejections stop the probe too: every endpoint gets the
		// same payload, so a structured rejection will repeat.
		if !Retryable(err) {
			return nil, err
		}
	}

	if lastErr == nil {
		lastErr = retryableError(b.name, KindUpstreamUnavailable, ErrAllBackendsFailed)
	}

	return nil, lastErr
}

func genericDescriptor(payload *CheckoutPayload) domain.LineItem {
	amount := payload.totalAmount()
	if amount <= 0 {
		amount = fallbackAmount
	}

	return domain.LineItem{
		ProductID:   "fallback-order",
		ProductType: domain.ProductTypeTool,
		Name:        "Slimmer met AI bestelling",
		UnitAmount:  amount,
		Quantity:    1,
	}
}
