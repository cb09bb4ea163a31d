package domain

import (
	"context"
	"time"
)

// WebhookEvent is a provider notification. The provider delivers at least
// once; EventID is globally unique and backs the idempotency barrier.
type WebhookEvent struct {
	EventID    string
	Type       string
	SessionID  string
	ReceivedAt time.Time
	AppliedAt  *time.Time
	RawPayload []byte
}

type WebhookRepository interface {
	// ApplyEvent records the event and applies the session transition in a
	// single transaction. It returns false when the event was already applied
	// (duplicate delivery) and made no state change.
	ApplyEvent(ctx context.Context, event *WebhookEvent, paymentStatus PaymentStatus, status *SessionStatus) (bool, error)

	// RecordUnknownSession stores the event for audit without touching any
	// session. AppliedAt stays NULL.
	RecordUnknownSession(ctx context.Context, event *WebhookEvent) error
}
