package domain

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// paymentTransitions holds the legal edges of the payment status state machine.
// Re-applying the current status is a no-op, never an error.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusUnpaid:        {PaymentStatusPaid, PaymentStatusFailed},
	PaymentStatusPaid:          {PaymentStatusRefundPending},
	PaymentStatusRefundPending: {PaymentStatusRefunded, PaymentStatusPaid},
	PaymentStatusRefunded:      {},
	PaymentStatusFailed:        {},
}

var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusPending:   {SessionStatusCompleted, SessionStatusFailed, SessionStatusCancelled},
	SessionStatusCompleted: {},
	SessionStatusFailed:    {},
	SessionStatusCancelled: {},
}

func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	if s == target {
		return true
	}

	for _, next := range paymentTransitions[s] {
		if next == target {
			return true
		}
	}

	return false
}

func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	if s == target {
		return true
	}

	for _, next := range sessionTransitions[s] {
		if next == target {
			return true
		}
	}

	return false
}

type ProductType string

const (
	ProductTypeTool   ProductType = "tool"
	ProductTypeCourse ProductType = "course"
)

// LineItem is a single purchasable entry of a payment session. Amounts are in
// the smallest currency unit (cents) to avoid floating point drift. Items are
// immutable once attached to a session.
type LineItem struct {
	ProductID   string
	ProductType ProductType
	Name        string
	UnitAmount  int64
	Quantity    int
}

func (li LineItem) Validate() error {
	if li.Name == "" {
		return fmt.Errorf("%w: missing product name", ErrInvalidLineItem)
	}

	if li.UnitAmount < 0 {
		return fmt.Errorf("%w: negative unit amount for %q", ErrInvalidLineItem, li.Name)
	}

	if li.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1 for %q", ErrInvalidLineItem, li.Name)
	}

	return nil
}

type PaymentSession struct {
	SessionID     string
	UserID        *int
	Items         []LineItem
	AmountTotal   int64
	Currency      string
	PaymentStatus PaymentStatus
	Status        SessionStatus
	CreatedAt     time.Time
	UpdatedAt     *time.Time
	CompletedAt   *time.Time
	FailureReason *string
	Metadata      map[string]string
}

// NewPaymentSession builds a pending, unpaid session from validated line items.
// The session ID doubles as the idempotency key for every later operation, so
// it has to be unguessable.
func NewPaymentSession(userID *int, items []LineItem, currency string) (*PaymentSession, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	var total int64
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}

		total += item.UnitAmount * int64(item.Quantity)
	}

	return &PaymentSession{
		SessionID:     newSessionID(),
		UserID:        userID,
		Items:         items,
		AmountTotal:   total,
		Currency:      currency,
		PaymentStatus: PaymentStatusUnpaid,
		Status:        SessionStatusPending,
		Metadata:      map[string]string{},
	}, nil
}

func newSessionID() string {
	buf := make([]byte, 32)
	rand.Read(buf)

	return "cs_" + hex.EncodeToString(buf)
}

type PaymentSessionRepository interface {
	Create(ctx context.Context, session *PaymentSession) error
	GetBySessionID(ctx context.Context, sessionID string) (*PaymentSession, error)
	Transition(ctx context.Context, sessionID string, paymentStatus PaymentStatus, status *SessionStatus) error
	MarkCompleted(ctx context.Context, sessionID string, metadata map[string]string) error
	MarkFailed(ctx context.Context, sessionID, reason string) error
}
