package domain

import (
	"context"
	"time"
)

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
	RefundStatusFailed    RefundStatus = "failed"
)

// RefundRecord is a ledger entry against a paid session. The sum of completed
// refund amounts for a session never exceeds the session total.
type RefundRecord struct {
	RefundID  string
	SessionID string
	Amount    int64
	Reason    string
	Status    RefundStatus
	CreatedAt time.Time
}

type RefundRepository interface {
	CreateRefund(ctx context.Context, sessionID string, amount int64, reason string) (string, error)
	ApplyRefundResult(ctx context.Context, refundID string, success bool) error
	GetBySessionID(ctx context.Context, sessionID string) ([]RefundRecord, error)
}
