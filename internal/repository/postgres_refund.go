package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slimmermetai/checkout-api/internal/domain"
)

type PostgresRefundRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRefundRepository(db *pgxpool.Pool) *PostgresRefundRepository {
	return &PostgresRefundRepository{
		db: db,
	}
}

// CreateRefund records a pending refund against a paid session. Pending
// refunds count toward the over-refund bound so concurrent requests cannot
// jointly exceed the session total; the payment row lock serializes them.
func (p *PostgresRefundRepository) CreateRefund(
	ctx context.Context,
	sessionID string,
	amount int64,
	reason string) (string, error) {

	if amount <= 0 {
		return "", fmt.Errorf("%w: refund amount must be positive", domain.ErrOverRefund)
	}

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback(ctx)

	var (
		paymentStatus domain.PaymentStatus
		amountTotal   int64
	)

	query := `SELECT payment_status, amount_total FROM payments WHERE session_id = $1 FOR UPDATE`

	err = tx.QueryRow(ctx, query, sessionID).Scan(&paymentStatus, &amountTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrRecordNotFound
		}

		return "", err
	}

	if paymentStatus != domain.PaymentStatusPaid && paymentStatus != domain.PaymentStatusRefundPending {
		return "", fmt.Errorf("%w: payment status is %s", domain.ErrInvalidSessionState, paymentStatus)
	}

	var reserved int64

	sumQuery := `
		SELECT COALESCE(SUM(amount), 0)
		FROM refunds
		WHERE session_id = $1 AND status IN ('pending', 'completed')
	`

	err = tx.QueryRow(ctx, sumQuery, sessionID).Scan(&reserved)
	if err != nil {
		return "", err
	}

	if reserved+amount > amountTotal {
		return "", fmt.Errorf("%w: %d + %d exceeds session total %d",
			domain.ErrOverRefund, reserved, amount, amountTotal)
	}

	refundID := uuid.New().String()

	insert := `
		INSERT INTO refunds (refund_id, session_id, amount, reason, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = tx.Exec(ctx, insert, refundID, sessionID, amount, reason, domain.RefundStatusPending)
	if err != nil {
		return "", err
	}

	err = transitionTx(ctx, tx, sessionID, domain.PaymentStatusRefundPending, nil)
	if err != nil {
		return "", err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return "", err
	}

	return refundID, nil
}

// ApplyRefundResult settles a pending refund and moves the payment status
// along: refunded when the completed amounts cover the session total, back to
// paid when the ledger has no pending entries left, refund_pending otherwise.
func (p *PostgresRefundRepository) ApplyRefundResult(ctx context.Context, refundID string, success bool) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var (
		sessionID string
		status    domain.RefundStatus
	)

	query := `SELECT session_id, status FROM refunds WHERE refund_id = $1 FOR UPDATE`

	err = tx.QueryRow(ctx, query, refundID).Scan(&sessionID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRecordNotFound
		}

		return err
	}

	target := domain.RefundStatusFailed
	if success {
		target = domain.RefundStatusCompleted
	}

	if status != domain.RefundStatusPending {
		if status == target {
			// Result already applied, idempotent retry.
			return nil
		}

		return fmt.Errorf("%w: refund %s is already %s", domain.ErrIllegalTransition, refundID, status)
	}

	_, err = tx.Exec(ctx, `UPDATE refunds SET status = $2 WHERE refund_id = $1`, refundID, target)
	if err != nil {
		return err
	}

	var (
		amountTotal  int64
		completedSum int64
		pendingCount int
	)

	err = tx.QueryRow(ctx, `SELECT amount_total FROM payments WHERE session_id = $1 FOR UPDATE`, sessionID).
		Scan(&amountTotal)
	if err != nil {
		return err
	}

	ledgerQuery := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM refunds
		WHERE session_id = $1
	`

	err = tx.QueryRow(ctx, ledgerQuery, sessionID).Scan(&completedSum, &pendingCount)
	if err != nil {
		return err
	}

	var paymentStatus domain.PaymentStatus

	switch {
	case completedSum >= amountTotal:
		paymentStatus = domain.PaymentStatusRefunded
	case pendingCount > 0:
		paymentStatus = domain.PaymentStatusRefundPending
	default:
		// Partial refunds settle back to paid; only the ledger remembers them.
		paymentStatus = domain.PaymentStatusPaid
	}

	err = transitionTx(ctx, tx, sessionID, paymentStatus, nil)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *PostgresRefundRepository) GetBySessionID(ctx context.Context, sessionID string) ([]domain.RefundRecord, error) {
	query := `
		SELECT refund_id, session_id, amount, reason, status, created_at
		FROM refunds
		WHERE session_id = $1
		ORDER BY created_at
	`

	rows, err := p.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []domain.RefundRecord

	for rows.Next() {
		var refund domain.RefundRecord

		err = rows.Scan(
			&refund.RefundID,
			&refund.SessionID,
			&refund.Amount,
			&refund.Reason,
			&refund.Status,
			&refund.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		refunds = append(refunds, refund)
	}

	return refunds, rows.Err()
}
