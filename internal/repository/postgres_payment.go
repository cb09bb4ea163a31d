package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slimmermetai/checkout-api/internal/domain"
)

type PostgresPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPostgresPaymentRepository(db *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{
		db: db,
	}
}

// Create persists the session and its line items in one transaction, so a
// half-written session is never observable.
func (p *PostgresPaymentRepository) Create(ctx context.Context, session *domain.PaymentSession) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO payments (
			session_id,
			user_id,
			amount_total,
			currency,
			payment_status,
			status,
			metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err = tx.QueryRow(
		ctx,
		query,
		session.SessionID,
		session.UserID,
		session.AmountTotal,
		session.Currency,
		session.PaymentStatus,
		session.Status,
		session.Metadata,
	).Scan(&session.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.ErrSessionExists
		}

		return err
	}

	itemQuery := `
		INSERT INTO payment_items (session_id, product_id, product_type, product_name, unit_amount, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, item := range session.Items {
		_, err = tx.Exec(ctx, itemQuery,
			session.SessionID,
			item.ProductID,
			item.ProductType,
			item.Name,
			item.UnitAmount,
			item.Quantity,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (p *PostgresPaymentRepository) GetBySessionID(ctx context.Context, sessionID string) (*domain.PaymentSession, error) {
	query := `
		SELECT session_id, user_id, amount_total, currency, payment_status, status,
			created_at, updated_at, completed_at, failure_reason, metadata
		FROM payments
		WHERE session_id = $1
	`

	var session domain.PaymentSession

	err := p.db.QueryRow(ctx, query, sessionID).Scan(
		&session.SessionID,
		&session.UserID,
		&session.AmountTotal,
		&session.Currency,
		&session.PaymentStatus,
		&session.Status,
		&session.CreatedAt,
		&session.UpdatedAt,
		&session.CompletedAt,
		&session.FailureReason,
		&session.Metadata,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	itemQuery := `
		SELECT product_id, product_type, product_name, unit_amount, quantity
		FROM payment_items
		WHERE session_id = $1
		ORDER BY id
	`

	rows, err := p.db.Query(ctx, itemQuery, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.LineItem

		err = rows.Scan(&item.ProductID, &item.ProductType, &item.Name, &item.UnitAmount, &item.Quantity)
		if err != nil {
			return nil, err
		}

		session.Items = append(session.Items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return &session, nil
}

func (p *PostgresPaymentRepository) Transition(
	ctx context.Context,
	sessionID string,
	paymentStatus domain.PaymentStatus,
	status *domain.SessionStatus) error {

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = transitionTx(ctx, tx, sessionID, paymentStatus, status)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *PostgresPaymentRepository) MarkCompleted(ctx context.Context, sessionID string, metadata map[string]string) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	completed := domain.SessionStatusCompleted

	err = transitionTx(ctx, tx, sessionID, domain.PaymentStatusPaid, &completed)
	if err != nil {
		return err
	}

	query := `
		UPDATE payments
		SET completed_at = COALESCE(completed_at, now()), metadata = metadata || $2
		WHERE session_id = $1
	`

	_, err = tx.Exec(ctx, query, sessionID, metadata)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (p *PostgresPaymentRepository) MarkFailed(ctx context.Context, sessionID, reason string) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	failed := domain.SessionStatusFailed

	err = transitionTx(ctx, tx, sessionID, domain.PaymentStatusFailed, &failed)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `UPDATE payments SET failure_reason = $2 WHERE session_id = $1`, sessionID, reason)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// transitionTx applies a status change inside the caller's transaction. The
// row lock serializes competing transitions on the same session; legality is
// checked against the domain state machine and an illegal edge leaves the row
// untouched.
func transitionTx(
	ctx context.Context,
	tx pgx.Tx,
	sessionID string,
	paymentStatus domain.PaymentStatus,
	status *domain.SessionStatus) error {

	var (
		currentPayment domain.PaymentStatus
		currentStatus  domain.SessionStatus
	)

	query := `SELECT payment_status, status FROM payments WHERE session_id = $1 FOR UPDATE`

	err := tx.QueryRow(ctx, query, sessionID).Scan(&currentPayment, &currentStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRecordNotFound
		}

		return err
	}

	if !currentPayment.CanTransitionTo(paymentStatus) {
		return fmt.Errorf("%w: payment status %s -> %s for session %s",
			domain.ErrIllegalTransition, currentPayment, paymentStatus, sessionID)
	}

	newStatus := currentStatus
	if status != nil {
		if !currentStatus.CanTransitionTo(*status) {
			return fmt.Errorf("%w: session status %s -> %s for session %s",
				domain.ErrIllegalTransition, currentStatus, *status, sessionID)
		}

		newStatus = *status
	}

	if currentPayment == paymentStatus && currentStatus == newStatus {
		// Same target state, nothing to do. Keeps retries idempotent.
		return nil
	}

	update := `UPDATE payments SET payment_status = $2, status = $3, updated_at = now() WHERE session_id = $1`

	_, err = tx.Exec(ctx, update, sessionID, paymentStatus, newStatus)

	return err
}
