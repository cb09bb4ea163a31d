package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slimmermetai/checkout-api/internal/domain"
)

type PostgresWebhookRepository struct {
	db *pgxpool.Pool
}

func NewPostgresWebhookRepository(db *pgxpool.Pool) *PostgresWebhookRepository {
	return &PostgresWebhookRepository{
		db: db,
	}
}

// ApplyEvent records the event and applies the session transition atomically.
// The unique index on webhook_events.event_id is the idempotency barrier: the
// provider delivers at least once, and two concurrent deliveries of the same
// event race on that index rather than on an application-level existence
// check. Returns false when the event had already been applied.
func (p *PostgresWebhookRepository) ApplyEvent(
	ctx context.Context,
	event *domain.WebhookEvent,
	paymentStatus domain.PaymentStatus,
	status *domain.SessionStatus) (bool, error) {

	tx, err := p.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO webhook_events (event_id, event_type, session_id, raw_payload, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
	`

	tag, err := tx.Exec(ctx, insert,
		event.EventID,
		event.Type,
		event.SessionID,
		event.RawPayload,
		event.ReceivedAt,
	)
	if err != nil {
		return false, err
	}

	if tag.RowsAffected() == 0 {
		// The event exists. Lock its row: a concurrent delivery that won the
		// insert holds the lock until it commits, so once we read applied_at
		// the answer is final.
		var appliedAt *time.Time

		err = tx.QueryRow(ctx,
			`SELECT applied_at FROM webhook_events WHERE event_id = $1 FOR UPDATE`,
			event.EventID,
		).Scan(&appliedAt)
		if err != nil {
			return false, err
		}

		if appliedAt != nil {
			return false, nil
		}

		// Recorded earlier (audit of an unknown session) but never applied,
		// fall through and apply it now.
	}

	err = transitionTx(ctx, tx, event.SessionID, paymentStatus, status)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return false, domain.ErrUnknownSession
		}

		return false, err
	}

	_, err = tx.Exec(ctx, `UPDATE webhook_events SET applied_at = now() WHERE event_id = $1`, event.EventID)
	if err != nil {
		return false, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return false, err
	}

	return true, nil
}

// RecordUnknownSession keeps an audit trail of events that reference sessions
// we have no record of. applied_at stays NULL so a later redelivery can still
// be applied if the session shows up.
func (p *PostgresWebhookRepository) RecordUnknownSession(ctx context.Context, event *domain.WebhookEvent) error {
	insert := `
		INSERT INTO webhook_events (event_id, event_type, session_id, raw_payload, received_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id) DO NOTHING
	`

	_, err := p.db.Exec(ctx, insert,
		event.EventID,
		event.Type,
		event.SessionID,
		event.RawPayload,
		event.ReceivedAt,
	)

	return err
}

// GetByEventID is used by the integration suite and operational tooling.
func (p *PostgresWebhookRepository) GetByEventID(ctx context.Context, eventID string) (*domain.WebhookEvent, error) {
	query := `
		SELECT event_id, event_type, session_id, raw_payload, received_at, applied_at
		FROM webhook_events
		WHERE event_id = $1
	`

	var event domain.WebhookEvent

	err := p.db.QueryRow(ctx, query, eventID).Scan(
		&event.EventID,
		&event.Type,
		&event.SessionID,
		&event.RawPayload,
		&event.ReceivedAt,
		&event.AppliedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, err
	}

	return &event, nil
}
