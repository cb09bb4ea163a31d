package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slimmermetai/checkout-api/internal/domain"
	"github.com/slimmermetai/checkout-api/internal/events"
	"github.com/stripe/stripe-go/v82"
)

const maxWebhookBody = 65536

// StripeWebhookHandler processes provider notifications. Stripe delivers at
// least once and out of order, so every outcome other than a malformed or
// unverifiable payload must be safe to receive again.
func (app *Application) StripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	event, err := app.eventVerifier.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		logger.Warn("webhook signature verification failed", "error", err)
		app.badRequestResponse(w, r, fmt.Errorf("invalid webhook signature"))
		return
	}

	paymentStatus, sessionStatus, handled := mapEventType(string(event.Type))
	if !handled {
		logger.Info("ignoring unhandled webhook event type", "event_type", event.Type)
		app.writeJSON(w, http.StatusOK, map[string]bool{"received": true}, nil)
		return
	}

	var checkoutSession stripe.CheckoutSession
	err = json.Unmarshal(event.Data.Raw, &checkoutSession)
	if err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("malformed event payload"))
		return
	}

	sessionID := checkoutSession.Metadata["session_id"]
	if sessionID == "" {
		app.badRequestResponse(w, r, fmt.Errorf("event carries no session reference"))
		return
	}

	webhookEvent := &domain.WebhookEvent{
		EventID:    event.ID,
		Type:       string(event.Type),
		SessionID:  sessionID,
		ReceivedAt: time.Now(),
		RawPayload: event.Data.Raw,
	}

	applied, err := app.webhookRepo.ApplyEvent(r.Context(), webhookEvent, paymentStatus, sessionStatus)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownSession):
			logger.Warn("webhook references unknown session", "event_id", event.ID, "session_id", sessionID)

			if recordErr := app.webhookRepo.RecordUnknownSession(r.Context(), webhookEvent); recordErr != nil {
				app.serverErrorResponse(w, r, recordErr)
				return
			}

			app.notFoundResponse(w, r)

		case errors.Is(err, domain.ErrIllegalTransition):
			// Out-of-order delivery, e.g. an expiry arriving after completion.
			// The session keeps its state; ack so the provider stops retrying.
			logger.Warn("webhook event conflicts with session state, ignoring",
				"event_id", event.ID,
				"session_id", sessionID,
				"error", err,
			)
			app.writeJSON(w, http.StatusOK, map[string]bool{"received": true}, nil)

		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	if !applied {
		logger.Info("duplicate webhook delivery ignored", "event_id", event.ID, "session_id", sessionID)
		app.writeJSON(w, http.StatusOK, map[string]bool{"received": true, "duplicate": true}, nil)
		return
	}

	if paymentStatus == domain.PaymentStatusPaid {
		app.settleCompletedPayment(r, sessionID, &checkoutSession)
	}

	logger.Info("webhook event applied",
		"event_id", event.ID,
		"session_id", sessionID,
		"payment_status", paymentStatus,
	)

	app.writeJSON(w, http.StatusOK, map[string]bool{"received": true}, nil)
}

// mapEventType translates a provider event type into the session transition
// it implies. Unlisted types are acked without side effects.
func mapEventType(eventType string) (domain.PaymentStatus, *domain.SessionStatus, bool) {
	completed := domain.SessionStatusCompleted
	cancelled := domain.SessionStatusCancelled
	failed := domain.SessionStatusFailed

	switch eventType {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		return domain.PaymentStatusPaid, &completed, true
	case "checkout.session.expired":
		return domain.PaymentStatusFailed, &cancelled, true
	case "checkout.session.async_payment_failed":
		return domain.PaymentStatusFailed, &failed, true
	default:
		return "", nil, false
	}
}

// settleCompletedPayment runs the paid side effects: completion metadata, cart
// cleanup, the Kafka event, and the confirmation mail. None of them may fail
// the webhook response; the transition is already committed.
func (app *Application) settleCompletedPayment(r *http.Request, sessionID string, checkoutSession *stripe.CheckoutSession) {
	logger := app.contextGetLogger(r)

	metadata := map[string]string{}
	if checkoutSession.PaymentIntent != nil {
		metadata["payment_intent"] = checkoutSession.PaymentIntent.ID
	}

	err := app.paymentRepo.MarkCompleted(r.Context(), sessionID, metadata)
	if err != nil {
		logger.Error("failed to record completion metadata", "session_id", sessionID, "error", err)
	}

	session, err := app.paymentRepo.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		logger.Error("failed to load session for settlement", "session_id", sessionID, "error", err)
		return
	}

	recipient := session.Metadata["customer_email"]
	if recipient == "" && checkoutSession.CustomerDetails != nil {
		recipient = checkoutSession.CustomerDetails.Email
	}

	ctx := context.WithoutCancel(r.Context())

	app.background(func() {
		if cartId := session.Metadata["cart_id"]; cartId != "" {
			if err := app.clearCartById(ctx, cartId); err != nil {
				app.logger.Error("failed to clear cart after payment", "cart_id", cartId, "error", err)
			}
		}

		if app.publisher != nil {
			err := app.publisher.Publish(ctx, events.PaymentEvent{
				EventType:   events.EventPaymentCompleted,
				SessionID:   session.SessionID,
				UserID:      session.UserID,
				AmountTotal: session.AmountTotal,
				Currency:    session.Currency,
			})
			if err != nil {
				app.logger.Error("failed to publish payment event", "session_id", session.SessionID, "error", err)
			}
		}

		if recipient != "" {
			data := map[string]any{
				"SessionID":       session.SessionID,
				"AmountFormatted": formatAmount(session.AmountTotal, session.Currency),
			}

			if err := app.mailer.Send(recipient, "payment_confirmation.tmpl", data); err != nil {
				app.logger.Error("failed to send confirmation mail", "session_id", session.SessionID, "error", err)
			}
		}
	})
}

func formatAmount(amount int64, currency string) string {
	value := decimal.NewFromInt(amount).Div(decimal.NewFromInt(100))

	return fmt.Sprintf("%s %s", value.StringFixed(2), strings.ToUpper(currency))
}
