package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/slimmermetai/checkout-api/api"
	"github.com/slimmermetai/checkout-api/internal/domain"
	"github.com/slimmermetai/checkout-api/internal/events"
)

func (app *Application) CreateRefundHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.RefundRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	refundID, err := app.refundRepo.CreateRefund(r.Context(), input.SessionId, input.Amount, input.Reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrInvalidSessionState):
			app.editConflictResponseWithErr(w, r, err)
		case errors.Is(err, domain.ErrOverRefund):
			app.badRequestResponse(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	logger.Info("refund requested",
		"refund_id", refundID,
		"session_id", input.SessionId,
		"amount", input.Amount,
	)

	if app.publisher != nil {
		ctx := context.WithoutCancel(r.Context())
		sessionID := input.SessionId
		amount := input.Amount

		app.background(func() {
			err := app.publisher.Publish(ctx, events.PaymentEvent{
				EventType:   events.EventRefundRequested,
				SessionID:   sessionID,
				RefundID:    refundID,
				AmountTotal: amount,
			})
			if err != nil {
				app.logger.Error("failed to publish refund event", "refund_id", refundID, "error", err)
			}
		})
	}

	resp := api.RefundResponse{
		RefundId: refundID,
		Status:   string(domain.RefundStatusPending),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// ResolveRefundHandler records the provider's verdict on a pending refund.
// Retrying the same verdict is a no-op; flipping a settled verdict is a conflict.
func (app *Application) ResolveRefundHandler(w http.ResponseWriter, r *http.Request) {
	refundID := chi.URLParam(r, "refundId")

	if _, err := uuid.Parse(refundID); err != nil {
		app.badRequestResponse(w, r, errors.New("refund ID must be a valid UUID"))
		return
	}

	var input api.RefundResultRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.refundRepo.ApplyRefundResult(r.Context(), refundID, input.Success)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, domain.ErrIllegalTransition):
			app.editConflictResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	status := domain.RefundStatusCompleted
	if !input.Success {
		status = domain.RefundStatusFailed
	}

	if app.publisher != nil && input.Success {
		ctx := context.WithoutCancel(r.Context())

		app.background(func() {
			err := app.publisher.Publish(ctx, events.PaymentEvent{
				EventType: events.EventRefundSettled,
				RefundID:  refundID,
			})
			if err != nil {
				app.logger.Error("failed to publish refund settlement event", "refund_id", refundID, "error", err)
			}
		})
	}

	resp := api.RefundResponse{
		RefundId: refundID,
		Status:   string(status),
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
