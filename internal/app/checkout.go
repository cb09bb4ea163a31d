package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/slimmermetai/checkout-api/api"
	"github.com/slimmermetai/checkout-api/internal/domain"
)

const defaultCurrency = "EUR"

func (app *Application) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	var input api.CheckoutSessionRequest

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

	items := make([]domain.LineItem, len(input.LineItems))
	for i, item := range input.LineItems {
		items[i] = domain.LineItem{
			ProductID:   item.ProductId,
			ProductType: domain.ProductType(item.ProductType),
			Name:        item.Name,
			UnitAmount:  item.UnitAmount,
			Quantity:    item.Quantity,
		}
	}

	opts := domain.CheckoutOptions{
		CustomerEmail: input.CustomerEmail,
		SuccessURL:    input.SuccessUrl,
		CancelURL:     input.CancelUrl,
	}

	app.createSessionAndRedirect(w, r, items, input.Currency, input.Metadata, opts)
}

func (app *Application) CreateCheckoutSessionFromCartHandler(w http.ResponseWriter, r *http.Request) {
	var input api.CheckoutFromCartRequest

	if r.ContentLength > 0 {
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
	}

	sessionID := app.sessionManager.Token(r.Context())

	cart, err := app.loadCart(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrCartNotFound) {
			app.notFoundResponseWithErr(w, r, fmt.Errorf("there is no cart bound to the current session"))
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	items, err := cart.Snapshot()
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	metadata := map[string]string{"cart_id": cart.Id}
	for k, v := range input.Metadata {
		metadata[k] = v
	}

	opts := domain.CheckoutOptions{
		CustomerEmail: input.CustomerEmail,
		SuccessURL:    input.SuccessUrl,
		CancelURL:     input.CancelUrl,
	}

	app.createSessionAndRedirect(w, r, items, input.Currency, metadata, opts)
}

func (app *Application) createSessionAndRedirect(
	w http.ResponseWriter,
	r *http.Request,
	items []domain.LineItem,
	currency string,
	metadata map[string]string,
	opts domain.CheckoutOptions) {

	logger := app.contextGetLogger(r)

	if currency == "" {
		currency = defaultCurrency
	}
	currency = strings.ToLower(currency)

	userID := app.contextGetUserId(r)

	session, err := domain.NewPaymentSession(userID, items, currency)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	for k, v := range metadata {
		session.Metadata[k] = v
	}
	if opts.CustomerEmail != "" {
		session.Metadata["customer_email"] = opts.CustomerEmail
	}

	err = app.paymentRepo.Create(r.Context(), session)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExists) {
			app.editConflictResponseWithErr(w, r, err)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	checkoutSession, err := app.paymentProvider.CreateCheckoutSession(r.Context(), session, opts)
	if err != nil {
		logger.Error("payment provider rejected session creation", "session_id", session.SessionID, "error", err)

		if markErr := app.paymentRepo.MarkFailed(r.Context(), session.SessionID, "provider session creation failed"); markErr != nil {
			logger.Error("failed to mark session as failed", "session_id", session.SessionID, "error", markErr)
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	logger.Info("checkout session created", "session_id", session.SessionID, "amount_total", session.AmountTotal)

	resp := api.CheckoutSessionResponse{
		SessionId:   session.SessionID,
		RedirectUrl: checkoutSession.URL,
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) GetPaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	session, err := app.paymentRepo.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			app.notFoundResponse(w, r)
			return
		}

		app.serverErrorResponse(w, r, err)
		return
	}

	resp := api.PaymentStatusResponse{
		SessionId:     session.SessionID,
		PaymentStatus: string(session.PaymentStatus),
		Status:        string(session.Status),
		AmountTotal:   session.AmountTotal,
		Currency:      session.Currency,
		CompletedAt:   session.CompletedAt,
		FailureReason: session.FailureReason,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
