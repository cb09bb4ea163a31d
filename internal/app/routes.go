package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

func (app *Application) routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)

	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware("checkout-api", otelchi.WithChiRoutes(r)))
	r.Use(middleware.Logger)
	r.Use(app.recoverPanic)
	r.Use(app.requestLogger)
	r.Use(app.sessionManager.LoadAndSave)
	r.Use(app.ensureGuestSession)

	r.Get("/health", app.GetHealth)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", app.GetCartHandler)
		r.Post("/items", app.AddCartItemHandler)
		r.Delete("/", app.DeleteCartHandler)
	})

	r.Route("/checkout/session", func(r chi.Router) {
		r.Post("/", app.CreateCheckoutSessionHandler)
		r.Post("/from-cart", app.CreateCheckoutSessionFromCartHandler)
		r.Get("/{sessionId}", app.GetPaymentStatusHandler)
	})

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/", app.StripeWebhookHandler)
	})

	r.Route("/refunds", func(r chi.Router) {
		r.Post("/", app.CreateRefundHandler)
		r.Put("/{refundId}", app.ResolveRefundHandler)
	})

	return r
}
