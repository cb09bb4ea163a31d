package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/slimmermetai/checkout-api/internal/domain"
	"github.com/slimmermetai/checkout-api/internal/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/stripe/stripe-go/v82"
)

type WebhookTestSuite struct {
	suite.Suite
	app           *Application
	eventVerifier *mocks.MockEventVerifier
	webhookRepo   *mocks.MockWebhookRepo
	paymentRepo   *mocks.MockPaymentRepo
}

func (s *WebhookTestSuite) SetupTest() {
	s.eventVerifier = new(mocks.MockEventVerifier)
	s.webhookRepo = new(mocks.MockWebhookRepo)
	s.paymentRepo = new(mocks.MockPaymentRepo)

	s.app = newTestApplication(func(a *Application) {
		a.eventVerifier = s.eventVerifier
		a.webhookRepo = s.webhookRepo
		a.paymentRepo = s.paymentRepo
	})
}

func TestWebhookSuite(t *testing.T) {
	suite.Run(t, new(WebhookTestSuite))
}

func stripeEvent(eventType, sessionID string) stripe.Event {
	raw := fmt.Sprintf(`{"id":"cs_stripe_1","metadata":{"session_id":"%s"}}`, sessionID)
	if sessionID == "" {
		raw = `{"id":"cs_stripe_1"}`
	}

	return stripe.Event{
		ID:   "evt_1",
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func (s *WebhookTestSuite) TestStripeWebhookHandler() {
	completed := domain.SessionStatusCompleted
	cancelled := domain.SessionStatusCancelled

	tests := []struct {
		name           string
		setupMocks     func()
		wantStatus     int
		wantErrMessage string
	}{
		{
			name: "should reject an unverifiable payload",
			setupMocks: func() {
				s.eventVerifier.On("VerifyEvent", mock.Anything, mock.Anything).
					Return(stripe.Event{}, fmt.Errorf("signature mismatch")).Once()
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "invalid webhook signature",
		},
		{
			name: "should ack unhandled event types without touching the store",
			setupMocks: func() {
				s.eventVerifier.On("VerifyEvent", mock.Anything, mock.Anything).
					Return(stripeEvent("invoice.paid", "cs_1"), nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "should reject events without a session reference",
			setupMocks: func() {
				s.eventVerifier.On("VerifyEvent", mock.Anything, mock.Anything).
					Return(stripeEvent("checkout.session.completed", ""), nil).Once()
			},
			wantStatus:     http.StatusBadRequest,
			wantErrMessage: "event carries no session reference",
		},
		{
			name: "should record events for unknown sessions and return 404",
			setupMocks: func() {
				s.eventVerifier.On("VerifyEvent", mock.Anything, mock.Anything).
					Return(stripeEvent("checkout.session.completed", "cs_ghost"), nil).Once()
				s.webhookRepo.On("ApplyEvent", mock.Anything, mock.Anything, domain.PaymentStatusPaid, &completed).
					Return(false, domain.ErrUnknownSession).Once()
				s.webhookRepo.On("RecordUnknownSession", mock.Anything, mock.Anything).
					Return(nil).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "should ack out-of-order events without changing state",
			setupMocks: func() {
				s.eventVerifier.On("VerifyEvent", mock.Anything, mock.Anything).
					Return(stripeEvent("checkout.session.expired", "cs_1"), nil).Once()
				s.webhookRepo.On("ApplyEvent", mock.Anything, mock.Anything, domain.PaymentStatusFailed, &cancelled).
					Return(false, fmt.Errorf("%w: completed -> cancelled", domain.ErrIllegalTransition)).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "should ack duplicate deliveries without side effects",
			setupMocks: func() {
				s.eventVerifier.On("VerifyEvent", mock.Anything, mock.Anything).
					Return(stripeEvent("checkout.session.completed", "cs_1"), nil).Once()
				s.webhookRepo.On("ApplyEvent", mock.Anything, mock.Anything, domain.PaymentStatusPaid, &completed).
					Return(false, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "should apply a completed payment",
			setupMocks: func() {
				s.eventVerifier.On("VerifyEvent", mock.Anything, mock.Anything).
					Return(stripeEvent("checkout.session.completed", "cs_1"), nil).Once()
				s.webhookRepo.On("ApplyEvent", mock.Anything, mock.MatchedBy(func(event *domain.WebhookEvent) bool {
					return event.EventID == "evt_1" && event.SessionID == "cs_1"
				}), domain.PaymentStatusPaid, &completed).
					Return(true, nil).Once()

				s.paymentRepo.On("MarkCompleted", mock.Anything, "cs_1", mock.Anything).Return(nil).Once()
				s.paymentRepo.On("GetBySessionID", mock.Anything, "cs_1").
					Return(&domain.PaymentSession{
						SessionID:   "cs_1",
						AmountTotal: 4999,
						Currency:    "eur",
						Metadata:    map[string]string{},
					}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "should apply an expired session without settlement",
			setupMocks: func() {
				s.eventVerifier.On("VerifyEvent", mock.Anything, mock.Anything).
					Return(stripeEvent("checkout.session.expired", "cs_1"), nil).Once()
				s.webhookRepo.On("ApplyEvent", mock.Anything, mock.Anything, domain.PaymentStatusFailed, &cancelled).
					Return(true, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()

			defer s.eventVerifier.AssertExpectations(s.T())
			defer s.webhookRepo.AssertExpectations(s.T())
			defer s.paymentRepo.AssertExpectations(s.T())

			if tt.setupMocks != nil {
				tt.setupMocks()
			}

			w, r := executeRequest(s.T(), http.MethodPost, "/webhook", map[string]string{"payload": "raw"})
			r.Header.Set("Stripe-Signature", "t=1,v1=sig")

			s.app.StripeWebhookHandler(w, r)

			s.Equal(tt.wantStatus, w.Code)

			checkErrorResponse(s.T(), w, struct {
				wantStatus     int
				wantErrMessage string
			}{
				wantStatus:     tt.wantStatus,
				wantErrMessage: tt.wantErrMessage,
			})
		})
	}
}
