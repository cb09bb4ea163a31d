package integration_test

import (
	"context"

	"github.com/slimmermetai/checkout-api/internal/domain"
)

func (s *IntegrationSuite) TestCreateAndGetSession() {
	ctx := context.Background()

	session := s.newTestSession(
		domain.LineItem{ProductID: "course-101", ProductType: domain.ProductTypeCourse, Name: "AI Basics", UnitAmount: 4999, Quantity: 1},
		domain.LineItem{ProductID: "tool-7", ProductType: domain.ProductTypeTool, Name: "Prompt Tool", UnitAmount: 1500, Quantity: 2},
	)

	got, err := s.paymentRepo.GetBySessionID(ctx, session.SessionID)
	s.Require().NoError(err)

	s.Equal(session.SessionID, got.SessionID)
	s.Equal(int64(4999+2*1500), got.AmountTotal)
	s.Equal(domain.PaymentStatusUnpaid, got.PaymentStatus)
	s.Equal(domain.SessionStatusPending, got.Status)
	s.Len(got.Items, 2)
}

func (s *IntegrationSuite) TestCreateDuplicateSessionID() {
	ctx := context.Background()

	session := s.newTestSession()

	err := s.paymentRepo.Create(ctx, session)
	s.Require().ErrorIs(err, domain.ErrSessionExists)
}

func (s *IntegrationSuite) TestGetUnknownSession() {
	_, err := s.paymentRepo.GetBySessionID(context.Background(), "cs_does_not_exist")
	s.Require().ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *IntegrationSuite) TestIllegalTransitionIsRejected() {
	ctx := context.Background()

	session := s.newTestSession()

	err := s.paymentRepo.MarkFailed(ctx, session.SessionID, "card declined")
	s.Require().NoError(err)

	// A failed payment can never become paid.
	completed := domain.SessionStatusCompleted
	err = s.paymentRepo.Transition(ctx, session.SessionID, domain.PaymentStatusPaid, &completed)
	s.Require().ErrorIs(err, domain.ErrIllegalTransition)
}

func (s *IntegrationSuite) TestReapplyingCurrentStatusIsNoop() {
	ctx := context.Background()

	session := s.newTestSession()
	s.markPaid(session.SessionID)

	completed := domain.SessionStatusCompleted
	err := s.paymentRepo.Transition(ctx, session.SessionID, domain.PaymentStatusPaid, &completed)
	s.Require().NoError(err)

	got, err := s.paymentRepo.GetBySessionID(ctx, session.SessionID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPaid, got.PaymentStatus)
}

func (s *IntegrationSuite) TestMarkCompletedKeepsFirstCompletionTime() {
	ctx := context.Background()

	session := s.newTestSession()
	s.markPaid(session.SessionID)

	err := s.paymentRepo.MarkCompleted(ctx, session.SessionID, map[string]string{"payment_intent": "pi_1"})
	s.Require().NoError(err)

	first, err := s.paymentRepo.GetBySessionID(ctx, session.SessionID)
	s.Require().NoError(err)
	s.Require().NotNil(first.CompletedAt)

	err = s.paymentRepo.MarkCompleted(ctx, session.SessionID, map[string]string{"payment_intent": "pi_1"})
	s.Require().NoError(err)

	second, err := s.paymentRepo.GetBySessionID(ctx, session.SessionID)
	s.Require().NoError(err)
	s.Require().NotNil(second.CompletedAt)
	s.Equal(*first.CompletedAt, *second.CompletedAt)
	s.Equal("pi_1", second.Metadata["payment_intent"])
}
