package integration_test

import (
	"context"

	"github.com/slimmermetai/checkout-api/internal/domain"
)

func (s *IntegrationSuite) TestRefundRequiresPaidSession() {
	ctx := context.Background()

	session := s.newTestSession()

	_, err := s.refundRepo.CreateRefund(ctx, session.SessionID, 500, "not as described")
	s.Require().ErrorIs(err, domain.ErrInvalidSessionState)
}

func (s *IntegrationSuite) TestPendingRefundsReserveTheTotal() {
	ctx := context.Background()

	session := s.newTestSession() // total 2000
	s.markPaid(session.SessionID)

	_, err := s.refundRepo.CreateRefund(ctx, session.SessionID, 1999, "partial refund")
	s.Require().NoError(err)

	// The pending refund already reserves 1999 of the 2000 total.
	_, err = s.refundRepo.CreateRefund(ctx, session.SessionID, 2, "second refund")
	s.Require().ErrorIs(err, domain.ErrOverRefund)

	_, err = s.refundRepo.CreateRefund(ctx, session.SessionID, 1, "remainder")
	s.Require().NoError(err)
}

func (s *IntegrationSuite) TestFullRefundSettlesSessionAsRefunded() {
	ctx := context.Background()

	session := s.newTestSession()
	s.markPaid(session.SessionID)

	refundID, err := s.refundRepo.CreateRefund(ctx, session.SessionID, 2000, "cancelled course")
	s.Require().NoError(err)

	got, err := s.paymentRepo.GetBySessionID(ctx, session.SessionID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusRefundPending, got.PaymentStatus)

	err = s.refundRepo.ApplyRefundResult(ctx, refundID, true)
	s.Require().NoError(err)

	got, err = s.paymentRepo.GetBySessionID(ctx, session.SessionID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusRefunded, got.PaymentStatus)
}

func (s *IntegrationSuite) TestFailedRefundReturnsSessionToPaid() {
	ctx := context.Background()

	session := s.newTestSession()
	s.markPaid(session.SessionID)

	refundID, err := s.refundRepo.CreateRefund(ctx, session.SessionID, 500, "damaged")
	s.Require().NoError(err)

	err = s.refundRepo.ApplyRefundResult(ctx, refundID, false)
	s.Require().NoError(err)

	got, err := s.paymentRepo.GetBySessionID(ctx, session.SessionID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPaid, got.PaymentStatus)

	// Failed refunds release their reservation.
	_, err = s.refundRepo.CreateRefund(ctx, session.SessionID, 2000, "full refund")
	s.Require().NoError(err)
}

func (s *IntegrationSuite) TestApplyRefundResultIsIdempotent() {
	ctx := context.Background()

	session := s.newTestSession()
	s.markPaid(session.SessionID)

	refundID, err := s.refundRepo.CreateRefund(ctx, session.SessionID, 500, "damaged")
	s.Require().NoError(err)

	err = s.refundRepo.ApplyRefundResult(ctx, refundID, true)
	s.Require().NoError(err)

	// Retrying the same verdict is fine; flipping it is not.
	err = s.refundRepo.ApplyRefundResult(ctx, refundID, true)
	s.Require().NoError(err)

	err = s.refundRepo.ApplyRefundResult(ctx, refundID, false)
	s.Require().ErrorIs(err, domain.ErrIllegalTransition)
}

func (s *IntegrationSuite) TestRefundLedgerBySession() {
	ctx := context.Background()

	session := s.newTestSession()
	s.markPaid(session.SessionID)

	_, err := s.refundRepo.CreateRefund(ctx, session.SessionID, 500, "first")
	s.Require().NoError(err)

	_, err = s.refundRepo.CreateRefund(ctx, session.SessionID, 300, "second")
	s.Require().NoError(err)

	records, err := s.refundRepo.GetBySessionID(ctx, session.SessionID)
	s.Require().NoError(err)
	s.Len(records, 2)
}
