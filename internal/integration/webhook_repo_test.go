package integration_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/slimmermetai/checkout-api/internal/domain"
)

func (s *IntegrationSuite) newWebhookEvent(sessionID string) *domain.WebhookEvent {
	return &domain.WebhookEvent{
		EventID:    "evt_" + uuid.New().String(),
		Type:       "checkout.session.completed",
		SessionID:  sessionID,
		ReceivedAt: time.Now(),
		RawPayload: []byte(fmt.Sprintf(`{"metadata":{"session_id":"%s"}}`, sessionID)),
	}
}

func (s *IntegrationSuite) TestApplyEventTransitionsSession() {
	ctx := context.Background()
	completed := domain.SessionStatusCompleted

	session := s.newTestSession()
	event := s.newWebhookEvent(session.SessionID)

	applied, err := s.webhookRepo.ApplyEvent(ctx, event, domain.PaymentStatusPaid, &completed)
	s.Require().NoError(err)
	s.True(applied)

	got, err := s.paymentRepo.GetBySessionID(ctx, session.SessionID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentStatusPaid, got.PaymentStatus)
	s.Equal(domain.SessionStatusCompleted, got.Status)
}

func (s *IntegrationSuite) TestDuplicateDeliveryAppliesOnce() {
	ctx := context.Background()
	completed := domain.SessionStatusCompleted

	session := s.newTestSession()
	event := s.newWebhookEvent(session.SessionID)

	applied, err := s.webhookRepo.ApplyEvent(ctx, event, domain.PaymentStatusPaid, &completed)
	s.Require().NoError(err)
	s.True(applied)

	applied, err = s.webhookRepo.ApplyEvent(ctx, event, domain.PaymentStatusPaid, &completed)
	s.Require().NoError(err)
	s.False(applied, "second delivery of the same event must be a no-op")
}

func (s *IntegrationSuite) TestConcurrentDeliveriesApplyOnce() {
	ctx := context.Background()
	completed := domain.SessionStatusCompleted

	session := s.newTestSession()
	event := s.newWebhookEvent(session.SessionID)

	const deliveries = 8

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		appliedCount int
	)

	for range deliveries {
		wg.Add(1)

		go func() {
			defer wg.Done()

			applied, err := s.webhookRepo.ApplyEvent(ctx, event, domain.PaymentStatusPaid, &completed)
			if err != nil {
				return
			}

			if applied {
				mu.Lock()
				appliedCount++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	s.Equal(1, appliedCount, "exactly one delivery may win")
}

func (s *IntegrationSuite) TestEventForUnknownSessionIsRecorded() {
	ctx := context.Background()
	completed := domain.SessionStatusCompleted

	event := s.newWebhookEvent("cs_not_created_yet")

	_, err := s.webhookRepo.ApplyEvent(ctx, event, domain.PaymentStatusPaid, &completed)
	s.Require().ErrorIs(err, domain.ErrUnknownSession)

	err = s.webhookRepo.RecordUnknownSession(ctx, event)
	s.Require().NoError(err)
}
