package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
)

const TopicPaymentEvents = "payment-events"

const (
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventRefundRequested  = "refund.requested"
	EventRefundSettled    = "refund.settled"
)

// PaymentEvent is the message other services consume to react to checkout
// outcomes (granting course access, bookkeeping, notifications).
type PaymentEvent struct {
	EventType   string    `json:"eventType"`
	SessionID   string    `json:"sessionId"`
	RefundID    string    `json:"refundId,omitempty"`
	UserID      *int      `json:"userId,omitempty"`
	AmountTotal int64     `json:"amountTotal"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, event PaymentEvent) error
}

// KafkaPublisher sends payment events through a synchronous producer so a
// webhook handler only acks Stripe after the event is durably queued.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}

	return &KafkaPublisher{producer: producer, topic: topic, logger: logger}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event PaymentEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling payment event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.SessionID),
		Value: sarama.ByteEncoder(payload),
	}

	// Trace context rides along in the message headers so consumers can
	// continue the same trace.
	carrier := make(headerCarrier, 0, 2)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	msg.Headers = []sarama.RecordHeader(carrier)

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publishing payment event: %w", err)
	}

	p.logger.InfoContext(ctx, "payment event published",
		"topic", p.topic,
		"eventType", event.EventType,
		"sessionID", event.SessionID,
		"partition", partition,
		"offset", offset,
	)

	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

type headerCarrier []sarama.RecordHeader

func (c headerCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}

	return ""
}

func (c *headerCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}

	return keys
}
