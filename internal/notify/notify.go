// Package notify publishes settlement outcomes for the downstream
// notification system. Delivery is best effort.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	KindTicketConfirmed = "ticket.confirmed"
	KindTicketRefunded  = "ticket.refunded"
	KindTicketOversold  = "ticket.oversold"
	KindTipCompleted    = "tip.completed"
	KindTipRefunded     = "tip.refunded"
	KindPayoutSent      = "payout.sent"
)

type Message struct {
	Kind            string    `json:"kind"`
	RecordID        string    `json:"record_id"`
	UserID          string    `json:"user_id,omitempty"`
	ArtistID        string    `json:"artist_id,omitempty"`
	EventID         string    `json:"event_id,omitempty"`
	PaymentIntentID string    `json:"payment_intent_id,omitempty"`
	Amount          int64     `json:"amount"`
	Currency        string    `json:"currency,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{},
		},
	}, nil
}

// Publish keys messages by record id so updates for one ticket stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	if msg.OccurredAt.IsZero() {
		msg.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", msg.Kind, err)
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.RecordID),
		Value: payload,
		Time:  msg.OccurredAt,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(msg.Kind)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(_ context.Context, msg Message) error {
	zap.L().Debug("notification dropped, no broker configured", zap.String("kind", msg.Kind), zap.String("record_id", msg.RecordID))
	return nil
}

func (Noop) Close() error { return nil }
