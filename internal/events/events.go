// Package events publishes user interaction events to Kafka for downstream
// analytics consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/civicdeck/backend/internal/logging"
)

// messageWriter is the slice of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// SwipeEvent is the wire shape of one recorded swipe.
type SwipeEvent struct {
	UserID     string    `json:"userId"`
	CardID     string    `json:"cardId"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SwipePublisher emits swipe events, keyed by user so one user's events stay
// ordered within a partition.
type SwipePublisher struct {
	writer messageWriter
	log    logging.Logger
}

// NewSwipePublisher builds a publisher with its own writer.
func NewSwipePublisher(brokers []string, topic string, log logging.Logger) *SwipePublisher {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return NewSwipePublisherFromWriter(writer, log)
}

// NewSwipePublisherFromWriter wires a publisher over an existing writer.
func NewSwipePublisherFromWriter(writer messageWriter, log logging.Logger) *SwipePublisher {
	return &SwipePublisher{writer: writer, log: log}
}

func (p *SwipePublisher) Publish(ctx context.Context, event SwipeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal swipe event: %w", err)
	}

	msg := kafka.Message{Key: []byte(event.UserID), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish swipe event: %w", err)
	}

	p.log.Debug(ctx, "swipe event published", "user_id", event.UserID, "card_id", event.CardID)
	return nil
}

func (p *SwipePublisher) Close() error {
	return p.writer.Close()
}
