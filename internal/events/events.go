// Package events publishes drink and rating changes to kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event types.
const (
	TypeDrinkCreated    = "drink.created"
	TypeDrinkUpdated    = "drink.updated"
	TypeDrinkDeleted    = "drink.deleted"
	TypeRatingSubmitted = "rating.submitted"
	TypeRatingDeleted   = "rating.deleted"
)

// Event is the message body published for every catalog or rating change.
type Event struct {
	Type       string    `json:"type"`
	DrinkID    int64     `json:"drink_id,omitempty"`
	RatingID   int64     `json:"rating_id,omitempty"`
	Rating     int       `json:"rating,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher delivers events. Callers treat delivery as best-effort.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implements Publisher with a kafka writer.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
	logger zerolog.Logger
}

// NewKafkaWriter creates a writer for topic on the given brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
}

// NewKafkaPublisher creates a publisher on top of writer.
func NewKafkaPublisher(writer messageWriter, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		now:    time.Now,
		logger: logger.With().Str("component", "kafka-publisher").Logger(),
	}
}

// Publish writes the event keyed by drink id so events of one drink stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := p.message(event)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.Type, err)
	}

	p.logger.Debug().Str("type", event.Type).Int64("drink_id", event.DrinkID).Msg("event published")

	return nil
}

func (p *KafkaPublisher) message(event Event) (kafka.Message, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = p.now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	return kafka.Message{
		Key:   []byte(strconv.FormatInt(event.DrinkID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}, nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Nop is a Publisher that drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

func (Nop) Close() error { return nil }
