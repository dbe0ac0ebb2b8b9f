// Package kafka publishes review events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/papercomputeco/studybot/pkg/eventstream"
)

// DefaultTopic is the topic review events are written to.
const DefaultTopic = "studybot.reviews"

// MessageWriter is the subset of *kafka.Writer used by the publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config is the Kafka publisher configuration.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher writes review events as JSON, keyed by the user's external id so
// one user's events stay ordered within a partition.
type Publisher struct {
	writer MessageWriter
	topic  string
}

// NewPublisher creates a publisher writing to the configured brokers.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka publisher requires at least one broker")
	}
	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	return &Publisher{writer: writer, topic: topic}, nil
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(writer MessageWriter, topic string) *Publisher {
	return &Publisher{writer: writer, topic: topic}
}

// PublishReview serializes the event to JSON and writes it.
func (p *Publisher) PublishReview(ctx context.Context, event *eventstream.FactReviewedEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal review event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Source.ExternalID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to write review event to kafka topic %s: %w", p.topic, err)
	}

	return nil
}

// Close closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
