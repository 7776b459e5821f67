package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes outbox events to their destination topics.
// Implementations must only return nil after the broker acknowledged the
// write, since the outbox relay marks events processed on success.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value []byte) error
	Close() error
}

// DeadLetterPublisher routes poison messages to the dead-letter topic
// derived from the topic they originally arrived on.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, originalTopic string, key []byte, value []byte, headers ...kafka.Header) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
