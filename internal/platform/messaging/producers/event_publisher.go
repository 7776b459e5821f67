package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/banking-transfer-saga/internal/config"
)

// KafkaEventPublisher publishes outbox events for the relay. The writer has
// no fixed topic; each message carries its own destination so one publisher
// serves every pipeline stage. Writes are synchronous with full-ISR acks:
// the relay must not mark an event processed before the broker has it.
type KafkaEventPublisher struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
}

// NewKafkaEventPublisher creates the relay publisher and ensures the
// pipeline topics exist.
func NewKafkaEventPublisher(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*KafkaEventPublisher, error) {
	if err := EnsureTopics(logger, cfg); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Balancer:     &kafka.Hash{}, // Same routing key always lands on the same partition
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &KafkaEventPublisher{
		logger: logger,
		writer: writer,
	}, nil
}

// Publish sends one event to its destination topic, keyed by the routing
// key so all events of one transfer preserve their order.
func (p *KafkaEventPublisher) Publish(ctx context.Context, topic string, key []byte, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event",
			"topic", topic,
			"key", string(key),
			"error", err,
		)
		return fmt.Errorf("failed to publish event to %s: %w", topic, err)
	}

	p.logger.Debug("Published event",
		"topic", topic,
		"key", string(key),
	)
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	p.logger.Info("Closing event publisher")
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close event publisher writer: %w", err)
	}
	return nil
}
