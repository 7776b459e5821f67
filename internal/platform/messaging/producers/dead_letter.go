package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/banking-transfer-saga/internal/config"
)

// DLTProducer writes exhausted messages to dead-letter topics. The
// destination is always derived from the topic the message failed on, so
// one producer covers every pipeline stage.
type DLTProducer struct {
	logger *slog.Logger
	writer KafkaWriter
}

// NewDLTProducer creates the dead-letter producer and ensures the
// dead-letter topics exist alongside the pipeline topics.
func NewDLTProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*DLTProducer, error) {
	if err := EnsureTopics(logger, cfg); err != nil {
		return nil, err
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &DLTProducer{
		logger: logger,
		writer: writer,
	}, nil
}

// Publish writes the payload to the dead-letter topic of originalTopic,
// preserving the original message key.
func (p *DLTProducer) Publish(ctx context.Context, originalTopic string, key []byte, value []byte, headers ...kafka.Header) error {
	dltTopic := DLTTopic(originalTopic)

	msg := kafka.Message{
		Topic:   dltTopic,
		Key:     key,
		Value:   value,
		Headers: headers,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message to dead-letter topic",
			"topic", dltTopic,
			"key", string(key),
			"error", err,
		)
		return fmt.Errorf("failed to publish message to dead-letter topic %s: %w", dltTopic, err)
	}

	p.logger.Info("Published message to dead-letter topic",
		"topic", dltTopic,
		"key", string(key),
	)
	return nil
}

func (p *DLTProducer) Close() error {
	p.logger.Info("Closing dead-letter producer")
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close dead-letter producer writer: %w", err)
	}
	return nil
}
