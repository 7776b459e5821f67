package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/banking-transfer-saga/internal/config"
	"github.com/banking-transfer-saga/internal/domain/retry"
)

// MessageHandler processes one fetched message. A nil return acknowledges
// the message; any error hands it to the consumer's FailureHandler.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// FailureHandler decides what happens to a message whose handler returned
// an error. Returning true asks the consumer to invoke the handler again
// on the same message; returning false with a nil error means the message
// was routed to a dead-letter topic and acknowledged. kafka.Reader never
// re-fetches an uncommitted offset within a running group member, so every
// retry must happen in-process before the next fetch.
type FailureHandler interface {
	HandleError(ctx context.Context, msg kafka.Message, procErr error, groupID string, ack func(context.Context) error) (retry bool, err error)
}

// Consumer defines the message queue consumer interface
type Consumer interface {
	Start(ctx context.Context)
	Close() error
}

// KafkaConsumer implements Consumer using Kafka with manual offset commits.
// A message is processed to completion — success or dead-letter — before
// the next one is fetched, so an offset is only ever committed after a
// successful local commit or an acknowledged dead-letter.
type KafkaConsumer struct {
	reader   *kafka.Reader
	logger   *slog.Logger
	groupID  string
	handler  MessageHandler
	failures FailureHandler // Optional; nil means failed messages are retried in place
	attempts retry.Store    // Optional; nil disables attempt bookkeeping
	commit   func(ctx context.Context, msg kafka.Message) error
}

// NewKafkaConsumer creates a consumer-group member over one or more topics
func NewKafkaConsumer(logger *slog.Logger, cfg *config.KafkaConfig, topics []string, groupID string, handler MessageHandler, failures FailureHandler, attempts retry.Store) *KafkaConsumer {
	readerConfig := kafka.ReaderConfig{
		Brokers:     []string{cfg.Brokers},
		GroupID:     groupID,
		MinBytes:    cfg.MinBytes,
		MaxBytes:    cfg.MaxBytes,
		MaxWait:     cfg.MaxWait,
		StartOffset: kafka.FirstOffset,
	}
	if len(topics) == 1 {
		readerConfig.Topic = topics[0]
	} else {
		readerConfig.GroupTopics = topics
	}

	reader := kafka.NewReader(readerConfig)
	return &KafkaConsumer{
		reader:   reader,
		logger:   logger,
		groupID:  groupID,
		handler:  handler,
		failures: failures,
		attempts: attempts,
		commit: func(ctx context.Context, msg kafka.Message) error {
			return reader.CommitMessages(ctx, msg)
		},
	}
}

// Start consumes messages until the context is canceled
func (c *KafkaConsumer) Start(ctx context.Context) {
	c.logger.Info("Starting Kafka consumer", "group_id", c.groupID)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Context canceled, stopping consumer", "group_id", c.groupID)
				return
			default:
				msg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					c.logger.Error("Failed to fetch message from Kafka",
						"group_id", c.groupID,
						"error", err,
					)
					// Wait a bit and try again
					time.Sleep(time.Second)
					continue
				}

				c.logger.Debug("Received message from Kafka",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
					"key", string(msg.Key),
				)

				c.process(ctx, msg)
			}
		}
	}()
}

// process drives one message to its final outcome. The loop exists because
// the reader only ever fetches forward: a later commit on the partition
// would implicitly acknowledge this message, so it must not be left behind
// for the broker to redeliver.
func (c *KafkaConsumer) process(ctx context.Context, msg kafka.Message) {
	for {
		if ctx.Err() != nil {
			return
		}

		procErr := c.handler(ctx, msg)
		if procErr == nil {
			c.ack(ctx, msg)
			return
		}

		c.logger.Error("Failed to process message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", procErr,
		)

		if c.failures == nil {
			// No failure policy: retry in place until the handler
			// succeeds or the consumer shuts down.
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		ackFn := func(ackCtx context.Context) error {
			return c.commit(ackCtx, msg)
		}
		shouldRetry, err := c.failures.HandleError(ctx, msg, procErr, c.groupID, ackFn)
		if err != nil {
			c.logger.Error("Failure handler returned an error",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			if ctx.Err() != nil {
				return
			}
			// The message is still unacknowledged; run the cycle
			// again after a pause.
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		if !shouldRetry {
			return
		}
	}
}

// ack commits the offset and clears any attempt bookkeeping for the message
func (c *KafkaConsumer) ack(ctx context.Context, msg kafka.Message) {
	if err := c.commit(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message after successful processing",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return
	}

	if c.attempts != nil {
		if err := c.attempts.Clear(ctx, c.groupID, msg.Topic, msg.Partition, msg.Offset); err != nil {
			c.logger.Warn("Failed to clear attempt record",
				"group_id", c.groupID,
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}

	c.logger.Debug("Message committed successfully",
		"topic", msg.Topic,
		"offset", msg.Offset,
		"key", string(msg.Key),
	)
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
