package errorhandling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/banking-transfer-saga/internal/platform/messaging/producers"
)

// DeadLetterService captures exhausted messages and routes them to the
// dead-letter topic of the topic they failed on.
type DeadLetterService struct {
	logger   *slog.Logger
	producer producers.DeadLetterPublisher
	stats    *Stats
}

func NewDeadLetterService(logger *slog.Logger, producer producers.DeadLetterPublisher, stats *Stats) *DeadLetterService {
	return &DeadLetterService{
		logger:   logger,
		producer: producer,
		stats:    stats,
	}
}

// SendToDLT wraps the message in a FailedMessage envelope and publishes it.
// A failure here means the poison message is about to be acknowledged
// without having been preserved anywhere, so it is logged as message loss.
func (s *DeadLetterService) SendToDLT(ctx context.Context, msg kafka.Message, procErr error, attemptCount int, groupID string, category Category) error {
	failed := NewFailedMessage(msg, procErr, attemptCount, groupID, category)

	payload, err := json.Marshal(failed)
	if err != nil {
		s.logger.Error("MESSAGE LOSS: failed to serialize dead-letter payload",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return fmt.Errorf("failed to serialize dead-letter payload: %w", err)
	}

	headers := []kafka.Header{
		{Key: "error-category", Value: []byte(category)},
		{Key: "consumer-group", Value: []byte(groupID)},
		{Key: "exception-type", Value: []byte(failed.ExceptionType)},
	}

	if err := s.producer.Publish(ctx, msg.Topic, msg.Key, payload, headers...); err != nil {
		s.logger.Error("MESSAGE LOSS: failed to publish to dead-letter topic",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"category", category,
			"error", err,
		)
		return fmt.Errorf("failed to publish to dead-letter topic: %w", err)
	}

	s.stats.Record(msg.Topic, category)

	s.logger.Warn("Message dead-lettered",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
		"key", string(msg.Key),
		"category", category,
		"attempts", attemptCount,
		"error", procErr,
	)
	return nil
}

// Stats exposes the process-wide dead-letter counters
func (s *DeadLetterService) Stats() *Stats {
	return s.stats
}
