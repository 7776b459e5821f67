package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/banking-transfer-saga/internal/transfer_processor/errorhandling"
)

// DLTMonitorHandler watches the dead-letter topics and aggregates what it
// sees. Running as its own consumer group it also observes dead-letters
// produced by other processor instances.
type DLTMonitorHandler struct {
	stats  *errorhandling.Stats
	logger *slog.Logger
}

func NewDLTMonitorHandler(logger *slog.Logger, stats *errorhandling.Stats) *DLTMonitorHandler {
	return &DLTMonitorHandler{
		stats:  stats,
		logger: logger,
	}
}

// Handle records one observed dead-letter. The monitor never fails a
// message: a malformed envelope is still counted, just under UNKNOWN.
func (h *DLTMonitorHandler) Handle(_ context.Context, msg kafka.Message) error {
	var failed errorhandling.FailedMessage
	if err := json.Unmarshal(msg.Value, &failed); err != nil {
		h.logger.Warn("Unparseable dead-letter envelope",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		h.stats.Record(msg.Topic, errorhandling.CategoryUnknown)
		return nil
	}

	h.stats.Record(failed.OriginalTopic, failed.ErrorCategory)

	h.logger.Warn("Dead-lettered message observed",
		"original_topic", failed.OriginalTopic,
		"original_partition", failed.OriginalPartition,
		"original_offset", failed.OriginalOffset,
		"key", failed.OriginalKey,
		"category", failed.ErrorCategory,
		"attempts", failed.AttemptCount,
		"consumer_group", failed.ConsumerGroupID,
		"exception", failed.ExceptionMessage,
		"retryable", failed.Retryable,
	)
	return nil
}
