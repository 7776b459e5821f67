package errorhandling

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/banking-transfer-saga/internal/domain/retry"
)

// Handler applies the retry policy to failed messages. Retryable failures
// are delayed and handed back to the caller for another in-process
// attempt; exhausted failures are dead-lettered and acknowledged so the
// partition can move on.
type Handler struct {
	logger     *slog.Logger
	classifier *Classifier
	deadLetter *DeadLetterService
	attempts   retry.Store
}

func NewHandler(logger *slog.Logger, classifier *Classifier, deadLetter *DeadLetterService, attempts retry.Store) *Handler {
	return &Handler{
		logger:     logger,
		classifier: classifier,
		deadLetter: deadLetter,
		attempts:   attempts,
	}
}

// HandleError decides the fate of a failed message. Returning true tells
// the caller to invoke its handler again on the same message; the category
// backoff has already elapsed by then. Returning false means the message
// was dead-lettered and acknowledged, or the attempt itself failed and the
// caller must run the cycle again.
func (h *Handler) HandleError(ctx context.Context, msg kafka.Message, procErr error, groupID string, ack func(context.Context) error) (bool, error) {
	category := h.classifier.Classify(procErr)

	attempt, err := h.attempts.Get(ctx, groupID, msg.Topic, msg.Partition, msg.Offset)
	if err != nil {
		// Prefer an extra retry over a premature dead-letter
		h.logger.Warn("Failed to read attempt count, assuming first failure",
			"group_id", groupID,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		attempt = 0
	}

	if attempt < category.MaxRetries() {
		delay := category.RetryDelay(attempt)
		h.logger.Warn("Retrying message after backoff",
			"group_id", groupID,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"category", category,
			"attempt", attempt+1,
			"max_retries", category.MaxRetries(),
			"delay", delay,
			"error", procErr,
		)

		if _, err := h.attempts.Increment(ctx, groupID, msg.Topic, msg.Partition, msg.Offset); err != nil {
			h.logger.Error("Failed to record retry attempt",
				"group_id", groupID,
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}

		// Blocking backoff keeps the partition ordered: nothing behind
		// this message is processed until it resolves.
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}

		return true, nil
	}

	// Budget exhausted: capture and dead-letter, then ack to unblock the
	// partition. Total deliveries is the initial one plus every retry.
	if err := h.deadLetter.SendToDLT(ctx, msg, procErr, attempt+1, groupID, category); err != nil {
		// Not acknowledged; the caller runs the cycle again, giving
		// the DLT publish another chance.
		return false, err
	}

	if err := ack(ctx); err != nil {
		h.logger.Error("Failed to acknowledge dead-lettered message",
			"group_id", groupID,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return false, err
	}

	if err := h.attempts.Clear(ctx, groupID, msg.Topic, msg.Partition, msg.Offset); err != nil {
		h.logger.Warn("Failed to clear attempt record after dead-letter",
			"group_id", groupID,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
	}

	return false, nil
}
