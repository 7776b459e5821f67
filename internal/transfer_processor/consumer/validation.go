// Package consumer contains the Kafka-facing handlers of the transfer
// processor. Handlers stay thin: they decode the message and delegate to a
// stage service, so retry and dead-letter policy can be applied uniformly
// by the consumer runner.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/banking-transfer-saga/internal/domain/transfer"
	"github.com/banking-transfer-saga/internal/transfer_processor/service"
)

// ValidationHandler consumes TransferCreated events
type ValidationHandler struct {
	service service.ValidationService
	logger  *slog.Logger
}

func NewValidationHandler(logger *slog.Logger, svc service.ValidationService) *ValidationHandler {
	return &ValidationHandler{
		service: svc,
		logger:  logger,
	}
}

// Handle decodes and validates one transfer event
func (h *ValidationHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event transfer.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("Failed to unmarshal transfer event",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"error", err,
		)
		return fmt.Errorf("failed to unmarshal transfer event: %w", err)
	}

	h.logger.Info("Received transfer for validation",
		"transfer_id", event.TransferID,
		"from_account", event.FromAccount,
		"to_account", event.ToAccount,
		"amount", event.Amount.String(),
	)

	return h.service.Validate(ctx, event)
}
