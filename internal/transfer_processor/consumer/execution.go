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

// ExecutionHandler consumes TransferValidated events
type ExecutionHandler struct {
	service service.ExecutionService
	logger  *slog.Logger
}

func NewExecutionHandler(logger *slog.Logger, svc service.ExecutionService) *ExecutionHandler {
	return &ExecutionHandler{
		service: svc,
		logger:  logger,
	}
}

// Handle decodes and executes one validated transfer
func (h *ExecutionHandler) Handle(ctx context.Context, msg kafka.Message) error {
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

	h.logger.Info("Received transfer for execution",
		"transfer_id", event.TransferID,
		"from_account", event.FromAccount,
		"to_account", event.ToAccount,
		"amount", event.Amount.String(),
	)

	return h.service.Execute(ctx, event)
}
