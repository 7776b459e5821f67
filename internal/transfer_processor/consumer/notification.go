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

// NotificationHandler consumes TransferCompleted events and notifies both
// parties of the transfer.
type NotificationHandler struct {
	dispatcher service.NotificationDispatcher
	logger     *slog.Logger
}

func NewNotificationHandler(logger *slog.Logger, dispatcher service.NotificationDispatcher) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle decodes one completed transfer and dispatches notifications
func (h *NotificationHandler) Handle(ctx context.Context, msg kafka.Message) error {
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

	return h.dispatcher.Dispatch(ctx, event)
}
