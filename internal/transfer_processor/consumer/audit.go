package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/banking-transfer-saga/internal/domain/audit"
	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// AuditHandler records every saga event into the audit trail. It runs in
// its own consumer group so its offsets are independent of the saga.
type AuditHandler struct {
	repo   audit.Repository
	logger *slog.Logger
}

func NewAuditHandler(logger *slog.Logger, repo audit.Repository) *AuditHandler {
	return &AuditHandler{
		repo:   repo,
		logger: logger,
	}
}

// Handle writes one observed event to the audit store. Unparseable
// payloads are logged and skipped: the audit trail is an observer and must
// never block the topics it watches.
func (h *AuditHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var event transfer.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Warn("Skipping unparseable message in audit trail",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}

	entry := audit.NewEntry(msg.Topic, msg.Partition, msg.Offset, event)
	if err := h.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to persist audit entry: %w", err)
	}

	h.logger.Debug("Audit entry recorded",
		"topic", msg.Topic,
		"transfer_id", event.TransferID,
		"status", event.Status,
	)
	return nil
}
