// Package outbox_relay drains the transactional outbox into Kafka. The
// relay is the only component that publishes pipeline events, which is
// what makes every state transition atomic with its event.
package outbox_relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/banking-transfer-saga/internal/config"
	"github.com/banking-transfer-saga/internal/domain/outbox"
	"github.com/banking-transfer-saga/internal/platform/messaging/producers"
)

// Relay polls for pending outbox events and publishes them in creation
// order. Publishing is synchronous; an event is only marked processed
// after the broker acknowledged it, so delivery is at-least-once.
type Relay struct {
	outboxRepo   outbox.Repository
	publisher    producers.EventPublisher
	logger       *slog.Logger
	pollInterval time.Duration
	batchSize    int
}

func NewRelay(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher producers.EventPublisher,
	logger *slog.Logger,
) *Relay {
	return &Relay{
		outboxRepo:   outboxRepo,
		publisher:    publisher,
		logger:       logger,
		pollInterval: cfg.PollingInterval,
		batchSize:    cfg.BatchSize,
	}
}

// Start begins polling until the context is canceled
func (r *Relay) Start(ctx context.Context) {
	r.logger.Info("Starting outbox relay",
		"poll_interval", r.pollInterval.String(),
		"batch_size", r.batchSize,
	)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopping due to context cancellation.")
			return
		case <-ticker.C:
			r.logger.Debug("Outbox relay tick: publishing pending events")
			if err := r.publishPending(ctx); err != nil {
				r.logger.Error("Error during batch publishing of pending outbox events", "error", err)
			}
		}
	}
}

func (r *Relay) publishPending(ctx context.Context) error {
	events, err := r.outboxRepo.GetPending(ctx, r.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox events: %w", err)
	}

	if len(events) == 0 {
		r.logger.Debug("No pending outbox events found.")
		return nil
	}

	r.logger.Info("Fetched pending outbox events", "count", len(events))

	for _, event := range events {
		logger := r.logger.With(
			"outbox_id", event.ID,
			"aggregate_id", event.AggregateID,
			"event_type", event.EventType,
			"topic", event.DestinationTopic,
		)

		if err := r.publisher.Publish(ctx, event.DestinationTopic, []byte(event.RoutingKey), event.Payload); err != nil {
			logger.Error("Failed to publish outbox event",
				"retry_count", event.RetryCount,
				"error", err,
			)

			// The event stays pending; the retry counter is for
			// visibility, not for giving up.
			if errInc := r.outboxRepo.IncrementRetryCount(ctx, event.ID); errInc != nil {
				logger.Error("Failed to increment retry count for outbox event", "error", errInc)
			}
			continue
		}

		if err := r.outboxRepo.MarkProcessed(ctx, event.ID); err != nil {
			// The event will be republished next cycle; consumers
			// must tolerate the duplicate.
			logger.Error("Failed to mark outbox event processed after publish", "error", err)
			continue
		}

		logger.Debug("Published outbox event")
	}
	return nil
}
