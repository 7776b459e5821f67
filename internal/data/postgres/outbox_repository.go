package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/banking-transfer-saga/internal/domain/outbox"
	"github.com/banking-transfer-saga/internal/platform/persistence"
)

// OutboxRepository implements the outbox.Repository interface for PostgreSQL
type OutboxRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewOutboxRepository creates a new PostgreSQL outbox repository
func NewOutboxRepository(logger *slog.Logger, db *persistence.PostgresDB) outbox.Repository {
	return &OutboxRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction for atomic operations.
// This ensures event creation is atomic with the caller's state transition.
func (r *OutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	return &OutboxRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends a new unprocessed outbox event.
// The event will be picked up by the outbox relay for publishing.
func (r *OutboxRepository) Create(ctx context.Context, event *outbox.Event) error {
	query := `
		INSERT INTO outbox_events (aggregate_id, event_type, destination_topic, routing_key, payload, processed, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		event.AggregateID,
		event.EventType,
		event.DestinationTopic,
		event.RoutingKey,
		event.Payload,
		event.Processed,
		event.RetryCount,
		event.CreatedAt,
	).Scan(&event.ID)

	if err != nil {
		r.logger.Error("Failed to create outbox event",
			"aggregate_id", event.AggregateID,
			"event_type", event.EventType,
			"error", err,
		)
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	return nil
}

// GetPending retrieves a batch of unprocessed events ordered by creation
// time. This is used by the relay to publish events in FIFO order.
func (r *OutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Event, error) {
	query := `
		SELECT id, aggregate_id, event_type, destination_topic, routing_key, payload, processed, retry_count, created_at, processed_at
		FROM outbox_events
		WHERE processed = FALSE
		ORDER BY created_at ASC
		LIMIT $1
	`

	rows, err := r.querier.Query(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to get pending outbox events", "error", err)
		return nil, fmt.Errorf("failed to get pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []*outbox.Event
	for rows.Next() {
		var event outbox.Event
		err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.EventType,
			&event.DestinationTopic,
			&event.RoutingKey,
			&event.Payload,
			&event.Processed,
			&event.RetryCount,
			&event.CreatedAt,
			&event.ProcessedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan outbox event", "error", err)
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over outbox events", "error", err)
		return nil, fmt.Errorf("error iterating over outbox events: %w", err)
	}

	return events, nil
}

// MarkProcessed flips processed and stamps the completion time. Only called
// after a positive broker acknowledgment.
func (r *OutboxRepository) MarkProcessed(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET processed = TRUE, processed_at = $1
		WHERE id = $2
	`

	result, err := r.querier.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to mark outbox event processed", "id", id, "error", err)
		return fmt.Errorf("failed to mark outbox event processed: %w", err)
	}

	if result.RowsAffected() == 0 {
		return outbox.ErrEventNotFound{ID: id}
	}

	return nil
}

// IncrementRetryCount bumps the retry counter after a failed publish; the
// event stays pending for the next relay cycle.
func (r *OutboxRepository) IncrementRetryCount(ctx context.Context, id int64) error {
	query := `
		UPDATE outbox_events
		SET retry_count = retry_count + 1
		WHERE id = $1
	`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to increment outbox event retry count", "id", id, "error", err)
		return fmt.Errorf("failed to increment outbox event retry count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return outbox.ErrEventNotFound{ID: id}
	}

	return nil
}

// CountPending returns the relay backlog size for lag monitoring
func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM outbox_events
		WHERE processed = FALSE
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query).Scan(&count); err != nil {
		r.logger.Error("Failed to count pending outbox events", "error", err)
		return 0, fmt.Errorf("failed to count pending outbox events: %w", err)
	}

	return count, nil
}

// GetByAggregateID retrieves all events for one transfer in creation order
func (r *OutboxRepository) GetByAggregateID(ctx context.Context, aggregateID string) ([]*outbox.Event, error) {
	query := `
		SELECT id, aggregate_id, event_type, destination_topic, routing_key, payload, processed, retry_count, created_at, processed_at
		FROM outbox_events
		WHERE aggregate_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, aggregateID)
	if err != nil {
		r.logger.Error("Failed to get outbox events by aggregate ID",
			"aggregate_id", aggregateID,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get outbox events by aggregate ID: %w", err)
	}
	defer rows.Close()

	var events []*outbox.Event
	for rows.Next() {
		var event outbox.Event
		err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.EventType,
			&event.DestinationTopic,
			&event.RoutingKey,
			&event.Payload,
			&event.Processed,
			&event.RetryCount,
			&event.CreatedAt,
			&event.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over outbox events: %w", err)
	}

	return events, nil
}
