package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/banking-transfer-saga/internal/domain/retry"
	"github.com/banking-transfer-saga/internal/platform/persistence"
)

// AttemptRepository implements retry.Store on PostgreSQL. Attempt counts
// survive process restarts, so a consumer that crashes mid-retry resumes
// with an accurate count instead of starting over.
type AttemptRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewAttemptRepository creates a new PostgreSQL processing attempt store
func NewAttemptRepository(logger *slog.Logger, db *persistence.PostgresDB) retry.Store {
	return &AttemptRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Get returns the recorded attempt count for a message coordinate, or zero
// when the message has never failed before.
func (r *AttemptRepository) Get(ctx context.Context, groupID, topic string, partition int, offset int64) (int, error) {
	query := `
		SELECT attempt_count
		FROM processing_attempts
		WHERE group_id = $1 AND topic = $2 AND partition = $3 AND kafka_offset = $4
	`

	var count int
	err := r.querier.QueryRow(ctx, query, groupID, topic, partition, offset).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		r.logger.Error("Failed to get processing attempt count",
			"group_id", groupID,
			"topic", topic,
			"partition", partition,
			"offset", offset,
			"error", err,
		)
		return 0, fmt.Errorf("failed to get processing attempt count: %w", err)
	}

	return count, nil
}

// Increment records one more failed attempt and returns the new count
func (r *AttemptRepository) Increment(ctx context.Context, groupID, topic string, partition int, offset int64) (int, error) {
	query := `
		INSERT INTO processing_attempts (group_id, topic, partition, kafka_offset, attempt_count, last_attempt_at)
		VALUES ($1, $2, $3, $4, 1, NOW())
		ON CONFLICT (group_id, topic, partition, kafka_offset)
		DO UPDATE SET attempt_count = processing_attempts.attempt_count + 1, last_attempt_at = NOW()
		RETURNING attempt_count
	`

	var count int
	if err := r.querier.QueryRow(ctx, query, groupID, topic, partition, offset).Scan(&count); err != nil {
		r.logger.Error("Failed to increment processing attempt count",
			"group_id", groupID,
			"topic", topic,
			"partition", partition,
			"offset", offset,
			"error", err,
		)
		return 0, fmt.Errorf("failed to increment processing attempt count: %w", err)
	}

	return count, nil
}

// Clear removes the attempt record once the message is acknowledged
func (r *AttemptRepository) Clear(ctx context.Context, groupID, topic string, partition int, offset int64) error {
	query := `
		DELETE FROM processing_attempts
		WHERE group_id = $1 AND topic = $2 AND partition = $3 AND kafka_offset = $4
	`

	if _, err := r.querier.Exec(ctx, query, groupID, topic, partition, offset); err != nil {
		r.logger.Error("Failed to clear processing attempt record",
			"group_id", groupID,
			"topic", topic,
			"partition", partition,
			"offset", offset,
			"error", err,
		)
		return fmt.Errorf("failed to clear processing attempt record: %w", err)
	}

	return nil
}
