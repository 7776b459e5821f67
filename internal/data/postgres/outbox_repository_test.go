package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banking-transfer-saga/internal/domain/outbox"
)

func TestOutboxRepository_Create(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	event := &outbox.Event{
		AggregateID:      "5f0c4f9e-2a3f-4c0b-a9a5-0e6f5cbe0001",
		EventType:        "TransferCreated",
		DestinationTopic: "transfer-validation",
		RoutingKey:       "5f0c4f9e-2a3f-4c0b-a9a5-0e6f5cbe0001",
		Payload:          json.RawMessage(`{"transferId":"5f0c4f9e-2a3f-4c0b-a9a5-0e6f5cbe0001"}`),
		Processed:        false,
		RetryCount:       0,
		CreatedAt:        time.Now(),
	}

	query := `
		INSERT INTO outbox_events \(aggregate_id, event_type, destination_topic, routing_key, payload, processed, retry_count, created_at\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8\)
		RETURNING id
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(event.AggregateID, event.EventType, event.DestinationTopic, event.RoutingKey, event.Payload, event.Processed, event.RetryCount, event.CreatedAt).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

		err := repo.Create(ctx, event)
		assert.NoError(t, err)
		assert.Equal(t, int64(42), event.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectQuery(query).
			WithArgs(event.AggregateID, event.EventType, event.DestinationTopic, event.RoutingKey, event.Payload, event.Processed, event.RetryCount, event.CreatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create outbox event")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	now := time.Now()

	query := `
		SELECT id, aggregate_id, event_type, destination_topic, routing_key, payload, processed, retry_count, created_at, processed_at
		FROM outbox_events
		WHERE processed = FALSE
		ORDER BY created_at ASC
		LIMIT \$1
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "aggregate_id", "event_type", "destination_topic", "routing_key", "payload", "processed", "retry_count", "created_at", "processed_at"}).
			AddRow(int64(1), "tx-1", "TransferCreated", "transfer-validation", "tx-1", json.RawMessage(`{}`), false, 0, now, (*time.Time)(nil)).
			AddRow(int64(2), "tx-2", "TransferValidated", "transfer-execution", "tx-2", json.RawMessage(`{}`), false, 1, now.Add(time.Second), (*time.Time)(nil))
		mock.ExpectQuery(query).WithArgs(100).WillReturnRows(rows)

		events, err := repo.GetPending(ctx, 100)
		assert.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, int64(1), events[0].ID)
		assert.Equal(t, "transfer-validation", events[0].DestinationTopic)
		assert.Equal(t, int64(2), events[1].ID)
		assert.Equal(t, 1, events[1].RetryCount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty batch", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "aggregate_id", "event_type", "destination_topic", "routing_key", "payload", "processed", "retry_count", "created_at", "processed_at"})
		mock.ExpectQuery(query).WithArgs(100).WillReturnRows(rows)

		events, err := repo.GetPending(ctx, 100)
		assert.NoError(t, err)
		assert.Empty(t, events)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectQuery(query).WithArgs(100).WillReturnError(expectedErr)

		events, err := repo.GetPending(ctx, 100)
		assert.Error(t, err)
		assert.Nil(t, events)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_MarkProcessed(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
		UPDATE outbox_events
		SET processed = TRUE, processed_at = \$1
		WHERE id = \$2
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(42)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.MarkProcessed(ctx, 42)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(pgxmock.AnyArg(), int64(99)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.MarkProcessed(ctx, 99)
		assert.Error(t, err)
		var notFoundErr outbox.ErrEventNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, int64(99), notFoundErr.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_IncrementRetryCount(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
		UPDATE outbox_events
		SET retry_count = retry_count \+ 1
		WHERE id = \$1
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(int64(42)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.IncrementRetryCount(ctx, 42)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(int64(99)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.IncrementRetryCount(ctx, 99)
		assert.Error(t, err)
		var notFoundErr outbox.ErrEventNotFound
		assert.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_CountPending(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}

	query := `
		SELECT COUNT\(\*\)
		FROM outbox_events
		WHERE processed = FALSE
	`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(17)))

		count, err := repo.CountPending(ctx)
		assert.NoError(t, err)
		assert.Equal(t, int64(17), count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectQuery(query).WillReturnError(expectedErr)

		count, err := repo.CountPending(ctx)
		assert.Error(t, err)
		assert.Zero(t, count)
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOutboxRepository_GetByAggregateID(t *testing.T) {
	ctx := context.Background()
	logger := newTestLogger()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &OutboxRepository{querier: mock, logger: logger}
	now := time.Now()
	processedAt := now.Add(time.Second)

	query := `
		SELECT id, aggregate_id, event_type, destination_topic, routing_key, payload, processed, retry_count, created_at, processed_at
		FROM outbox_events
		WHERE aggregate_id = \$1
		ORDER BY created_at ASC
	`

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows([]string{"id", "aggregate_id", "event_type", "destination_topic", "routing_key", "payload", "processed", "retry_count", "created_at", "processed_at"}).
			AddRow(int64(1), "tx-1", "TransferCreated", "transfer-validation", "tx-1", json.RawMessage(`{}`), true, 0, now, &processedAt).
			AddRow(int64(3), "tx-1", "TransferValidated", "transfer-execution", "tx-1", json.RawMessage(`{}`), false, 0, now.Add(2*time.Second), (*time.Time)(nil))
		mock.ExpectQuery(query).WithArgs("tx-1").WillReturnRows(rows)

		events, err := repo.GetByAggregateID(ctx, "tx-1")
		assert.NoError(t, err)
		require.Len(t, events, 2)
		assert.True(t, events[0].Processed)
		assert.False(t, events[1].Processed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
