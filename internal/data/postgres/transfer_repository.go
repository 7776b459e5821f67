// Package postgres provides PostgreSQL implementations of the domain
// repositories. It handles all database operations while maintaining
// transaction safety and proper error handling for the transfer pipeline.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/banking-transfer-saga/internal/domain/transfer"
	"github.com/banking-transfer-saga/internal/platform/persistence"
)

// TransferRepository implements the transfer.Repository interface for PostgreSQL
type TransferRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransferRepository creates a new PostgreSQL transfer repository
func NewTransferRepository(logger *slog.Logger, db *persistence.PostgresDB) transfer.Repository {
	return &TransferRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing the status write
// and the outbox append to commit atomically.
func (r *TransferRepository) WithTx(tx pgx.Tx) transfer.Repository {
	return &TransferRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new transfer in PENDING status
func (r *TransferRepository) Create(ctx context.Context, t *transfer.Transfer) error {
	query := `
		INSERT INTO transfers (transfer_id, from_account, to_account, amount, description, status, failure_reason, created_at, processed_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		t.TransferID,
		t.FromAccount,
		t.ToAccount,
		t.Amount,
		t.Description,
		t.Status,
		nullable(t.FailureReason),
		t.CreatedAt,
		t.ProcessedAt,
		t.Version,
	).Scan(&t.ID)

	if err != nil {
		r.logger.Error("Failed to create transfer",
			"transfer_id", t.TransferID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	return nil
}

// GetByTransferID retrieves a transfer by its idempotency key.
// Returns ErrTransferNotFound if the transfer was never durably created.
func (r *TransferRepository) GetByTransferID(ctx context.Context, transferID uuid.UUID) (*transfer.Transfer, error) {
	query := `
		SELECT id, transfer_id, from_account, to_account, amount, description, status, COALESCE(failure_reason, ''), created_at, processed_at, version
		FROM transfers
		WHERE transfer_id = $1
	`

	var t transfer.Transfer
	err := r.querier.QueryRow(ctx, query, transferID).Scan(
		&t.ID,
		&t.TransferID,
		&t.FromAccount,
		&t.ToAccount,
		&t.Amount,
		&t.Description,
		&t.Status,
		&t.FailureReason,
		&t.CreatedAt,
		&t.ProcessedAt,
		&t.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transfer.ErrTransferNotFound{TransferID: transferID}
		}
		r.logger.Error("Failed to get transfer", "transfer_id", transferID.String(), "error", err)
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}

	return &t, nil
}

// Update persists status, failure reason and processed time with an
// optimistic version check. Amount and account columns are immutable after
// creation and deliberately not part of the update.
func (r *TransferRepository) Update(ctx context.Context, t *transfer.Transfer) error {
	query := `
		UPDATE transfers
		SET status = $1, failure_reason = $2, processed_at = $3, version = $4
		WHERE transfer_id = $5 AND version = $6
	`

	result, err := r.querier.Exec(ctx, query,
		t.Status,
		nullable(t.FailureReason),
		t.ProcessedAt,
		t.Version,
		t.TransferID,
		t.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update transfer", "transfer_id", t.TransferID.String(), "error", err)
		return fmt.Errorf("failed to update transfer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transfer.ErrConcurrentModification{TransferID: t.TransferID}
	}

	return nil
}

// nullable maps an empty string to NULL for optional text columns
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
