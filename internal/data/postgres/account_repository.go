package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/banking-transfer-saga/internal/domain/account"
	"github.com/banking-transfer-saga/internal/platform/persistence"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
// It expects db.Pool() to satisfy persistence.Querier.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB) account.Repository {
	return &AccountRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction, allowing for atomic
// operations across multiple repository calls. The returned repository will
// use the provided transaction for all database operations.
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new account. Returns ErrDuplicateAccount if the account
// number is already taken.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (account_number, owner_name, balance, active, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.querier.QueryRow(ctx, query,
		acc.AccountNumber,
		acc.OwnerName,
		acc.Balance,
		acc.Active,
		acc.Version,
		acc.CreatedAt,
	).Scan(&acc.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return account.ErrDuplicateAccount{AccountNumber: acc.AccountNumber}
		}
		r.logger.Error("Failed to create account", "account_number", acc.AccountNumber, "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByNumber retrieves an account by its account number
func (r *AccountRepository) GetByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	query := `
		SELECT id, account_number, owner_name, balance, active, version, created_at
		FROM accounts
		WHERE account_number = $1
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, accountNumber).Scan(
		&acc.ID,
		&acc.AccountNumber,
		&acc.OwnerName,
		&acc.Balance,
		&acc.Active,
		&acc.Version,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountNumber: accountNumber}
		}
		r.logger.Error("Failed to get account", "account_number", accountNumber, "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &acc, nil
}

// Update updates an existing account using an optimistic version check
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	query := `
		UPDATE accounts
		SET owner_name = $1, balance = $2, active = $3, version = $4
		WHERE account_number = $5 AND version = $6
	`

	result, err := r.querier.Exec(ctx, query,
		acc.OwnerName,
		acc.Balance,
		acc.Active,
		acc.Version,
		acc.AccountNumber,
		acc.Version-1, // Check previous version for optimistic locking
	)
	if err != nil {
		r.logger.Error("Failed to update account", "account_number", acc.AccountNumber, "error", err)
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrConcurrentModification{AccountNumber: acc.AccountNumber}
	}

	return nil
}

// LockForUpdate obtains a pessimistic lock on the account and returns its
// current state. Must be used within a transaction; when locking two
// accounts, lock in ascending account-number order.
func (r *AccountRepository) LockForUpdate(ctx context.Context, accountNumber string) (*account.Account, error) {
	query := `
		SELECT id, account_number, owner_name, balance, active, version, created_at
		FROM accounts
		WHERE account_number = $1
		FOR UPDATE
	`

	var acc account.Account
	err := r.querier.QueryRow(ctx, query, accountNumber).Scan(
		&acc.ID,
		&acc.AccountNumber,
		&acc.OwnerName,
		&acc.Balance,
		&acc.Active,
		&acc.Version,
		&acc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountNumber: accountNumber}
		}
		r.logger.Error("Failed to lock account", "account_number", accountNumber, "error", err)
		return nil, fmt.Errorf("failed to lock account: %w", err)
	}

	return &acc, nil
}
