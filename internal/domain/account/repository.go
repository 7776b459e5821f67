package account

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByNumber(ctx context.Context, accountNumber string) (*Account, error)

	// Update persists the account using an optimistic version check
	Update(ctx context.Context, account *Account) error

	// LockForUpdate acquires a pessimistic row lock for the execute stage.
	// Callers locking two accounts must lock in ascending account-number
	// order to avoid deadlock.
	LockForUpdate(ctx context.Context, accountNumber string) (*Account, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountNumber string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for account: " + e.AccountNumber
}

// ErrDuplicateAccount indicates account-number uniqueness violation
type ErrDuplicateAccount struct {
	AccountNumber string
}

func (e ErrDuplicateAccount) Error() string {
	return "account already exists: " + e.AccountNumber
}
