package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/banking-transfer-saga/internal/domain/account"
	"github.com/banking-transfer-saga/internal/domain/outbox"
	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount opens a new active account with the given opening balance.
	// Returns account.ErrDuplicateAccount if the account number is taken.
	CreateAccount(ctx context.Context, accountNumber, ownerName string, openingBalance decimal.Decimal) (*account.Account, error)

	// GetAccountByNumber retrieves an account by its account number.
	// Returns account.ErrAccountNotFound if it doesn't exist.
	GetAccountByNumber(ctx context.Context, accountNumber string) (*account.Account, error)
}

// TransferService defines the interface for transfer operations
type TransferService interface {
	// CreateTransfer records a PENDING transfer and its TransferCreated
	// event in one transaction. The saga picks it up from there.
	CreateTransfer(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal, description string) (*transfer.Transfer, error)

	// GetTransferByID retrieves a transfer snapshot by its transfer ID.
	// Returns transfer.ErrTransferNotFound if it doesn't exist.
	GetTransferByID(ctx context.Context, transferID uuid.UUID) (*transfer.Transfer, error)

	// GetTransferEvents lists the outbox events recorded for a transfer,
	// oldest first. Useful for tracing a transfer through the pipeline.
	GetTransferEvents(ctx context.Context, transferID uuid.UUID) ([]*outbox.Event, error)
}

// TxRunner runs a function inside one database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}
