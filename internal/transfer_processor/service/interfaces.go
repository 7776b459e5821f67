package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// TxRunner runs a function inside a database transaction, rolling back on
// error or panic. Satisfied by *persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// ValidationService runs the business-rule stage of the pipeline
type ValidationService interface {
	Validate(ctx context.Context, event transfer.Event) error
}

// ExecutionService runs the money-movement stage of the pipeline
type ExecutionService interface {
	Execute(ctx context.Context, event transfer.Event) error
}

// NotificationDispatcher fans completed-transfer notifications out to both
// parties of a transfer.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, event transfer.Event) error
	Shutdown()
}

// Notifier delivers a single notification to one account holder
type Notifier interface {
	Send(ctx context.Context, accountNumber string, message string, event transfer.Event) error
}
