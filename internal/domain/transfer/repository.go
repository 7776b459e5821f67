package transfer

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines transfer persistence operations
type Repository interface {
	Create(ctx context.Context, t *Transfer) error
	GetByTransferID(ctx context.Context, transferID uuid.UUID) (*Transfer, error)

	// Update persists status, failure reason and processed time using an
	// optimistic version check
	Update(ctx context.Context, t *Transfer) error
	WithTx(tx pgx.Tx) Repository
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	TransferID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for transfer: " + e.TransferID.String()
}
