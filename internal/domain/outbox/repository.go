package outbox

import (
	"context"
	"strconv"

	"github.com/jackc/pgx/v5"
)

// Repository manages transactional outbox event persistence
type Repository interface {
	// Create must run on the caller's transaction (via WithTx) so the event
	// commits atomically with the state change it announces.
	Create(ctx context.Context, event *Event) error

	// GetPending returns up to limit unprocessed events in creation order.
	GetPending(ctx context.Context, limit int) ([]*Event, error)

	// MarkProcessed flips processed and stamps processed_at.
	MarkProcessed(ctx context.Context, id int64) error

	// IncrementRetryCount bumps retry_count, leaving the event pending.
	IncrementRetryCount(ctx context.Context, id int64) error

	// CountPending returns the number of unprocessed events (relay lag).
	CountPending(ctx context.Context) (int64, error)

	GetByAggregateID(ctx context.Context, aggregateID string) ([]*Event, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrEventNotFound indicates a missing outbox event
type ErrEventNotFound struct {
	ID int64
}

func (e ErrEventNotFound) Error() string {
	return "outbox event not found: " + strconv.FormatInt(e.ID, 10)
}
