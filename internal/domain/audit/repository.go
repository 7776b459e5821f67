package audit

import (
	"context"
	"time"
)

// Repository manages audit entry persistence with pagination support
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByTransferID(ctx context.Context, transferID string) ([]*Entry, error)
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*Entry, error)
	CountByTopic(ctx context.Context, topic string) (int64, error)
}
