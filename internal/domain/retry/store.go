// Package retry tracks per-message delivery attempts durably, so a consumer
// restart cannot reset a message's retry budget.
package retry

import (
	"context"
	"time"
)

// Attempt is the durable retry counter for one message coordinate within
// one consumer group. Groups over the same topic fail independently, so the
// group is part of the key.
type Attempt struct {
	GroupID   string    `json:"group_id"`
	Topic     string    `json:"topic"`
	Partition int       `json:"partition"`
	Offset    int64     `json:"offset"`
	Attempts  int       `json:"attempts"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists attempt counters. Get returns 0 for an unseen message.
// Clear is called after the message is acknowledged, on success or after
// dead-lettering.
type Store interface {
	Get(ctx context.Context, groupID, topic string, partition int, offset int64) (int, error)
	Increment(ctx context.Context, groupID, topic string, partition int, offset int64) (int, error)
	Clear(ctx context.Context, groupID, topic string, partition int, offset int64) error
}
