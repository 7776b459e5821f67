// Package audit defines the read-only trail written by the audit consumer
// group. Entries are observations of saga topic traffic, never inputs to it.
package audit

import (
	"time"

	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// Entry records one transfer event as observed on a saga topic
type Entry struct {
	Topic      string          `json:"topic" bson:"topic"`
	Partition  int             `json:"partition" bson:"partition"`
	Offset     int64           `json:"offset" bson:"offset"`
	TransferID string          `json:"transfer_id" bson:"transfer_id"`
	Status     transfer.Status `json:"status" bson:"status"`
	Event      transfer.Event  `json:"event" bson:"event"`
	ObservedAt time.Time       `json:"observed_at" bson:"observed_at"`
}

// NewEntry builds an audit entry for an event read from topic/partition/offset
func NewEntry(topic string, partition int, offset int64, event transfer.Event) *Entry {
	return &Entry{
		Topic:      topic,
		Partition:  partition,
		Offset:     offset,
		TransferID: event.TransferID,
		Status:     event.Status,
		Event:      event,
		ObservedAt: time.Now().UTC(),
	}
}
