package outbox

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is a durable publication intent recorded in the same transaction as
// the state change it announces. Rows are appended, never mutated except to
// flip processed and bump retry_count, and never deleted by the core.
type Event struct {
	ID               int64           `json:"id"`
	AggregateID      string          `json:"aggregate_id"` // transferId
	EventType        string          `json:"event_type"`
	DestinationTopic string          `json:"destination_topic"`
	RoutingKey       string          `json:"routing_key"` // Kafka partition key
	Payload          json.RawMessage `json:"payload"`
	Processed        bool            `json:"processed"`
	RetryCount       int             `json:"retry_count"`
	CreatedAt        time.Time       `json:"created_at"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
}

// ErrSerialization indicates the payload could not be encoded. A failure
// here must abort the enclosing transaction.
type ErrSerialization struct {
	AggregateID string
	Cause       error
}

func (e ErrSerialization) Error() string {
	return fmt.Sprintf("failed to serialize outbox payload for aggregate %s: %v", e.AggregateID, e.Cause)
}

func (e ErrSerialization) Unwrap() error {
	return e.Cause
}

// NewEvent serializes the payload and builds a pending event.
func NewEvent(aggregateID, eventType, destinationTopic, routingKey string, payload interface{}) (*Event, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, ErrSerialization{AggregateID: aggregateID, Cause: err}
	}

	return &Event{
		AggregateID:      aggregateID,
		EventType:        eventType,
		DestinationTopic: destinationTopic,
		RoutingKey:       routingKey,
		Payload:          encoded,
		Processed:        false,
		RetryCount:       0,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// MarkProcessed records a positive broker acknowledgment.
func (e *Event) MarkProcessed() {
	e.Processed = true
	now := time.Now().UTC()
	e.ProcessedAt = &now
}

// IncrementRetryCount records a failed publish attempt; the event stays
// pending for the next relay cycle.
func (e *Event) IncrementRetryCount() {
	e.RetryCount++
}
