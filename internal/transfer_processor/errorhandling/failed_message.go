package errorhandling

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/segmentio/kafka-go"
)

// FailedMessage is the dead-letter payload: the original message plus
// everything needed to diagnose and replay it later.
type FailedMessage struct {
	OriginalTopic     string            `json:"originalTopic"`
	OriginalPartition int               `json:"originalPartition"`
	OriginalOffset    int64             `json:"originalOffset"`
	OriginalKey       string            `json:"originalKey"`
	OriginalValue     string            `json:"originalValue"`
	ExceptionType     string            `json:"exceptionType"`
	ExceptionMessage  string            `json:"exceptionMessage"`
	StackTrace        string            `json:"stackTrace"`
	AttemptCount      int               `json:"attemptCount"`
	FailedAt          time.Time         `json:"failedAt"`
	ConsumerGroupID   string            `json:"consumerGroupId"`
	Headers           map[string]string `json:"headers,omitempty"`
	ErrorCategory     Category          `json:"errorCategory"`
	Retryable         bool              `json:"retryable"`
}

// NewFailedMessage captures a poison message at the point of exhaustion.
// attemptCount is the total number of deliveries, including the first.
func NewFailedMessage(msg kafka.Message, procErr error, attemptCount int, groupID string, category Category) *FailedMessage {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}

	return &FailedMessage{
		OriginalTopic:     msg.Topic,
		OriginalPartition: msg.Partition,
		OriginalOffset:    msg.Offset,
		OriginalKey:       string(msg.Key),
		OriginalValue:     string(msg.Value),
		ExceptionType:     fmt.Sprintf("%T", procErr),
		ExceptionMessage:  procErr.Error(),
		StackTrace:        string(debug.Stack()),
		AttemptCount:      attemptCount,
		FailedAt:          time.Now().UTC(),
		ConsumerGroupID:   groupID,
		Headers:           headers,
		ErrorCategory:     category,
		Retryable:         category.AutoRetryFromDLT(),
	}
}
