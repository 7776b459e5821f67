// Package errorhandling implements the failure policy for the transfer
// pipeline: errors are classified into categories, each category carries a
// retry budget, and messages that exhaust their budget are captured and
// routed to a dead-letter topic.
package errorhandling

import "time"

// Category describes a class of processing failure and its retry policy
type Category string

const (
	// CategoryBusinessValidation covers domain-rule rejections. Retrying
	// cannot change the outcome, so the message dead-letters immediately.
	CategoryBusinessValidation Category = "BUSINESS_VALIDATION"

	// CategoryDeserialization covers malformed payloads. The bytes will
	// never parse differently, so the message dead-letters immediately.
	CategoryDeserialization Category = "DESERIALIZATION"

	// CategoryTechnicalTransient covers infrastructure hiccups that are
	// expected to clear: connection drops, timeouts, lock contention.
	CategoryTechnicalTransient Category = "TECHNICAL_TRANSIENT"

	// CategoryUnknown is the fallback for unclassified errors. One
	// cautious retry before dead-lettering.
	CategoryUnknown Category = "UNKNOWN"
)

type categoryPolicy struct {
	maxRetries       int
	initialDelay     time.Duration
	exponential      bool
	autoRetryFromDLT bool
	description      string
}

var policies = map[Category]categoryPolicy{
	CategoryBusinessValidation: {
		maxRetries:       0,
		initialDelay:     0,
		exponential:      false,
		autoRetryFromDLT: false,
		description:      "Business rule violation, not retryable",
	},
	CategoryDeserialization: {
		maxRetries:       0,
		initialDelay:     0,
		exponential:      false,
		autoRetryFromDLT: false,
		description:      "Message deserialization failure, not retryable",
	},
	CategoryTechnicalTransient: {
		maxRetries:       5,
		initialDelay:     time.Second,
		exponential:      true,
		autoRetryFromDLT: true,
		description:      "Transient technical failure, retryable with backoff",
	},
	CategoryUnknown: {
		maxRetries:       1,
		initialDelay:     500 * time.Millisecond,
		exponential:      false,
		autoRetryFromDLT: false,
		description:      "Unclassified failure, single cautious retry",
	},
}

// MaxRetries returns how many retries the category allows beyond the
// initial attempt.
func (c Category) MaxRetries() int {
	return policies[c].maxRetries
}

// Retryable reports whether the category allows any retries at all
func (c Category) Retryable() bool {
	return policies[c].maxRetries > 0
}

// AutoRetryFromDLT reports whether dead-lettered messages of this category
// are safe to replay automatically.
func (c Category) AutoRetryFromDLT() bool {
	return policies[c].autoRetryFromDLT
}

// Description returns a human-readable summary of the category's policy
func (c Category) Description() string {
	return policies[c].description
}

// RetryDelay returns how long to wait before the given retry attempt.
// Attempt counting starts at zero: for exponential categories the delay
// doubles each attempt (1s, 2s, 4s, 8s, 16s), otherwise it is constant.
func (c Category) RetryDelay(attempt int) time.Duration {
	p := policies[c]
	if p.initialDelay == 0 {
		return 0
	}
	if !p.exponential {
		return p.initialDelay
	}
	delay := p.initialDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
	}
	return delay
}
