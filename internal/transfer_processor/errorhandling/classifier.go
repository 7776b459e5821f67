package errorhandling

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/banking-transfer-saga/internal/domain/account"
	"github.com/banking-transfer-saga/internal/domain/outbox"
	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// Classifier maps processing errors to categories. Typed domain and driver
// errors are matched first; string heuristics are the fallback for errors
// that arrive without a usable type.
type Classifier struct{}

func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify determines the error category for a processing failure
func (c *Classifier) Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	if isBusinessValidation(err) {
		return CategoryBusinessValidation
	}
	if isDeserialization(err) {
		return CategoryDeserialization
	}
	if isTechnicalTransient(err) {
		return CategoryTechnicalTransient
	}

	// Fallback heuristics for errors without a usable type
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "json"),
		strings.Contains(msg, "deserialize"),
		strings.Contains(msg, "unmarshal"),
		strings.Contains(msg, "parse"):
		return CategoryDeserialization
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "connection"),
		strings.Contains(msg, "unavailable"),
		strings.Contains(msg, "lock"):
		return CategoryTechnicalTransient
	}

	return CategoryUnknown
}

// ShouldRetry reports whether the message deserves another delivery given
// how many retries it has already consumed.
func (c *Classifier) ShouldRetry(err error, attempt int) bool {
	category := c.Classify(err)
	return attempt < category.MaxRetries()
}

func isBusinessValidation(err error) bool {
	var (
		notFound     account.ErrAccountNotFound
		insufficient account.ErrInsufficientFunds
		invalidAcc   account.ErrInvalidAccount
		trNotFound   transfer.ErrTransferNotFound
		badState     transfer.ErrInvalidTransition
	)
	return errors.As(err, &notFound) ||
		errors.As(err, &insufficient) ||
		errors.As(err, &invalidAcc) ||
		errors.As(err, &trNotFound) ||
		errors.As(err, &badState) ||
		errors.Is(err, transfer.ErrInvalidAmount) ||
		errors.Is(err, transfer.ErrMissingAccount) ||
		errors.Is(err, transfer.ErrSameAccount) ||
		errors.Is(err, account.ErrInvalidAmount)
}

func isDeserialization(err error) bool {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		serErr    outbox.ErrSerialization
	)
	return errors.As(err, &syntaxErr) ||
		errors.As(err, &typeErr) ||
		errors.As(err, &serErr)
}

func isTechnicalTransient(err error) bool {
	// Optimistic lock conflicts resolve on a later attempt
	var (
		trConflict  transfer.ErrConcurrentModification
		accConflict account.ErrConcurrentModification
	)
	if errors.As(err, &trConflict) || errors.As(err, &accConflict) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Connection exceptions, transaction rollbacks (deadlocks),
		// resource exhaustion and lock timeouts.
		switch {
		case strings.HasPrefix(pgErr.Code, "08"),
			strings.HasPrefix(pgErr.Code, "40"),
			strings.HasPrefix(pgErr.Code, "53"),
			pgErr.Code == "55P03", // lock_not_available
			pgErr.Code == "57014": // query_canceled
			return true
		}
	}

	return false
}
