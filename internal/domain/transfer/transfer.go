package transfer

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidAmount  = errors.New("transfer amount must be positive")
	ErrMissingAccount = errors.New("source and destination accounts are required")
	ErrSameAccount    = errors.New("source and destination accounts must be different")
)

// ErrTransferNotFound indicates a message referenced a transfer that was
// never durably created
type ErrTransferNotFound struct {
	TransferID uuid.UUID
}

func (e ErrTransferNotFound) Error() string {
	return "transfer not found: " + e.TransferID.String()
}

// ErrInvalidTransition indicates a requested state change outside the
// transition graph
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e ErrInvalidTransition) Error() string {
	return "invalid transfer transition: " + string(e.From) + " -> " + string(e.To)
}

// Transfer represents one money movement through the saga pipeline.
// TransferID is the idempotency key, assigned once at creation.
type Transfer struct {
	ID            int64           `json:"id"`
	TransferID    uuid.UUID       `json:"transfer_id"`
	FromAccount   string          `json:"from_account"`
	ToAccount     string          `json:"to_account"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Status        Status          `json:"status"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ProcessedAt   *time.Time      `json:"processed_at,omitempty"`
	Version       int             `json:"version"` // For optimistic locking
}

// NewTransfer creates a PENDING transfer with a fresh idempotency key.
// The from != to rule is deliberately not checked here; it is a validation
// stage rule so bad requests are still recorded and traceable.
func NewTransfer(fromAccount, toAccount string, amount decimal.Decimal, description string) (*Transfer, error) {
	if fromAccount == "" || toAccount == "" {
		return nil, ErrMissingAccount
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	return &Transfer{
		TransferID:  uuid.New(),
		FromAccount: fromAccount,
		ToAccount:   toAccount,
		Amount:      amount,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
		Version:     1,
	}, nil
}

// Advance moves the transfer to target if the transition graph allows it.
// The caller commits the mutation alongside an outbox write.
func (t *Transfer) Advance(target Status) error {
	if !CanTransition(t.Status, target) {
		return ErrInvalidTransition{From: t.Status, To: target}
	}

	t.Status = target
	t.Version++
	if target == StatusCompleted {
		now := time.Now().UTC()
		t.ProcessedAt = &now
	}
	return nil
}

// Fail marks the transfer FAILED with a human-readable reason.
func (t *Transfer) Fail(reason string) error {
	if err := t.Advance(StatusFailed); err != nil {
		return err
	}
	t.FailureReason = reason
	now := time.Now().UTC()
	t.ProcessedAt = &now
	return nil
}
