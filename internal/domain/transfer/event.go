package transfer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types written to the outbox as each stage commits
const (
	EventTypeCreated   = "TransferCreated"
	EventTypeValidated = "TransferValidated"
	EventTypeCompleted = "TransferCompleted"
)

// Event is the message published for every stage transition. It is a
// snapshot of the transfer at the moment of the transition. Stage topics
// are keyed on the originating account so one account's transfers stay on
// one partition; the completed topic is keyed on the transfer id.
type Event struct {
	TransferID  string          `json:"transferId"`
	FromAccount string          `json:"fromAccount"`
	ToAccount   string          `json:"toAccount"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Status      Status          `json:"status"`
	Timestamp   time.Time       `json:"timestamp"`
}

// EventFrom snapshots a transfer into its wire representation.
func EventFrom(t *Transfer) Event {
	return Event{
		TransferID:  t.TransferID.String(),
		FromAccount: t.FromAccount,
		ToAccount:   t.ToAccount,
		Amount:      t.Amount,
		Description: t.Description,
		Status:      t.Status,
		Timestamp:   time.Now().UTC(),
	}
}
