package account

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrEmptyOwnerName = errors.New("owner name cannot be empty")
	ErrEmptyNumber    = errors.New("account number cannot be empty")
)

// ErrAccountNotFound indicates a missing account
type ErrAccountNotFound struct {
	AccountNumber string
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountNumber
}

// ErrInsufficientFunds indicates a withdrawal exceeding the balance
type ErrInsufficientFunds struct {
	AccountNumber string
	Balance       decimal.Decimal
	Requested     decimal.Decimal
}

func (e ErrInsufficientFunds) Error() string {
	return "insufficient funds on account " + e.AccountNumber +
		": balance " + e.Balance.String() + ", requested " + e.Requested.String()
}

// ErrInvalidAccount indicates an account unusable for transfers
// (inactive, or equal to its counterparty)
type ErrInvalidAccount struct {
	AccountNumber string
	Reason        string
}

func (e ErrInvalidAccount) Error() string {
	return "invalid account " + e.AccountNumber + ": " + e.Reason
}

// Account is a balance holder. Balance never goes negative; mutation during
// execution happens only under a pessimistic row lock.
type Account struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"account_number"`
	OwnerName     string          `json:"owner_name"`
	Balance       decimal.Decimal `json:"balance"`
	Active        bool            `json:"active"`
	Version       int             `json:"version"` // For optimistic locking
	CreatedAt     time.Time       `json:"created_at"`
}

// NewAccount creates an active account with the given opening balance
func NewAccount(accountNumber, ownerName string, openingBalance decimal.Decimal) (*Account, error) {
	if accountNumber == "" {
		return nil, ErrEmptyNumber
	}
	if ownerName == "" {
		return nil, ErrEmptyOwnerName
	}
	if openingBalance.IsNegative() {
		return nil, ErrInvalidAmount
	}

	return &Account{
		AccountNumber: accountNumber,
		OwnerName:     ownerName,
		Balance:       openingBalance,
		Active:        true,
		Version:       1,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// Deposit adds the specified amount to the account balance
func (a *Account) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	a.Balance = a.Balance.Add(amount)
	a.Version++
	return nil
}

// Withdraw subtracts the specified amount from the account balance.
// On insufficient funds nothing is mutated.
func (a *Account) Withdraw(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds{
			AccountNumber: a.AccountNumber,
			Balance:       a.Balance,
			Requested:     amount,
		}
	}

	a.Balance = a.Balance.Sub(amount)
	a.Version++
	return nil
}

// CanWithdraw checks if the account has sufficient funds for a withdrawal
func (a *Account) CanWithdraw(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}
