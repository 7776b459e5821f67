package handler

import "github.com/shopspring/decimal"

// CreateAccountRequest represents a request to open a new account
type CreateAccountRequest struct {
	AccountNumber  string          `json:"account_number" binding:"required"`
	OwnerName      string          `json:"owner_name" binding:"required"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	AccountNumber string `json:"account_number"`
	OwnerName     string `json:"owner_name"`
	Balance       string `json:"balance"`
	Active        bool   `json:"active"`
	CreatedAt     string `json:"created_at"`
}

// CreateTransferRequest represents a request to start a money transfer
type CreateTransferRequest struct {
	FromAccount string          `json:"from_account" binding:"required"`
	ToAccount   string          `json:"to_account" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// TransferResponse represents a transfer snapshot in API responses
type TransferResponse struct {
	TransferID    string `json:"transfer_id"`
	FromAccount   string `json:"from_account"`
	ToAccount     string `json:"to_account"`
	Amount        string `json:"amount"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

// TransferEventResponse represents one outbox event of a transfer
type TransferEventResponse struct {
	EventType        string `json:"event_type"`
	DestinationTopic string `json:"destination_topic"`
	Processed        bool   `json:"processed"`
	CreatedAt        string `json:"created_at"`
	ProcessedAt      string `json:"processed_at,omitempty"`
}

// TransferEventListResponse wraps a transfer's event history
type TransferEventListResponse struct {
	TransferID string                  `json:"transfer_id"`
	Events     []TransferEventResponse `json:"events"`
}
