package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/banking-transfer-saga/internal/api_gateway/service"
	"github.com/banking-transfer-saga/internal/domain/account"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create handles opening of a new account
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.AccountNumber, req.OwnerName, req.OpeningBalance)
	if err != nil {
		var duplicateErr account.ErrDuplicateAccount
		switch {
		case errors.As(err, &duplicateErr):
			h.logger.Warn("Attempt to create duplicate account", "account_number", duplicateErr.AccountNumber)
			RespondConflict(c, "Account with this number already exists")
		case errors.Is(err, account.ErrInvalidAmount),
			errors.Is(err, account.ErrEmptyOwnerName),
			errors.Is(err, account.ErrEmptyNumber):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create account", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetByNumber retrieves an account by its account number, returning 404 if not found
func (h *AccountHandler) GetByNumber(c *gin.Context) {
	accountNumber := c.Param("number")

	acc, err := h.accountService.GetAccountByNumber(c.Request.Context(), accountNumber)
	if err != nil {
		var notFoundErr account.ErrAccountNotFound
		if errors.As(err, &notFoundErr) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "account_number", accountNumber, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// mapAccountToResponse maps an account entity to an account response DTO
func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		AccountNumber: acc.AccountNumber,
		OwnerName:     acc.OwnerName,
		Balance:       acc.Balance.String(),
		Active:        acc.Active,
		CreatedAt:     acc.CreatedAt.Format(time.RFC3339),
	}
}
