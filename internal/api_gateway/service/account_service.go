package service

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/banking-transfer-saga/internal/domain/account"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	logger      *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(logger *slog.Logger, accountRepo account.Repository) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		logger:      logger,
	}
}

// CreateAccount opens a new active account. Account-number uniqueness is
// enforced by the store, so a concurrent duplicate still surfaces as
// account.ErrDuplicateAccount.
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, accountNumber, ownerName string, openingBalance decimal.Decimal) (*account.Account, error) {
	acc, err := account.NewAccount(accountNumber, ownerName, openingBalance)
	if err != nil {
		return nil, err
	}

	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account created",
		"account_number", acc.AccountNumber,
		"opening_balance", acc.Balance.String(),
	)
	return acc, nil
}

// GetAccountByNumber retrieves an account, returning
// account.ErrAccountNotFound if it doesn't exist
func (s *AccountServiceImpl) GetAccountByNumber(ctx context.Context, accountNumber string) (*account.Account, error) {
	return s.accountRepo.GetByNumber(ctx, accountNumber)
}
