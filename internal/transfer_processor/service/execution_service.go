package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/banking-transfer-saga/internal/domain/account"
	"github.com/banking-transfer-saga/internal/domain/outbox"
	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// TransferExecutionService moves the money. The debit, the credit, the
// COMPLETED transition and the TransferCompleted event all commit in one
// transaction, so the ledger can never observe half a transfer.
type TransferExecutionService struct {
	db             TxRunner
	transfers      transfer.Repository
	accounts       account.Repository
	outboxRepo     outbox.Repository
	completedTopic string
	logger         *slog.Logger
}

func NewTransferExecutionService(
	logger *slog.Logger,
	db TxRunner,
	transfers transfer.Repository,
	accounts account.Repository,
	outboxRepo outbox.Repository,
	completedTopic string,
) *TransferExecutionService {
	return &TransferExecutionService{
		db:             db,
		transfers:      transfers,
		accounts:       accounts,
		outboxRepo:     outboxRepo,
		completedTopic: completedTopic,
		logger:         logger,
	}
}

// Execute processes one TransferValidated event. A replay of an already
// completed transfer re-appends the TransferCompleted event without
// touching the balances again.
func (s *TransferExecutionService) Execute(ctx context.Context, event transfer.Event) error {
	transferID, err := uuid.Parse(event.TransferID)
	if err != nil {
		return fmt.Errorf("failed to parse transfer id %q: %w", event.TransferID, err)
	}

	t, err := s.transfers.GetByTransferID(ctx, transferID)
	if err != nil {
		return err
	}

	logger := s.logger.With("transfer_id", t.TransferID.String())

	if t.Status.AtLeast(transfer.StatusCompleted) {
		logger.Info("Transfer already completed, re-appending completed event")
		return s.appendEvent(ctx, t)
	}

	if t.Status.IsTerminal() {
		logger.Info("Transfer already in terminal state, skipping execution", "status", t.Status)
		return nil
	}

	execErr := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transfers := s.transfers.WithTx(tx)
		accounts := s.accounts.WithTx(tx)

		if err := t.Advance(transfer.StatusExecuting); err != nil {
			return err
		}
		if err := transfers.Update(ctx, t); err != nil {
			return err
		}

		from, to, err := lockPair(ctx, accounts, t.FromAccount, t.ToAccount)
		if err != nil {
			return err
		}

		if err := from.Withdraw(t.Amount); err != nil {
			return err
		}
		if err := to.Deposit(t.Amount); err != nil {
			return err
		}

		if err := accounts.Update(ctx, from); err != nil {
			return err
		}
		if err := accounts.Update(ctx, to); err != nil {
			return err
		}

		if err := t.Advance(transfer.StatusCompleted); err != nil {
			return err
		}
		if err := transfers.Update(ctx, t); err != nil {
			return err
		}

		// The completed topic is keyed by transfer id, unlike the stage
		// topics which partition by originating account.
		evt, err := outbox.NewEvent(t.TransferID.String(), transfer.EventTypeCompleted, s.completedTopic, t.TransferID.String(), transfer.EventFrom(t))
		if err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, evt)
	})
	if execErr != nil {
		// A business failure between validation and execution is a
		// final outcome, not a retryable fault: the transfer is known,
		// so record why it failed.
		if isBusinessFailure(execErr) {
			logger.Warn("Transfer failed during execution", "reason", execErr)
			s.recordFailure(ctx, transferID, execErr)
		}
		return execErr
	}

	logger.Info("Transfer executed",
		"from_account", t.FromAccount,
		"to_account", t.ToAccount,
		"amount", t.Amount.String(),
	)
	return nil
}

// lockPair locks both accounts in ascending account-number order. A fixed
// lock order across all workers prevents deadlocks between opposing
// transfers.
func lockPair(ctx context.Context, accounts account.Repository, fromNumber, toNumber string) (*account.Account, *account.Account, error) {
	first, second := fromNumber, toNumber
	if second < first {
		first, second = second, first
	}

	firstAcc, err := accounts.LockForUpdate(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	secondAcc, err := accounts.LockForUpdate(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if firstAcc.AccountNumber == fromNumber {
		return firstAcc, secondAcc, nil
	}
	return secondAcc, firstAcc, nil
}

// isBusinessFailure reports whether an execution error is a final business
// outcome for an identifiable transfer rather than a retryable fault.
func isBusinessFailure(err error) bool {
	var (
		insufficient account.ErrInsufficientFunds
		notFound     account.ErrAccountNotFound
		invalidAcc   account.ErrInvalidAccount
		badState     transfer.ErrInvalidTransition
	)
	return errors.As(err, &insufficient) ||
		errors.As(err, &notFound) ||
		errors.As(err, &invalidAcc) ||
		errors.As(err, &badState) ||
		errors.Is(err, account.ErrInvalidAmount)
}

func (s *TransferExecutionService) appendEvent(ctx context.Context, t *transfer.Transfer) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		evt, err := outbox.NewEvent(t.TransferID.String(), transfer.EventTypeCompleted, s.completedTopic, t.TransferID.String(), transfer.EventFrom(t))
		if err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, evt)
	})
}

// recordFailure re-reads the transfer so the rolled-back in-memory state
// from the aborted execution transaction is discarded.
func (s *TransferExecutionService) recordFailure(ctx context.Context, transferID uuid.UUID, reason error) {
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transfers := s.transfers.WithTx(tx)

		t, err := transfers.GetByTransferID(ctx, transferID)
		if err != nil {
			return err
		}
		if t.Status.IsTerminal() {
			return nil
		}
		if t.Status == transfer.StatusValidated {
			if err := t.Advance(transfer.StatusExecuting); err != nil {
				return err
			}
			if err := transfers.Update(ctx, t); err != nil {
				return err
			}
		}
		if err := t.Fail(reason.Error()); err != nil {
			return err
		}
		return transfers.Update(ctx, t)
	})
	if err != nil {
		s.logger.Error("Failed to record transfer failure",
			"transfer_id", transferID.String(),
			"reason", reason,
			"error", err,
		)
	}
}
