package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/banking-transfer-saga/internal/domain/account"
	"github.com/banking-transfer-saga/internal/domain/outbox"
	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// TransferValidationService checks the business rules of a transfer and, on
// success, advances it to VALIDATED while appending the TransferValidated
// event in the same transaction.
type TransferValidationService struct {
	db             TxRunner
	transfers      transfer.Repository
	accounts       account.Repository
	outboxRepo     outbox.Repository
	executionTopic string
	logger         *slog.Logger
}

func NewTransferValidationService(
	logger *slog.Logger,
	db TxRunner,
	transfers transfer.Repository,
	accounts account.Repository,
	outboxRepo outbox.Repository,
	executionTopic string,
) *TransferValidationService {
	return &TransferValidationService{
		db:             db,
		transfers:      transfers,
		accounts:       accounts,
		outboxRepo:     outboxRepo,
		executionTopic: executionTopic,
		logger:         logger,
	}
}

// Validate processes one TransferCreated event. Replays of already
// validated transfers re-append the outgoing event instead of repeating
// the work, so a lost downstream message can always be regenerated.
func (s *TransferValidationService) Validate(ctx context.Context, event transfer.Event) error {
	transferID, err := uuid.Parse(event.TransferID)
	if err != nil {
		return fmt.Errorf("failed to parse transfer id %q: %w", event.TransferID, err)
	}

	t, err := s.transfers.GetByTransferID(ctx, transferID)
	if err != nil {
		return err
	}

	logger := s.logger.With("transfer_id", t.TransferID.String())

	if t.Status.AtLeast(transfer.StatusValidated) {
		logger.Info("Transfer already validated, re-appending validated event", "status", t.Status)
		return s.appendEvent(ctx, t, transfer.EventTypeValidated)
	}

	if t.Status.IsTerminal() {
		logger.Info("Transfer already in terminal state, skipping validation", "status", t.Status)
		return nil
	}

	if ruleErr := s.checkRules(ctx, t); ruleErr != nil {
		logger.Warn("Transfer failed validation", "reason", ruleErr)
		s.recordFailure(ctx, transferID, ruleErr)
		return ruleErr
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transfers := s.transfers.WithTx(tx)

		if err := t.Advance(transfer.StatusValidating); err != nil {
			return err
		}
		if err := transfers.Update(ctx, t); err != nil {
			return err
		}

		if err := t.Advance(transfer.StatusValidated); err != nil {
			return err
		}
		if err := transfers.Update(ctx, t); err != nil {
			return err
		}

		evt, err := outbox.NewEvent(t.TransferID.String(), transfer.EventTypeValidated, s.executionTopic, t.FromAccount, transfer.EventFrom(t))
		if err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, evt)
	})
	if err != nil {
		return fmt.Errorf("failed to commit validation for transfer %s: %w", t.TransferID, err)
	}

	logger.Info("Transfer validated")
	return nil
}

// checkRules applies the validation rules in a fixed order so failures are
// reported consistently.
func (s *TransferValidationService) checkRules(ctx context.Context, t *transfer.Transfer) error {
	from, err := s.accounts.GetByNumber(ctx, t.FromAccount)
	if err != nil {
		return err
	}
	to, err := s.accounts.GetByNumber(ctx, t.ToAccount)
	if err != nil {
		return err
	}

	if !from.Active {
		return account.ErrInvalidAccount{AccountNumber: from.AccountNumber, Reason: "account is not active"}
	}
	if !to.Active {
		return account.ErrInvalidAccount{AccountNumber: to.AccountNumber, Reason: "account is not active"}
	}
	if t.FromAccount == t.ToAccount {
		return transfer.ErrSameAccount
	}
	if !t.Amount.IsPositive() {
		return transfer.ErrInvalidAmount
	}
	if !from.CanWithdraw(t.Amount) {
		return account.ErrInsufficientFunds{
			AccountNumber: from.AccountNumber,
			Balance:       from.Balance,
			Requested:     t.Amount,
		}
	}
	return nil
}

// appendEvent re-appends an outbox event for an already processed transfer
func (s *TransferValidationService) appendEvent(ctx context.Context, t *transfer.Transfer, eventType string) error {
	return s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		evt, err := outbox.NewEvent(t.TransferID.String(), eventType, s.executionTopic, t.FromAccount, transfer.EventFrom(t))
		if err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, evt)
	})
}

// recordFailure marks the transfer FAILED. Best effort: the originating
// business error is what the caller propagates.
func (s *TransferValidationService) recordFailure(ctx context.Context, transferID uuid.UUID, reason error) {
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		transfers := s.transfers.WithTx(tx)

		t, err := transfers.GetByTransferID(ctx, transferID)
		if err != nil {
			return err
		}
		if t.Status.IsTerminal() {
			return nil
		}
		if t.Status == transfer.StatusPending {
			if err := t.Advance(transfer.StatusValidating); err != nil {
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
