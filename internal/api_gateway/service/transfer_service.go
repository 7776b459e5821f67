package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/banking-transfer-saga/internal/domain/outbox"
	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// TransferServiceImpl implements the TransferService interface. Creation
// never talks to Kafka directly: the transfer row and its TransferCreated
// outbox event commit together, and the relay publishes from there.
type TransferServiceImpl struct {
	db              TxRunner
	transferRepo    transfer.Repository
	outboxRepo      outbox.Repository
	validationTopic string
	logger          *slog.Logger
}

// NewTransferService creates a new transfer service
func NewTransferService(
	logger *slog.Logger,
	db TxRunner,
	transferRepo transfer.Repository,
	outboxRepo outbox.Repository,
	validationTopic string,
) TransferService {
	return &TransferServiceImpl{
		db:              db,
		transferRepo:    transferRepo,
		outboxRepo:      outboxRepo,
		validationTopic: validationTopic,
		logger:          logger,
	}
}

// CreateTransfer records a PENDING transfer and enqueues it for validation
func (s *TransferServiceImpl) CreateTransfer(ctx context.Context, fromAccount, toAccount string, amount decimal.Decimal, description string) (*transfer.Transfer, error) {
	t, err := transfer.NewTransfer(fromAccount, toAccount, amount, description)
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.transferRepo.WithTx(tx).Create(ctx, t); err != nil {
			return err
		}

		evt, err := outbox.NewEvent(t.TransferID.String(), transfer.EventTypeCreated, s.validationTopic, t.FromAccount, transfer.EventFrom(t))
		if err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, evt)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transfer accepted",
		"transfer_id", t.TransferID.String(),
		"from_account", t.FromAccount,
		"to_account", t.ToAccount,
		"amount", t.Amount.String(),
	)
	return t, nil
}

// GetTransferByID retrieves a transfer snapshot, returning
// transfer.ErrTransferNotFound if it doesn't exist
func (s *TransferServiceImpl) GetTransferByID(ctx context.Context, transferID uuid.UUID) (*transfer.Transfer, error) {
	return s.transferRepo.GetByTransferID(ctx, transferID)
}

// GetTransferEvents lists the outbox events recorded for a transfer
func (s *TransferServiceImpl) GetTransferEvents(ctx context.Context, transferID uuid.UUID) ([]*outbox.Event, error) {
	return s.outboxRepo.GetByAggregateID(ctx, transferID.String())
}
