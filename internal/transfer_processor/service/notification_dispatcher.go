package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/banking-transfer-saga/internal/domain/transfer"
)

// LogNotifier is the default notification channel: it writes the
// notification to the structured log. A real deployment would swap in an
// email or push gateway behind the same interface.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, accountNumber string, message string, event transfer.Event) error {
	n.logger.Info("Notification sent",
		"account_number", accountNumber,
		"transfer_id", event.TransferID,
		"amount", event.Amount.String(),
		"message", message,
	)
	return nil
}

// PooledNotificationDispatcher fans one completed transfer out into two
// notifications (debit side, credit side) on a shared worker pool. Dispatch
// waits for both so the consumer only acknowledges after delivery.
type PooledNotificationDispatcher struct {
	notifier Notifier
	pool     *ants.Pool
	logger   *slog.Logger
}

func NewPooledNotificationDispatcher(logger *slog.Logger, notifier Notifier, poolSize int) (*PooledNotificationDispatcher, error) {
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification worker pool: %w", err)
	}

	return &PooledNotificationDispatcher{
		notifier: notifier,
		pool:     pool,
		logger:   logger,
	}, nil
}

func (d *PooledNotificationDispatcher) Dispatch(ctx context.Context, event transfer.Event) error {
	type delivery struct {
		account string
		message string
	}

	deliveries := []delivery{
		{event.FromAccount, fmt.Sprintf("You sent %s to account %s", event.Amount.String(), event.ToAccount)},
		{event.ToAccount, fmt.Sprintf("You received %s from account %s", event.Amount.String(), event.FromAccount)},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(deliveries))

	for i, del := range deliveries {
		i, del := i, del
		wg.Add(1)
		submitErr := d.pool.Submit(func() {
			defer wg.Done()
			errs[i] = d.notifier.Send(ctx, del.account, del.message, event)
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("failed to submit notification to worker pool: %w", submitErr)
		}
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	d.logger.Debug("Notifications dispatched", "transfer_id", event.TransferID)
	return nil
}

// Shutdown releases the worker pool
func (d *PooledNotificationDispatcher) Shutdown() {
	d.logger.Info("Shutting down notification worker pool", "running_workers", d.pool.Running())
	d.pool.Release()
}
