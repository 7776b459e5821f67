package outbox_relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/banking-transfer-saga/internal/config"
	"github.com/banking-transfer-saga/internal/domain/outbox"
)

// Monitor periodically measures the relay backlog. A growing backlog means
// events are committing faster than they are being published, usually a
// broker problem the relay's own error logs have already hinted at.
type Monitor struct {
	outboxRepo   outbox.Repository
	logger       *slog.Logger
	interval     time.Duration
	lagThreshold int64
}

func NewMonitor(cfg *config.OutboxConfig, outboxRepo outbox.Repository, logger *slog.Logger) *Monitor {
	return &Monitor{
		outboxRepo:   outboxRepo,
		logger:       logger,
		interval:     cfg.MonitorInterval,
		lagThreshold: int64(cfg.LagThreshold),
	}
}

// Start begins backlog sampling until the context is canceled
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("Starting outbox monitor",
		"interval", m.interval.String(),
		"lag_threshold", m.lagThreshold,
	)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Outbox monitor stopping due to context cancellation.")
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

func (m *Monitor) sample(ctx context.Context) {
	pending, err := m.outboxRepo.CountPending(ctx)
	if err != nil {
		m.logger.Error("Failed to count pending outbox events", "error", err)
		return
	}

	if pending > m.lagThreshold {
		m.logger.Warn("Outbox backlog exceeds threshold",
			"pending", pending,
			"threshold", m.lagThreshold,
		)
		return
	}

	m.logger.Debug("Outbox backlog within threshold", "pending", pending)
}
