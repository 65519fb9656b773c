// Package monitor polls the exchange for the balance of one asset and hands
// every observation to a handler.
package monitor

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/internal/domain"
)

type balanceSource interface {
	GetAssetBalance(ctx context.Context, asset string) (domain.AssetBalance, error)
}

// Handler consumes one balance observation.
type Handler func(ctx context.Context, balance domain.AssetBalance) error

// Chain runs handlers in order and stops at the first error.
func Chain(handlers ...Handler) Handler {
	return func(ctx context.Context, balance domain.AssetBalance) error {
		for _, h := range handlers {
			if h == nil {
				continue
			}
			if err := h(ctx, balance); err != nil {
				return err
			}
		}
		return nil
	}
}

// LogBalance returns a handler that writes the balance to l.
func LogBalance(l *zap.Logger) Handler {
	return func(_ context.Context, balance domain.AssetBalance) error {
		l.Info("Balance",
			zap.String("asset", balance.Asset),
			zap.String("free", balance.Free.StringFixed(8)),
			zap.String("locked", balance.Locked.StringFixed(8)),
			zap.String("total", balance.Total().StringFixed(8)))
		return nil
	}
}

// Monitor polls the balance of a single asset at a fixed interval.
type Monitor struct {
	l        *zap.Logger
	source   balanceSource
	asset    string
	interval time.Duration
	handler  Handler
}

// New creates a monitor. A nil handler logs every observation.
func New(l *zap.Logger, source balanceSource, asset string, interval time.Duration, handler Handler) (*Monitor, error) {
	if asset == "" {
		return nil, errors.New("asset to monitor is required")
	}
	if interval <= 0 {
		return nil, errors.Errorf("poll interval must be positive, got %s", interval)
	}
	if handler == nil {
		handler = LogBalance(l)
	}

	return &Monitor{
		l:        l,
		source:   source,
		asset:    asset,
		interval: interval,
		handler:  handler,
	}, nil
}

// Run polls until ctx is cancelled. Iteration errors are logged and polling
// continues after the regular interval. Cancellation is only observed between
// iterations: a poll that started is carried to the end, so an order placed by
// the handler is always followed by its withdrawal and report.
func (m *Monitor) Run(ctx context.Context) error {
	m.l.Info("Starting balance monitor",
		zap.String("asset", m.asset),
		zap.Duration("poll_interval", m.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		if ctx.Err() != nil {
			m.l.Info("Balance monitor stopped", zap.String("asset", m.asset))
			return nil
		}

		if err := m.Poll(context.WithoutCancel(ctx)); err != nil {
			m.l.Error("Balance monitor iteration failed", zap.String("asset", m.asset), zap.Error(err))
		}

		timer.Reset(m.interval)
	}
}

// Poll performs a single iteration: one balance query and one handler call.
func (m *Monitor) Poll(ctx context.Context) error {
	balance, err := m.source.GetAssetBalance(ctx, m.asset)
	if err != nil {
		return errors.Wrapf(err, "failed to get %s balance", m.asset)
	}

	return m.handler(ctx, balance)
}
