package withdrawer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/internal/domain"
)

type exchange interface {
	Withdraw(ctx context.Context, w domain.Withdrawal) (*domain.WithdrawReceipt, error)
}

// Config is the withdrawal destination.
type Config struct {
	Coin    string
	Address string
	// Network is optional, the exchange default network is used when empty.
	Network string
	// MinAmount amounts below it are kept on the exchange.
	MinAmount decimal.Decimal
}

// Withdrawer sends bought coins to the configured address.
type Withdrawer struct {
	l        *zap.Logger
	exchange exchange
	cfg      Config
}

// New creates a withdrawer sending to the cfg destination.
func New(l *zap.Logger, exchange exchange, cfg Config) *Withdrawer {
	return &Withdrawer{
		l:        l,
		exchange: exchange,
		cfg:      cfg,
	}
}

// Enabled reports whether a destination address is configured.
func (w *Withdrawer) Enabled() bool {
	return w.cfg.Address != ""
}

// Withdraw moves amount to the configured address. It returns nil, nil without
// contacting the exchange when there is no address or the amount is too small.
func (w *Withdrawer) Withdraw(ctx context.Context, amount decimal.Decimal) (*domain.WithdrawReceipt, error) {
	if !w.Enabled() {
		w.l.Info("withdraw address not configured, skipping withdrawal",
			zap.String("coin", w.cfg.Coin),
			zap.String("amount", amount.String()))
		return nil, nil
	}
	if !amount.IsPositive() {
		w.l.Info("nothing to withdraw",
			zap.String("coin", w.cfg.Coin),
			zap.String("amount", amount.String()))
		return nil, nil
	}
	if amount.LessThan(w.cfg.MinAmount) {
		w.l.Info("amount below withdrawal minimum, skipping",
			zap.String("coin", w.cfg.Coin),
			zap.String("amount", amount.String()),
			zap.String("min_amount", w.cfg.MinAmount.String()))
		return nil, nil
	}

	receipt, err := w.exchange.Withdraw(ctx, domain.Withdrawal{
		Coin:    w.cfg.Coin,
		Address: w.cfg.Address,
		Amount:  amount,
		Network: w.cfg.Network,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to withdraw %s %s to %s", amount, w.cfg.Coin, w.cfg.Address)
	}

	w.l.Info("withdrawal requested",
		zap.String("coin", w.cfg.Coin),
		zap.String("amount", amount.String()),
		zap.String("network", w.cfg.Network),
		zap.String("address", w.cfg.Address),
		zap.Any("receipt", receipt))

	return receipt, nil
}
