package reporter

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/internal/domain"
)

type ledger interface {
	CreateTrade(ctx context.Context, record domain.TradeRecord) (json.RawMessage, error)
}

// Reporter forwards completed purchases to the trade ledger.
// Without a ledger it is disabled and every call is a no-op.
type Reporter struct {
	l      *zap.Logger
	ledger ledger
}

// New creates a reporter. A nil ledger disables it.
func New(l *zap.Logger, ledger ledger) *Reporter {
	return &Reporter{l: l, ledger: ledger}
}

// Enabled reports whether a ledger is configured.
func (r *Reporter) Enabled() bool {
	return r.ledger != nil
}

// Submit sends the record and returns the ledger failure, if any.
func (r *Reporter) Submit(ctx context.Context, record domain.TradeRecord) error {
	if !r.Enabled() {
		return nil
	}

	resp, err := r.ledger.CreateTrade(ctx, record)
	if err != nil {
		return errors.Wrapf(err, "failed to report trade %s", record.Key())
	}

	r.l.Info("trade reported",
		zap.String("buy_timestamp", record.Key()),
		zap.String("fiat_spent", record.FiatSpent.String()),
		zap.String("btc_bought", record.BTCBought.String()),
		zap.ByteString("response", resp))
	return nil
}

// Report sends the record; failures are logged and never returned.
func (r *Reporter) Report(ctx context.Context, record domain.TradeRecord) {
	if !r.Enabled() {
		r.l.Debug("ledger not configured, trade not reported", zap.String("buy_timestamp", record.Key()))
		return
	}

	if err := r.Submit(ctx, record); err != nil {
		r.l.Error("failed to report trade",
			zap.String("buy_timestamp", record.Key()),
			zap.String("amount", record.BTCBought.String()),
			zap.Error(err))
	}
}
