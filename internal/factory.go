package internal

import (
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/config"
	"github.com/vadiminshakov/autoswap/internal/clients"
	"github.com/vadiminshakov/autoswap/internal/services/reconciler"
	"github.com/vadiminshakov/autoswap/internal/services/reporter"
	"github.com/vadiminshakov/autoswap/internal/services/withdrawer"
	"github.com/vadiminshakov/autoswap/pkg/retrier"
)

const ledgerTimeout = 5 * time.Second

// ErrLedgerNotConfigured is returned by builders that need the trade ledger.
var ErrLedgerNotConfigured = errors.New("ledger base url is not configured (set BACKEND_API_BASE)")

// NewBinanceClient creates the exchange client for conf.
func NewBinanceClient(conf config.Config) *clients.BinanceClient {
	return clients.NewBinanceClient(conf.APIKey, conf.APISecret, clients.WithBaseURL(conf.BaseURL))
}

// NewReporter returns a reporter bound to the configured ledger, or a disabled one.
func NewReporter(logger *zap.Logger, conf config.Config) *reporter.Reporter {
	if conf.LedgerURL == "" {
		return reporter.New(logger, nil)
	}
	return reporter.New(logger, clients.NewLedgerClient(conf.LedgerURL, ledgerTimeout))
}

// NewWithdrawer creates the withdrawer for the configured destination.
func NewWithdrawer(logger *zap.Logger, conf config.Config, client *clients.BinanceClient) *withdrawer.Withdrawer {
	return withdrawer.New(logger, client, withdrawer.Config{
		Coin:      conf.Withdraw.Coin,
		Address:   conf.Withdraw.Address,
		Network:   conf.Withdraw.Network,
		MinAmount: conf.Withdraw.MinAmount,
	})
}

// NewReconciler creates the ledger backfill job. The ledger read is retried with backoff.
func NewReconciler(logger *zap.Logger, conf config.Config, client *clients.BinanceClient) (*reconciler.Reconciler, error) {
	if conf.LedgerURL == "" {
		return nil, ErrLedgerNotConfigured
	}

	ledger := clients.NewLedgerClient(conf.LedgerURL, ledgerTimeout)
	r := retrier.New(retrier.WithOnRetry(func(attempt int, err error) {
		logger.Warn("ledger read failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
	}))

	return reconciler.New(logger, client, ledger, reporter.New(logger, ledger), r, reconciler.Config{
		Symbol:     conf.Symbol,
		Wallet:     conf.Withdraw.Address,
		FailClosed: conf.SyncFailClosed,
		PageSize:   clients.MaxTradesPerPage,
	}), nil
}
