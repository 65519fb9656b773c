package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/config"
	"github.com/vadiminshakov/autoswap/internal/clients"
	"github.com/vadiminshakov/autoswap/internal/services/monitor"
	"github.com/vadiminshakov/autoswap/internal/services/swapper"
)

// TradingBot watches the funding balance and converts it as it arrives.
type TradingBot struct {
	Config  config.Config
	Swapper *swapper.Swapper
	monitor *monitor.Monitor
	logger  *zap.Logger
}

// NewTradingBot wires the monitor, swapper, withdrawer and reporter for conf.
func NewTradingBot(ctx context.Context, conf config.Config, client *clients.BinanceClient, logger *zap.Logger) (*TradingBot, error) {
	botLogger := logger.With(zap.String("symbol", conf.Symbol))

	rep := NewReporter(botLogger, conf)
	if !rep.Enabled() {
		botLogger.Warn("ledger not configured, trades will not be reported")
	}

	w := NewWithdrawer(botLogger, conf, client)
	if !w.Enabled() {
		botLogger.Warn("withdraw address not configured, bought coins stay on the exchange")
	}

	sw := swapper.New(ctx, botLogger, client, swapper.Config{
		FundingAsset: conf.FundingAsset,
		Symbol:       conf.Symbol,
		MinQuoteQty:  conf.MinQuoteQty,
		Wallet:       conf.Withdraw.Address,
		RulesTTL:     conf.RulesTTL,
	}, w, rep)

	m, err := monitor.New(botLogger, client, conf.FundingAsset, conf.PollInterval,
		monitor.Chain(monitor.LogBalance(botLogger), sw.HandleBalance))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create balance monitor")
	}

	return &TradingBot{
		Config:  conf,
		Swapper: sw,
		monitor: m,
		logger:  botLogger,
	}, nil
}

// Run blocks until ctx is cancelled.
func (b *TradingBot) Run(ctx context.Context) error {
	b.logger.Info("trading bot started",
		zap.String("funding_asset", b.Config.FundingAsset),
		zap.String("effective_minimum", b.Swapper.EffectiveMinimum().String()),
		zap.Bool("withdraw_enabled", b.Config.Withdraw.Address != ""),
		zap.Bool("ledger_enabled", b.Config.LedgerURL != ""))

	if err := b.monitor.Run(ctx); err != nil {
		return errors.Wrap(err, "balance monitor stopped")
	}

	b.logger.Info("trading bot stopped")
	return nil
}
