// Package swapper converts a funding balance into the base asset with a market buy
// and hands the result to the withdrawal and reporting steps.
package swapper

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/internal/domain"
)

type exchange interface {
	GetSymbolMinNotional(ctx context.Context, symbol string) (decimal.Decimal, error)
	PlaceMarketOrder(ctx context.Context, order domain.MarketOrder) (domain.OrderExecution, error)
}

type withdrawer interface {
	Withdraw(ctx context.Context, amount decimal.Decimal) (*domain.WithdrawReceipt, error)
}

type reporter interface {
	Report(ctx context.Context, record domain.TradeRecord)
}

// Config describes what the swapper buys and with which funds.
type Config struct {
	FundingAsset string
	Symbol       string
	// MinQuoteQty is the operator floor, applied together with the exchange minimum.
	MinQuoteQty decimal.Decimal
	// Wallet is written into every trade record.
	Wallet string
	// RulesTTL re-fetches the exchange minimum when the cached value is older. Zero never expires.
	RulesTTL time.Duration
}

// Swapper places a market buy for every positive funding balance above the minimum.
type Swapper struct {
	l          *zap.Logger
	exchange   exchange
	withdrawer withdrawer
	reporter   reporter
	cfg        Config
	now        func() time.Time

	mu           sync.Mutex
	minNotional  decimal.Decimal
	rulesFetched time.Time
}

// New creates a swapper and loads the symbol minimum. A failed load leaves the
// minimum at zero and only the configured floor applies.
// withdrawer and reporter are optional.
func New(ctx context.Context, l *zap.Logger, exchange exchange, cfg Config, w withdrawer, r reporter) *Swapper {
	s := &Swapper{
		l:          l,
		exchange:   exchange,
		withdrawer: w,
		reporter:   r,
		cfg:        cfg,
		now:        time.Now,
	}

	if err := s.RefreshRules(ctx); err != nil {
		l.Warn("failed to load symbol minimum, using configured floor only",
			zap.String("symbol", cfg.Symbol),
			zap.String("min_quote_qty", cfg.MinQuoteQty.String()),
			zap.Error(err))
	}

	return s
}

// RefreshRules re-fetches the symbol minimum. On failure the previous value is kept.
func (s *Swapper) RefreshRules(ctx context.Context) error {
	minNotional, err := s.exchange.GetSymbolMinNotional(ctx, s.cfg.Symbol)
	if err != nil {
		return errors.Wrapf(err, "failed to refresh trading rules for %s", s.cfg.Symbol)
	}

	s.mu.Lock()
	s.minNotional = minNotional
	s.rulesFetched = s.now()
	s.mu.Unlock()

	s.l.Debug("trading rules loaded",
		zap.String("symbol", s.cfg.Symbol),
		zap.String("min_notional", minNotional.String()))
	return nil
}

// MinNotional returns the cached exchange minimum.
func (s *Swapper) MinNotional() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minNotional
}

// EffectiveMinimum is the larger of the configured floor and the exchange minimum.
func (s *Swapper) EffectiveMinimum() decimal.Decimal {
	return decimal.Max(s.cfg.MinQuoteQty, s.MinNotional())
}

func (s *Swapper) rulesExpired() bool {
	if s.cfg.RulesTTL <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rulesFetched.IsZero() || s.now().Sub(s.rulesFetched) >= s.cfg.RulesTTL
}

// HandleBalance buys with the whole free funding balance. Only the order placement
// failure is returned; withdrawal and report failures are logged.
func (s *Swapper) HandleBalance(ctx context.Context, balance domain.AssetBalance) error {
	if balance.Asset != s.cfg.FundingAsset {
		return nil
	}
	if !balance.Free.IsPositive() {
		return nil
	}

	if s.rulesExpired() {
		if err := s.RefreshRules(ctx); err != nil {
			s.l.Warn("failed to refresh trading rules, keeping cached minimum",
				zap.String("symbol", s.cfg.Symbol),
				zap.Error(err))
		}
	}

	minimum := s.EffectiveMinimum()
	if balance.Free.LessThan(minimum) {
		s.l.Info("balance below minimum, skipping swap",
			zap.String("asset", balance.Asset),
			zap.String("free", balance.Free.String()),
			zap.String("minimum", minimum.String()))
		return nil
	}

	s.l.Info("placing market buy",
		zap.String("asset", balance.Asset),
		zap.String("symbol", s.cfg.Symbol),
		zap.String("quote_order_qty", balance.Free.String()))

	exec, err := s.exchange.PlaceMarketOrder(ctx, domain.MarketOrder{
		Symbol:        s.cfg.Symbol,
		Side:          domain.SideBuy,
		QuoteOrderQty: decimal.NewNullDecimal(balance.Free),
	})
	if err != nil {
		s.l.Error("market buy failed",
			zap.String("asset", balance.Asset),
			zap.String("symbol", s.cfg.Symbol),
			zap.String("amount", balance.Free.String()),
			zap.Error(err))
		return errors.Wrapf(err, "failed to swap %s %s", balance.Free, balance.Asset)
	}

	record := domain.TradeRecord{
		BuyTimestamp:    exec.Timestamp(s.now()),
		FiatSpent:       exec.QuoteQty,
		BTCBought:       exec.ExecutedQty,
		PriceFiatPerBTC: domain.AveragePrice(exec),
		Wallet:          s.cfg.Wallet,
	}

	s.l.Info("market buy executed",
		zap.String("symbol", s.cfg.Symbol),
		zap.Int64("order_id", exec.OrderID),
		zap.String("status", exec.Status),
		zap.String("executed_qty", record.BTCBought.String()),
		zap.String("quote_qty", record.FiatSpent.String()),
		zap.String("avg_price", record.PriceFiatPerBTC.String()))

	if !exec.ExecutedQty.IsPositive() {
		return nil
	}

	if s.withdrawer != nil {
		receipt, err := s.withdrawer.Withdraw(ctx, exec.ExecutedQty)
		switch {
		case err != nil:
			s.l.Error("withdrawal after swap failed",
				zap.String("symbol", s.cfg.Symbol),
				zap.String("amount", exec.ExecutedQty.String()),
				zap.Error(err))
		case receipt != nil:
			transferred := s.now().UTC()
			record.TransferTimestamp = &transferred
		}
	}

	if s.reporter != nil {
		s.reporter.Report(ctx, record)
	}

	return nil
}
