// Package reconciler backfills the trade ledger from the exchange trade history.
package reconciler

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/internal/domain"
	"github.com/vadiminshakov/autoswap/pkg/retrier"
)

type history interface {
	GetMyTradesFromID(ctx context.Context, symbol string, fromID int64, limit int) ([]domain.MyTrade, error)
}

const defaultPageSize = 1000

type ledger interface {
	ListTradeTimestamps(ctx context.Context) ([]string, error)
}

type submitter interface {
	Submit(ctx context.Context, record domain.TradeRecord) error
}

type Config struct {
	Symbol string
	Wallet string
	// FailClosed aborts the run when the existing ledger entries cannot be read.
	// Otherwise the ledger is treated as empty and every trade is sent.
	FailClosed bool
	// PageSize is the number of trades requested per history page.
	PageSize int
}

// Result counts the outcome of one run.
type Result struct {
	Created int
	Skipped int
	Failed  int
}

type Reconciler struct {
	l         *zap.Logger
	history   history
	ledger    ledger
	submitter submitter
	retrier   *retrier.Retrier
	cfg       Config
}

// New creates a reconciler. A nil retrier reads the ledger once.
func New(l *zap.Logger, history history, ledger ledger, submitter submitter, r *retrier.Retrier, cfg Config) *Reconciler {
	return &Reconciler{
		l:         l,
		history:   history,
		ledger:    ledger,
		submitter: submitter,
		retrier:   r,
		cfg:       cfg,
	}
}

// Run sends every exchange trade whose buy timestamp the ledger does not know yet.
func (r *Reconciler) Run(ctx context.Context) (Result, error) {
	var result Result

	r.l.Info("fetching trade history", zap.String("symbol", r.cfg.Symbol))
	trades, err := r.fetchHistory(ctx)
	if err != nil {
		return result, err
	}
	if len(trades) == 0 {
		r.l.Info("no trades found", zap.String("symbol", r.cfg.Symbol))
		return result, nil
	}

	existing, err := r.existingKeys(ctx)
	if err != nil {
		if r.cfg.FailClosed {
			return result, err
		}
		r.l.Error("failed to read ledger, treating it as empty", zap.Error(err))
		existing = make(map[string]struct{})
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].Time.Before(trades[j].Time)
	})

	for _, t := range trades {
		record := t.Record(r.cfg.Wallet)
		key := record.Key()

		if _, ok := existing[key]; ok {
			result.Skipped++
			continue
		}

		if err := r.submitter.Submit(ctx, record); err != nil {
			result.Failed++
			r.l.Error("failed to backfill trade",
				zap.String("symbol", r.cfg.Symbol),
				zap.Int64("trade_id", t.ID),
				zap.String("buy_timestamp", key),
				zap.String("amount", record.BTCBought.String()),
				zap.Error(err))
		} else {
			result.Created++
		}
	}

	r.l.Info("reconciliation finished",
		zap.String("symbol", r.cfg.Symbol),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}

// fetchHistory walks the trade history from the oldest trade, one page at a time.
func (r *Reconciler) fetchHistory(ctx context.Context) ([]domain.MyTrade, error) {
	pageSize := r.cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var (
		trades []domain.MyTrade
		fromID int64
	)
	for {
		page, err := r.history.GetMyTradesFromID(ctx, r.cfg.Symbol, fromID, pageSize)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to fetch trade history for %s from id %d", r.cfg.Symbol, fromID)
		}
		trades = append(trades, page...)

		if len(page) < pageSize {
			return trades, nil
		}

		next := fromID
		for _, t := range page {
			if t.ID >= next {
				next = t.ID + 1
			}
		}
		if next <= fromID {
			return trades, nil
		}
		fromID = next

		r.l.Debug("fetching next trade history page",
			zap.String("symbol", r.cfg.Symbol),
			zap.Int64("from_id", fromID),
			zap.Int("fetched", len(trades)))
	}
}

func (r *Reconciler) existingKeys(ctx context.Context) (map[string]struct{}, error) {
	timestamps, err := retrier.DoWithData(r.retrier, ctx, r.ledger.ListTradeTimestamps)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ledger trades")
	}

	keys := make(map[string]struct{}, len(timestamps))
	for _, ts := range timestamps {
		keys[domain.NormalizeISO(ts)] = struct{}{}
	}
	return keys, nil
}
