package internal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/autoswap/config"
)

type fakeBinance struct {
	accountCalls  atomic.Int32
	orders        atomic.Int32
	withdrawals   atomic.Int32
	lastOrderForm atomic.Value
}

func (f *fakeBinance) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/exchangeInfo", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"symbols":[{"symbol":"BTCARS","filters":[{"filterType":"NOTIONAL","minNotional":"5000.00"}]}]}`)
	})
	mux.HandleFunc("/api/v3/account", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))
		free := "0.00"
		if f.accountCalls.Add(1) == 1 {
			free = "50000.00"
		}
		_, _ = io.WriteString(w, `{"balances":[{"asset":"ARS","free":"`+free+`","locked":"0.00"}]}`)
	})
	mux.HandleFunc("/api/v3/order", func(w http.ResponseWriter, r *http.Request) {
		f.orders.Add(1)
		f.lastOrderForm.Store(r.URL.Query())
		_, _ = io.WriteString(w, `{"symbol":"BTCARS","orderId":7,"transactTime":1714979289123,"executedQty":"0.0005","cummulativeQuoteQty":"50000","status":"FILLED","fills":[{"price":"100000000","qty":"0.0005"}]}`)
	})
	mux.HandleFunc("/sapi/v1/capital/withdraw/apply", func(w http.ResponseWriter, r *http.Request) {
		f.withdrawals.Add(1)
		_, _ = io.WriteString(w, `{"id":"w-1"}`)
	})
	return mux
}

type fakeLedger struct {
	mu      sync.Mutex
	records []map[string]any
	posted  chan struct{}
}

func (f *fakeLedger) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			_, _ = io.WriteString(w, `[]`)
			return
		}
		var rec map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		f.mu.Lock()
		f.records = append(f.records, rec)
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":1}`)
		select {
		case f.posted <- struct{}{}:
		default:
		}
	})
}

func testConfig(binanceURL, ledgerURL string) config.Config {
	return config.Config{
		APIKey:       "key",
		APISecret:    "secret",
		BaseURL:      binanceURL,
		FundingAsset: "ARS",
		Symbol:       "BTCARS",
		PollInterval: time.Millisecond,
		MinQuoteQty:  decimal.NewFromInt(10000),
		Withdraw: config.WithdrawConfig{
			Coin:    "BTC",
			Address: "0xwallet",
			Network: "BSC",
		},
		LedgerURL: ledgerURL,
	}
}

func TestTradingBot_SwapWithdrawReport(t *testing.T) {
	exchange := &fakeBinance{}
	exchangeSrv := httptest.NewServer(exchange.handler(t))
	defer exchangeSrv.Close()

	ledger := &fakeLedger{posted: make(chan struct{}, 1)}
	ledgerSrv := httptest.NewServer(ledger.handler(t))
	defer ledgerSrv.Close()

	conf := testConfig(exchangeSrv.URL, ledgerSrv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bot, err := NewTradingBot(ctx, conf, NewBinanceClient(conf), zap.NewNop())
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5000).Equal(bot.Swapper.MinNotional()))

	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	select {
	case <-ledger.posted:
	case <-time.After(5 * time.Second):
		t.Fatal("trade was not reported")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("bot did not stop")
	}

	assert.EqualValues(t, 1, exchange.orders.Load())
	assert.EqualValues(t, 1, exchange.withdrawals.Load())

	form, ok := exchange.lastOrderForm.Load().(url.Values)
	require.True(t, ok)
	assert.Equal(t, "50000", form.Get("quoteOrderQty"))
	assert.Equal(t, "BUY", form.Get("side"))
	assert.Equal(t, "MARKET", form.Get("type"))

	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	require.Len(t, ledger.records, 1)
	rec := ledger.records[0]
	assert.Equal(t, "2024-05-06T07:08:09.123000+00:00", rec["buy_timestamp"])
	assert.Equal(t, 50000.0, rec["fiat_spent"])
	assert.Equal(t, 0.0005, rec["btc_bought"])
	assert.Equal(t, 1e8, rec["price_fiat_per_btc"])
	assert.Equal(t, "0xwallet", rec["wallet"])
	assert.NotNil(t, rec["transfer_timestamp"])
}

func TestNewReporter_DisabledWithoutLedger(t *testing.T) {
	conf := testConfig("http://127.0.0.1:1", "")
	assert.False(t, NewReporter(zap.NewNop(), conf).Enabled())

	conf.LedgerURL = "http://ledger"
	assert.True(t, NewReporter(zap.NewNop(), conf).Enabled())
}

func TestNewReconciler_RequiresLedger(t *testing.T) {
	conf := testConfig("http://127.0.0.1:1", "")
	_, err := NewReconciler(zap.NewNop(), conf, NewBinanceClient(conf))
	assert.ErrorIs(t, err, ErrLedgerNotConfigured)
}

func TestNewReconciler_Backfills(t *testing.T) {
	exchangeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/myTrades", r.URL.Path)
		assert.Equal(t, "BTCARS", r.URL.Query().Get("symbol"))
		assert.Equal(t, "0", r.URL.Query().Get("fromId"))
		_, _ = io.WriteString(w, `[
			{"id":2,"symbol":"BTCARS","price":"0","qty":"0.001","quoteQty":"100000","time":1715076000000,"isBuyer":true},
			{"id":1,"symbol":"BTCARS","price":"100000000","qty":"0.0005","quoteQty":"50000","time":1714979289123,"isBuyer":true}
		]`)
	}))
	defer exchangeSrv.Close()

	ledger := &fakeLedger{posted: make(chan struct{}, 2)}
	ledgerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `[{"buy_timestamp":"2024-05-06T07:08:09.123+00:00"}]`)
			return
		}
		ledger.handler(t).ServeHTTP(w, r)
	}))
	defer ledgerSrv.Close()

	conf := testConfig(exchangeSrv.URL, ledgerSrv.URL)
	rec, err := NewReconciler(zap.NewNop(), conf, NewBinanceClient(conf))
	require.NoError(t, err)

	result, err := rec.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)

	ledger.mu.Lock()
	defer ledger.mu.Unlock()
	require.Len(t, ledger.records, 1)
	assert.Equal(t, "2024-05-07T10:00:00+00:00", ledger.records[0]["buy_timestamp"])
	assert.Equal(t, 1e8, ledger.records[0]["price_fiat_per_btc"])
	assert.Nil(t, ledger.records[0]["transfer_timestamp"])
}
