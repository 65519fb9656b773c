package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/autoswap/internal/domain"
)

func TestLedgerClient_CreateTrade(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, tradesPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"buy_timestamp":"2024-05-06T07:08:09"}`))
	}))
	defer srv.Close()

	client := NewLedgerClient(srv.URL+"/", time.Second)
	created, err := client.CreateTrade(context.Background(), domain.TradeRecord{
		BuyTimestamp:    time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC),
		FiatSpent:       decimal.NewFromInt(50000),
		BTCBought:       decimal.RequireFromString("0.0005"),
		PriceFiatPerBTC: decimal.NewFromInt(100000000),
		Wallet:          "0xabc",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"buy_timestamp":"2024-05-06T07:08:09"}`, string(created))

	assert.Equal(t, "2024-05-06T07:08:09+00:00", received["buy_timestamp"])
	assert.Equal(t, 50000.0, received["fiat_spent"])
	assert.Equal(t, "0xabc", received["wallet"])
	assert.Contains(t, received, "transfer_timestamp")
	assert.Nil(t, received["transfer_timestamp"])
}

func TestLedgerClient_CreateTrade_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	created, err := NewLedgerClient(srv.URL, time.Second).CreateTrade(context.Background(), domain.TradeRecord{})
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestLedgerClient_CreateTrade_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"invalid"}`))
	}))
	defer srv.Close()

	_, err := NewLedgerClient(srv.URL, time.Second).CreateTrade(context.Background(), domain.TradeRecord{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequestFailed))

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusUnprocessableEntity, reqErr.StatusCode)
	assert.Contains(t, reqErr.Body, "invalid")
}

func TestLedgerClient_ListTradeTimestamps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, tradesPath, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":2,"buy_timestamp":"2024-05-06T07:08:09.123000"},
			{"id":3},
			{"id":1,"buy_timestamp":"2024-05-05T07:08:09+00:00"}
		]`))
	}))
	defer srv.Close()

	timestamps, err := NewLedgerClient(srv.URL, time.Second).ListTradeTimestamps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-05-06T07:08:09.123000", "2024-05-05T07:08:09+00:00"}, timestamps)
}
