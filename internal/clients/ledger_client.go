package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/vadiminshakov/autoswap/internal/domain"
)

const (
	defaultLedgerTimeout = 5 * time.Second
	tradesPath           = "/trades"
)

// LedgerClient talks to the trade ledger service.
type LedgerClient struct {
	http *resty.Client
}

// NewLedgerClient creates a client for the ledger at baseURL.
func NewLedgerClient(baseURL string, timeout time.Duration) *LedgerClient {
	if timeout <= 0 {
		timeout = defaultLedgerTimeout
	}
	return &LedgerClient{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
	}
}

// CreateTrade stores a trade and returns the ledger's representation of it.
func (c *LedgerClient) CreateTrade(ctx context.Context, rec domain.TradeRecord) (json.RawMessage, error) {
	body, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal trade record")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(tradesPath)

	var created json.RawMessage
	if err := decodeResponse(http.MethodPost, tradesPath, resp, err, &created); err != nil {
		return nil, err
	}
	return created, nil
}

type ledgerTrade struct {
	BuyTimestamp string `json:"buy_timestamp"`
}

// ListTradeTimestamps returns the buy_timestamp of every stored trade, as the ledger wrote it.
func (c *LedgerClient) ListTradeTimestamps(ctx context.Context) ([]string, error) {
	resp, err := c.http.R().SetContext(ctx).Get(tradesPath)

	var trades []ledgerTrade
	if err := decodeResponse(http.MethodGet, tradesPath, resp, err, &trades); err != nil {
		return nil, err
	}

	timestamps := make([]string, 0, len(trades))
	for _, t := range trades {
		if t.BuyTimestamp != "" {
			timestamps = append(timestamps, t.BuyTimestamp)
		}
	}
	return timestamps, nil
}
