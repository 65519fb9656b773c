package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/autoswap/internal/domain"
)

const (
	DefaultBinanceURL = "https://api.binance.com"

	defaultRecvWindow     = 5000
	defaultBinanceTimeout = 10 * time.Second
	apiKeyHeader          = "X-MBX-APIKEY"

	accountPath      = "/api/v3/account"
	exchangeInfoPath = "/api/v3/exchangeInfo"
	orderPath        = "/api/v3/order"
	myTradesPath     = "/api/v3/myTrades"
	withdrawPath     = "/sapi/v1/capital/withdraw/apply"

	filterMinNotional = "MIN_NOTIONAL"
	filterNotional    = "NOTIONAL"
)

// BinanceClient executes public and signed Binance spot REST calls.
// It does not retry; a failed call is reported to the caller as is.
type BinanceClient struct {
	http       *resty.Client
	apiKey     string
	signer     *Signer
	recvWindow int64
	now        func() time.Time
	newOrderID func() string
}

// BinanceOption configures the BinanceClient.
type BinanceOption func(*BinanceClient)

// WithBaseURL points the client at another Binance compatible host (testnet, mock server).
func WithBaseURL(baseURL string) BinanceOption {
	return func(c *BinanceClient) {
		c.http.SetBaseURL(strings.TrimRight(baseURL, "/"))
	}
}

// WithRecvWindow sets the recvWindow sent with signed calls, in milliseconds.
func WithRecvWindow(ms int64) BinanceOption {
	return func(c *BinanceClient) {
		c.recvWindow = ms
	}
}

// WithTimeout sets the per call timeout.
func WithTimeout(d time.Duration) BinanceOption {
	return func(c *BinanceClient) {
		c.http.SetTimeout(d)
	}
}

// WithClock replaces the clock used for the timestamp parameter.
func WithClock(now func() time.Time) BinanceOption {
	return func(c *BinanceClient) {
		c.now = now
	}
}

// WithOrderIDGenerator replaces the generator of newClientOrderId values.
func WithOrderIDGenerator(gen func() string) BinanceOption {
	return func(c *BinanceClient) {
		c.newOrderID = gen
	}
}

// NewBinanceClient creates a client for the given API credentials.
func NewBinanceClient(apiKey, apiSecret string, opts ...BinanceOption) *BinanceClient {
	c := &BinanceClient{
		http: resty.New().
			SetBaseURL(DefaultBinanceURL).
			SetTimeout(defaultBinanceTimeout),
		apiKey:     apiKey,
		signer:     NewSigner(apiSecret),
		recvWindow: defaultRecvWindow,
		now:        time.Now,
		newOrderID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetAssetBalance returns the balance of asset. Assets the account does not
// hold yield a zero balance rather than an error.
func (c *BinanceClient) GetAssetBalance(ctx context.Context, asset string) (domain.AssetBalance, error) {
	var account binance.Account
	if err := c.signedRequest(ctx, http.MethodGet, accountPath, nil, &account); err != nil {
		return domain.AssetBalance{}, errors.Wrap(err, "failed to get binance account")
	}

	for _, b := range account.Balances {
		if b.Asset == asset {
			return domain.NewAssetBalance(asset,
				domain.ParseDecimalOrZero(b.Free),
				domain.ParseDecimalOrZero(b.Locked)), nil
		}
	}

	return domain.ZeroBalance(asset), nil
}

// GetSymbolMinNotional returns the largest MIN_NOTIONAL/NOTIONAL minimum of the
// symbol, zero when it has no such filter.
func (c *BinanceClient) GetSymbolMinNotional(ctx context.Context, symbol string) (decimal.Decimal, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var info binance.ExchangeInfo
	if err := c.publicRequest(ctx, http.MethodGet, exchangeInfoPath, params, &info); err != nil {
		return decimal.Zero, errors.Wrapf(err, "failed to get exchange info for %s", symbol)
	}

	if len(info.Symbols) == 0 {
		return decimal.Zero, errors.Wrapf(ErrNotFound, "symbol %s is not listed", symbol)
	}

	minNotional := decimal.Zero
	for _, f := range info.Symbols[0].Filters {
		filterType, _ := f["filterType"].(string)
		if filterType != filterMinNotional && filterType != filterNotional {
			continue
		}
		raw, ok := f["minNotional"]
		if !ok || raw == nil {
			continue
		}
		value, err := decimal.NewFromString(fmt.Sprint(raw))
		if err != nil {
			continue
		}
		minNotional = decimal.Max(minNotional, value)
	}

	return minNotional, nil
}

type orderResponse struct {
	binance.CreateOrderResponse
	UpdateTime int64 `json:"updateTime"`
}

// PlaceMarketOrder sends a MARKET order with a FULL response so fills are returned.
func (c *BinanceClient) PlaceMarketOrder(ctx context.Context, order domain.MarketOrder) (domain.OrderExecution, error) {
	if order.Symbol == "" {
		return domain.OrderExecution{}, errors.Wrap(ErrInvalidArgument, "symbol is required")
	}
	if !order.Side.IsValid() {
		return domain.OrderExecution{}, errors.Wrapf(ErrInvalidArgument, "unsupported order side %q", order.Side)
	}
	if order.Quantity.Valid == order.QuoteOrderQty.Valid {
		return domain.OrderExecution{}, errors.Wrap(ErrInvalidArgument, "exactly one of quantity or quoteOrderQty must be set")
	}

	params := url.Values{}
	params.Set("symbol", order.Symbol)
	params.Set("side", order.Side.String())
	params.Set("type", string(binance.OrderTypeMarket))
	if order.Quantity.Valid {
		params.Set("quantity", order.Quantity.Decimal.String())
	}
	if order.QuoteOrderQty.Valid {
		params.Set("quoteOrderQty", order.QuoteOrderQty.Decimal.String())
	}
	params.Set("newOrderRespType", string(binance.NewOrderRespTypeFULL))
	params.Set("newClientOrderId", c.newOrderID())

	var resp orderResponse
	if err := c.signedRequest(ctx, http.MethodPost, orderPath, params, &resp); err != nil {
		return domain.OrderExecution{}, errors.Wrapf(err, "failed to place market %s on %s", order.Side, order.Symbol)
	}

	return resp.execution(), nil
}

func (r orderResponse) execution() domain.OrderExecution {
	exec := domain.OrderExecution{
		OrderID:       r.OrderID,
		ClientOrderID: r.ClientOrderID,
		Symbol:        r.Symbol,
		Status:        string(r.Status),
		ExecutedQty:   domain.ParseDecimalOrZero(r.ExecutedQuantity),
		QuoteQty:      domain.ParseDecimalOrZero(r.CummulativeQuoteQuantity),
		Fills:         make([]domain.Fill, 0, len(r.Fills)),
	}

	for _, f := range r.Fills {
		if f == nil {
			continue
		}
		exec.Fills = append(exec.Fills, domain.Fill{
			Quantity: domain.ParseDecimalOrZero(f.Quantity),
			Price:    domain.ParseDecimalOrZero(f.Price),
		})
	}

	switch {
	case r.TransactTime > 0:
		exec.TransactTime = time.UnixMilli(r.TransactTime).UTC()
	case r.UpdateTime > 0:
		exec.TransactTime = time.UnixMilli(r.UpdateTime).UTC()
	}

	return exec
}

// Withdraw requests a withdrawal. The call moves funds off the exchange and cannot be undone.
func (c *BinanceClient) Withdraw(ctx context.Context, w domain.Withdrawal) (*domain.WithdrawReceipt, error) {
	if w.Coin == "" || w.Address == "" {
		return nil, errors.Wrap(ErrInvalidArgument, "coin and address are required")
	}
	if !w.Amount.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidArgument, "withdraw amount must be positive, got %s", w.Amount)
	}

	params := url.Values{}
	params.Set("coin", strings.ToUpper(w.Coin))
	params.Set("address", w.Address)
	params.Set("amount", w.Amount.String())
	if w.Network != "" {
		params.Set("network", strings.ToUpper(w.Network))
	}
	if w.AddressTag != "" {
		params.Set("addressTag", w.AddressTag)
	}

	var resp binance.CreateWithdrawResponse
	if err := c.signedRequest(ctx, http.MethodPost, withdrawPath, params, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to withdraw %s %s", w.Amount, w.Coin)
	}

	return &domain.WithdrawReceipt{ID: resp.ID}, nil
}

// MaxTradesPerPage is the largest myTrades page Binance serves.
const MaxTradesPerPage = 1000

// GetMyTrades returns up to MaxTradesPerPage trades for symbol, the most recent
// ones in the window. Zero bounds are not sent.
func (c *BinanceClient) GetMyTrades(ctx context.Context, symbol string, startTime, endTime time.Time) ([]domain.MyTrade, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	if !startTime.IsZero() {
		params.Set("startTime", strconv.FormatInt(startTime.UnixMilli(), 10))
	}
	if !endTime.IsZero() {
		params.Set("endTime", strconv.FormatInt(endTime.UnixMilli(), 10))
	}
	params.Set("limit", strconv.Itoa(MaxTradesPerPage))

	return c.myTrades(ctx, symbol, params)
}

// GetMyTradesFromID returns trades for symbol with id >= fromID in ascending id
// order. fromID 0 starts at the oldest trade. limit is clamped to 1..MaxTradesPerPage.
func (c *BinanceClient) GetMyTradesFromID(ctx context.Context, symbol string, fromID int64, limit int) ([]domain.MyTrade, error) {
	if limit <= 0 || limit > MaxTradesPerPage {
		limit = MaxTradesPerPage
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("fromId", strconv.FormatInt(fromID, 10))
	params.Set("limit", strconv.Itoa(limit))

	return c.myTrades(ctx, symbol, params)
}

func (c *BinanceClient) myTrades(ctx context.Context, symbol string, params url.Values) ([]domain.MyTrade, error) {
	var resp []*binance.TradeV3
	if err := c.signedRequest(ctx, http.MethodGet, myTradesPath, params, &resp); err != nil {
		return nil, errors.Wrapf(err, "failed to list trades for %s", symbol)
	}

	trades := make([]domain.MyTrade, 0, len(resp))
	for _, t := range resp {
		if t == nil {
			continue
		}
		trades = append(trades, domain.MyTrade{
			ID:       t.ID,
			OrderID:  t.OrderID,
			Symbol:   t.Symbol,
			Price:    domain.ParseDecimalOrZero(t.Price),
			Qty:      domain.ParseDecimalOrZero(t.Quantity),
			QuoteQty: domain.ParseDecimalOrZero(t.QuoteQuantity),
			Time:     time.UnixMilli(t.Time).UTC(),
			IsBuyer:  t.IsBuyer,
		})
	}

	return trades, nil
}

func (c *BinanceClient) publicRequest(ctx context.Context, method, path string, params url.Values, out any) error {
	target := path
	if len(params) > 0 {
		target = path + "?" + canonicalQuery(params)
	}

	resp, err := c.http.R().SetContext(ctx).Execute(method, target)
	return decodeResponse(method, path, resp, err, out)
}

func (c *BinanceClient) signedRequest(ctx context.Context, method, path string, params url.Values, out any) error {
	query := c.signedQuery(params)

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, c.apiKey).
		Execute(method, path+"?"+query)
	return decodeResponse(method, path, resp, err, out)
}

// signedQuery adds timestamp and recvWindow to a copy of params and appends the signature.
func (c *BinanceClient) signedQuery(params url.Values) string {
	signed := make(url.Values, len(params)+2)
	for k, v := range params {
		signed[k] = append([]string(nil), v...)
	}
	signed.Set("timestamp", strconv.FormatInt(c.now().UnixMilli(), 10))
	if signed.Get("recvWindow") == "" {
		signed.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	}

	query := canonicalQuery(signed)
	return query + "&signature=" + c.signer.Sign(query)
}

// decodeResponse passes transport errors through untouched and turns non-2xx answers into *RequestError.
func decodeResponse(method, path string, resp *resty.Response, err error, out any) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return newRequestError(method, path, resp)
	}
	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "failed to decode %s %s response", method, path)
	}
	return nil
}
