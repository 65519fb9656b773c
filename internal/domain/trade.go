package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is a completed purchase as the ledger stores it.
type TradeRecord struct {
	BuyTimestamp    time.Time
	FiatSpent       decimal.Decimal
	BTCBought       decimal.Decimal
	PriceFiatPerBTC decimal.Decimal
	Wallet          string
	// TransferTimestamp set only when the bought amount was withdrawn.
	TransferTimestamp *time.Time
}

type tradeRecordJSON struct {
	BuyTimestamp      string  `json:"buy_timestamp"`
	FiatSpent         float64 `json:"fiat_spent"`
	BTCBought         float64 `json:"btc_bought"`
	PriceFiatPerBTC   float64 `json:"price_fiat_per_btc"`
	Wallet            string  `json:"wallet"`
	TransferTimestamp *string `json:"transfer_timestamp"`
}

// Key is the deduplication identity of the record.
func (r TradeRecord) Key() string {
	return FormatISO(r.BuyTimestamp)
}

// MarshalJSON encodes the record in the ledger wire format.
func (r TradeRecord) MarshalJSON() ([]byte, error) {
	wire := tradeRecordJSON{
		BuyTimestamp:    FormatISO(r.BuyTimestamp),
		FiatSpent:       r.FiatSpent.InexactFloat64(),
		BTCBought:       r.BTCBought.InexactFloat64(),
		PriceFiatPerBTC: r.PriceFiatPerBTC.InexactFloat64(),
		Wallet:          r.Wallet,
	}
	if r.TransferTimestamp != nil {
		ts := FormatISO(*r.TransferTimestamp)
		wire.TransferTimestamp = &ts
	}
	return json.Marshal(wire)
}

// String returns a human-readable string representation.
func (r TradeRecord) String() string {
	return fmt.Sprintf("%s spent: %s bought: %s price: %s", r.Key(), r.FiatSpent, r.BTCBought, r.PriceFiatPerBTC)
}

// MyTrade is one entry of the account trade history on the exchange.
type MyTrade struct {
	ID       int64
	OrderID  int64
	Symbol   string
	Price    decimal.Decimal
	Qty      decimal.Decimal
	QuoteQty decimal.Decimal
	Time     time.Time
	IsBuyer  bool
}

// EffectivePrice is the reported fill price, or quoteQty/qty when the price is missing.
func (t MyTrade) EffectivePrice() decimal.Decimal {
	if t.Price.IsPositive() {
		return t.Price
	}
	if !t.Qty.IsZero() {
		return t.QuoteQty.Div(t.Qty)
	}
	return decimal.Zero
}

// Record converts the history entry into a ledger record.
func (t MyTrade) Record(wallet string) TradeRecord {
	return TradeRecord{
		BuyTimestamp:    t.Time.UTC(),
		FiatSpent:       t.QuoteQty,
		BTCBought:       t.Qty,
		PriceFiatPerBTC: t.EffectivePrice(),
		Wallet:          wallet,
	}
}
