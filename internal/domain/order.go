package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketOrder is a request for a MARKET order. Exactly one of Quantity
// (base asset) or QuoteOrderQty (quote asset to spend) must be set.
type MarketOrder struct {
	Symbol        string
	Side          Side
	Quantity      decimal.NullDecimal
	QuoteOrderQty decimal.NullDecimal
}

// Fill is a partial execution of an order.
type Fill struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// OrderExecution is the exchange's answer to a market order.
type OrderExecution struct {
	OrderID       int64
	ClientOrderID string
	Symbol        string
	Status        string
	// ExecutedQty quantity of the base asset that was bought or sold.
	ExecutedQty decimal.Decimal
	// QuoteQty cumulative quote amount spent or received.
	QuoteQty decimal.Decimal
	Fills    []Fill
	// TransactTime zero when the exchange did not report it.
	TransactTime time.Time
}

// Timestamp returns the transaction time of the order or now if the exchange omitted it.
func (o OrderExecution) Timestamp(now time.Time) time.Time {
	if o.TransactTime.IsZero() {
		return now.UTC()
	}
	return o.TransactTime.UTC()
}

// AveragePrice reconstructs the execution price of an order.
// Fills give a quantity-weighted average; without usable fills the cumulative
// quote amount is divided by the executed quantity; if neither is available
// the price is zero.
func AveragePrice(o OrderExecution) decimal.Decimal {
	totalQty := decimal.Zero
	totalQuote := decimal.Zero
	for _, f := range o.Fills {
		totalQty = totalQty.Add(f.Quantity)
		totalQuote = totalQuote.Add(f.Quantity.Mul(f.Price))
	}

	if totalQty.IsPositive() && totalQuote.IsPositive() {
		return totalQuote.Div(totalQty)
	}

	if o.ExecutedQty.IsPositive() && o.QuoteQty.IsPositive() {
		return o.QuoteQty.Div(o.ExecutedQty)
	}

	return decimal.Zero
}
