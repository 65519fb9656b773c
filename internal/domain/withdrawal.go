package domain

import "github.com/shopspring/decimal"

// Withdrawal moves funds off the exchange. Network and AddressTag are optional.
type Withdrawal struct {
	Coin       string
	Address    string
	Amount     decimal.Decimal
	Network    string
	AddressTag string
}

// WithdrawReceipt is the exchange acknowledgement of a withdrawal.
type WithdrawReceipt struct {
	ID string `json:"id"`
}
