// Package domain defines the value types shared by the exchange client and the swap services.
package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetBalance is the state of a single asset on the exchange account at poll time.
type AssetBalance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// NewAssetBalance creates a new AssetBalance.
func NewAssetBalance(asset string, free, locked decimal.Decimal) AssetBalance {
	return AssetBalance{
		Asset:  asset,
		Free:   free,
		Locked: locked,
	}
}

// ZeroBalance is returned for assets the account does not hold.
func ZeroBalance(asset string) AssetBalance {
	return NewAssetBalance(asset, decimal.Zero, decimal.Zero)
}

// Total returns free + locked.
func (b AssetBalance) Total() decimal.Decimal {
	return b.Free.Add(b.Locked)
}

// String returns a human-readable string representation.
func (b AssetBalance) String() string {
	return fmt.Sprintf("%s free: %s locked: %s total: %s",
		b.Asset, b.Free.StringFixed(8), b.Locked.StringFixed(8), b.Total().StringFixed(8))
}

// ParseDecimalOrZero parses an exchange numeric string, reading blanks and garbage as zero.
func ParseDecimalOrZero(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
