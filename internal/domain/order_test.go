package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAveragePrice(t *testing.T) {
	tests := []struct {
		name     string
		order    OrderExecution
		expected decimal.Decimal
	}{
		{
			name: "weighted average of fills",
			order: OrderExecution{
				ExecutedQty: decimal.NewFromInt(2),
				QuoteQty:    decimal.NewFromInt(300),
				Fills: []Fill{
					{Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(100)},
					{Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(200)},
				},
			},
			expected: decimal.NewFromInt(150),
		},
		{
			name: "fills weighted by quantity",
			order: OrderExecution{
				Fills: []Fill{
					{Quantity: decimal.NewFromInt(3), Price: decimal.NewFromInt(100)},
					{Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(200)},
				},
			},
			expected: decimal.NewFromInt(125), // (300 + 200) / 4
		},
		{
			name: "no fills falls back to quote over executed",
			order: OrderExecution{
				ExecutedQty: decimal.NewFromInt(2),
				QuoteQty:    decimal.NewFromInt(300),
			},
			expected: decimal.NewFromInt(150),
		},
		{
			name: "zero quantity fills fall back to quote over executed",
			order: OrderExecution{
				ExecutedQty: decimal.NewFromInt(4),
				QuoteQty:    decimal.NewFromInt(400),
				Fills:       []Fill{{Quantity: decimal.Zero, Price: decimal.NewFromInt(1)}},
			},
			expected: decimal.NewFromInt(100),
		},
		{
			name: "no fills and zero executed quantity",
			order: OrderExecution{
				QuoteQty: decimal.NewFromInt(300),
			},
			expected: decimal.Zero,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AveragePrice(tt.order)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestOrderExecution_Timestamp(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("uses transact time", func(t *testing.T) {
		ts := time.UnixMilli(1700000000123)
		o := OrderExecution{TransactTime: ts}
		assert.True(t, ts.Equal(o.Timestamp(now)))
	})

	t.Run("falls back to now", func(t *testing.T) {
		o := OrderExecution{}
		assert.True(t, now.Equal(o.Timestamp(now)))
	})
}

func TestParseDecimalOrZero(t *testing.T) {
	assert.True(t, decimal.RequireFromString("0.00123").Equal(ParseDecimalOrZero("0.00123")))
	assert.True(t, ParseDecimalOrZero("").IsZero())
	assert.True(t, ParseDecimalOrZero("not-a-number").IsZero())
}

func TestAssetBalance_Total(t *testing.T) {
	b := NewAssetBalance("ARS", decimal.NewFromInt(50000), decimal.NewFromInt(250))
	assert.True(t, decimal.NewFromInt(50250).Equal(b.Total()))
	assert.True(t, ZeroBalance("BTC").Total().IsZero())
}
