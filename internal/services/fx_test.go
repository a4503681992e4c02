package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rates() Rates {
	return Rates{
		"PLN": decimal.NewFromInt(1),
		"USD": decimal.NewFromFloat(4.0),
		"EUR": decimal.NewFromFloat(4.5),
	}
}

func TestConvertIdentity(t *testing.T) {
	amount := decimal.NewFromFloat(123.45)
	v, ok := Convert(amount, "USD", "USD", Rates{})
	require.True(t, ok)
	assert.True(t, v.Equal(amount))
}

func TestConvertThroughPivot(t *testing.T) {
	v, ok := Convert(decimal.NewFromInt(100), "USD", "PLN", rates())
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromInt(400)))

	// Cross rate goes through the pivot: 90 EUR = 405 PLN = 101.25 USD.
	v, ok = Convert(decimal.NewFromInt(90), "EUR", "USD", rates())
	require.True(t, ok)
	assert.True(t, v.Equal(decimal.NewFromFloat(101.25)))
}

func TestConvertMissingRate(t *testing.T) {
	_, ok := Convert(decimal.NewFromInt(100), "GBP", "PLN", rates())
	assert.False(t, ok)

	_, ok = Convert(decimal.NewFromInt(100), "PLN", "GBP", rates())
	assert.False(t, ok)
}

func TestConvertMoneyBankersRounding(t *testing.T) {
	r := Rates{
		"PLN": decimal.NewFromInt(1),
		"USD": decimal.NewFromInt(4),
	}
	// Ties go to the even cent: 100.125 -> 100.12, 100.135 -> 100.14.
	v, ok := ConvertMoney(decimal.RequireFromString("25.03125"), "USD", "PLN", r)
	require.True(t, ok)
	assert.Equal(t, "100.12", v.StringFixed(2))

	v, ok = ConvertMoney(decimal.RequireFromString("25.03375"), "USD", "PLN", r)
	require.True(t, ok)
	assert.Equal(t, "100.14", v.StringFixed(2))
}

func TestQuoteFor(t *testing.T) {
	quotes := Quotes{"AAPL": {Price: decimal.NewFromInt(190), Currency: "USD"}}
	q, ok := QuoteFor("AAPL", quotes)
	require.True(t, ok)
	assert.Equal(t, "USD", q.Currency)

	_, ok = QuoteFor("MSFT", quotes)
	assert.False(t, ok)
}
