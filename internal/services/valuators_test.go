package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfel-app/portfel/internal/models"
)

func TestValueCashSkipsMissingRate(t *testing.T) {
	lines := []CashLine{
		{Currency: "PLN", Available: decimal.NewFromInt(100)},
		{Currency: "USD", Available: decimal.NewFromInt(25)},
		{Currency: "GBP", Available: decimal.NewFromInt(999)},
	}
	total, health := ValueCash(lines, "PLN", rates())

	assert.Equal(t, "200.00", total.StringFixed(2))
	assert.True(t, health.NeedsReview)
	assert.Equal(t, 1, health.MissingRates)
}

func TestValueBrokeragePositions(t *testing.T) {
	quotes := Quotes{
		"AAPL": {Price: decimal.NewFromInt(200), Currency: "USD"},
	}
	positions := []PositionLine{
		{Symbol: "AAPL", MIC: "XNAS", Quantity: decimal.NewFromInt(10), AvgCost: decimal.NewFromInt(100)},
		{Symbol: "MSFT", MIC: "XNAS", Quantity: decimal.NewFromInt(5), AvgCost: decimal.NewFromInt(300)},
	}
	out := ValueBrokerage(nil, positions, quotes, "PLN", rates())

	assert.Equal(t, "8000.00", out.Stocks.StringFixed(2))
	assert.Equal(t, 1, out.Health.MissingQuotes)
	require.Len(t, out.Positions, 1)
	assert.Equal(t, "AAPL", out.Positions[0].Symbol)
	// 10 @ 100 cost, now worth 2000 USD: pnl 100%.
	assert.True(t, out.Positions[0].PnLPct.Equal(decimal.NewFromInt(1)))
}

func TestValueBrokerageZeroCostGuard(t *testing.T) {
	quotes := Quotes{"FREE": {Price: decimal.NewFromInt(10), Currency: "PLN"}}
	positions := []PositionLine{
		{Symbol: "FREE", Quantity: decimal.NewFromInt(3), AvgCost: decimal.Zero},
	}
	out := ValueBrokerage(nil, positions, quotes, "PLN", rates())
	require.Len(t, out.Positions, 1)
	assert.True(t, out.Positions[0].PnLPct.IsZero())
}

func TestValueMetalsTroyOunce(t *testing.T) {
	holdings := []models.MetalHolding{{
		Metal:        "gold",
		QuoteSymbol:  "XAUUSD",
		Grams:        decimal.RequireFromString("31.1034768"),
		CostBasis:    decimal.NewFromInt(5000),
		CostCurrency: "PLN",
	}}
	quotes := Quotes{"XAUUSD": {Price: decimal.NewFromInt(2000), Currency: "USD"}}

	out := ValueMetals(holdings, quotes, "PLN", rates())
	// Exactly one troy ounce at 2000 USD, converted at 4.0.
	assert.Equal(t, "8000.00", out.Value.StringFixed(2))
	assert.Equal(t, 0, out.Health.MissingQuotes)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "g", out.Items[0].QtyUnit)
}

func TestValueMetalsCostBasisFallback(t *testing.T) {
	holdings := []models.MetalHolding{{
		Metal:        "silver",
		QuoteSymbol:  "XAGUSD",
		Grams:        decimal.NewFromInt(500),
		CostBasis:    decimal.NewFromInt(1500),
		CostCurrency: "PLN",
	}}
	out := ValueMetals(holdings, Quotes{}, "PLN", rates())

	assert.Equal(t, "1500.00", out.Value.StringFixed(2))
	assert.Equal(t, 1, out.Health.MissingQuotes)
}

func asOf(day int) time.Time {
	return time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC)
}

func TestLookupRealEstatePriceFallbackChain(t *testing.T) {
	prices := []models.RealEstatePrice{
		{Type: "apartment", Country: "PL", City: "Warszawa", Currency: "PLN", PricePerM2: decimal.NewFromInt(16000), AsOf: asOf(1)},
		{Type: "apartment", Country: "PL", City: "", Currency: "PLN", PricePerM2: decimal.NewFromInt(11000), AsOf: asOf(1)},
		{Type: "apartment", Country: "", City: "", Currency: "PLN", PricePerM2: decimal.NewFromInt(9000), AsOf: asOf(1)},
		{Type: "apartment", Country: "", City: "", Currency: "EUR", PricePerM2: decimal.NewFromInt(2000), AsOf: asOf(1)},
	}

	p, ok := LookupRealEstatePrice(prices, "apartment", "PL", "Warszawa", "PLN")
	require.True(t, ok)
	assert.True(t, p.PricePerM2.Equal(decimal.NewFromInt(16000)))

	p, ok = LookupRealEstatePrice(prices, "apartment", "PL", "Krakow", "PLN")
	require.True(t, ok)
	assert.True(t, p.PricePerM2.Equal(decimal.NewFromInt(11000)))

	p, ok = LookupRealEstatePrice(prices, "apartment", "DE", "Berlin", "PLN")
	require.True(t, ok)
	assert.True(t, p.PricePerM2.Equal(decimal.NewFromInt(9000)))

	// Last step ignores currency entirely.
	p, ok = LookupRealEstatePrice(prices, "apartment", "DE", "Berlin", "GBP")
	require.True(t, ok)
	assert.Equal(t, "apartment", p.Type)

	_, ok = LookupRealEstatePrice(prices, "house", "PL", "Warszawa", "PLN")
	assert.False(t, ok)
}

func TestLookupRealEstatePriceNewestWins(t *testing.T) {
	prices := []models.RealEstatePrice{
		{Type: "apartment", Country: "PL", City: "Warszawa", Currency: "PLN", PricePerM2: decimal.NewFromInt(14000), AsOf: asOf(1)},
		{Type: "apartment", Country: "PL", City: "Warszawa", Currency: "PLN", PricePerM2: decimal.NewFromInt(16500), AsOf: asOf(15)},
	}
	p, ok := LookupRealEstatePrice(prices, "apartment", "PL", "Warszawa", "PLN")
	require.True(t, ok)
	assert.True(t, p.PricePerM2.Equal(decimal.NewFromInt(16500)))
}

func TestValueRealEstatesPurchaseFallback(t *testing.T) {
	estates := []models.RealEstate{{
		Name:             "Flat",
		Type:             "apartment",
		Country:          "PL",
		City:             "Warszawa",
		AreaM2:           decimal.NewFromInt(50),
		PurchasePrice:    decimal.NewFromInt(600000),
		PurchaseCurrency: "PLN",
	}}

	// No catalog price: purchase price is used and flagged.
	out := ValueRealEstates(estates, nil, "PLN", rates())
	assert.Equal(t, "600000.00", out.Value.StringFixed(2))
	assert.Equal(t, 1, out.Health.MissingPrices)

	prices := []models.RealEstatePrice{{
		Type: "apartment", Country: "PL", City: "Warszawa", Currency: "PLN",
		PricePerM2: decimal.NewFromInt(16000), AsOf: asOf(1),
	}}
	out = ValueRealEstates(estates, prices, "PLN", rates())
	assert.Equal(t, "800000.00", out.Value.StringFixed(2))
	assert.Equal(t, 0, out.Health.MissingPrices)
}
