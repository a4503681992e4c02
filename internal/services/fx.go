package services

import (
	"github.com/shopspring/decimal"
)

// Rates is a plain FX table keyed against one pivot currency: rates[CCY] is
// the amount of pivot currency one unit of CCY buys. A complete table
// includes the pivot itself with rate 1.
type Rates map[string]decimal.Decimal

// Quote is one price from the market-data service.
type Quote struct {
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// Quotes is a batch-loaded snapshot of latest quotes, at most one per symbol.
type Quotes map[string]Quote

// Convert converts amount from one currency to another through the rate
// table. The boolean is false when either currency is absent from the table;
// callers must treat that as a health signal, never as zero. No I/O happens
// here; all rate data is passed in.
func Convert(amount decimal.Decimal, from, to string, rates Rates) (decimal.Decimal, bool) {
	if from == to {
		return amount, true
	}
	rf, okFrom := rates[from]
	rt, okTo := rates[to]
	if !okFrom || !okTo || rt.IsZero() {
		return decimal.Decimal{}, false
	}
	return amount.Mul(rf).Div(rt), true
}

// ConvertMoney converts and applies banker's rounding at scale 2. Rounding
// happens only at this final step.
func ConvertMoney(amount decimal.Decimal, from, to string, rates Rates) (decimal.Decimal, bool) {
	v, ok := Convert(amount, from, to, rates)
	if !ok {
		return decimal.Decimal{}, false
	}
	return v.RoundBank(2), true
}

// QuoteFor looks a symbol up in a batch-loaded quote snapshot.
func QuoteFor(symbol string, quotes Quotes) (Quote, bool) {
	q, ok := quotes[symbol]
	return q, ok
}
