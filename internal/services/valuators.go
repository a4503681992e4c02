package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/portfel-app/portfel/internal/models"
)

// Health collects the degradation flags a valuator surfaces instead of
// failing the request. Zero value means healthy.
type Health struct {
	NeedsReview        bool `json:"needs_review,omitempty"`
	MissingRates       int  `json:"missing_rates,omitempty"`
	MissingQuotes      int  `json:"missing_quotes,omitempty"`
	StaleQuotes        int  `json:"stale_quotes,omitempty"`
	MissingPrices      int  `json:"missing_prices,omitempty"`
	ProjectionMismatch bool `json:"projection_mismatch,omitempty"`
}

// Merge folds another health report into h.
func (h *Health) Merge(other Health) {
	h.NeedsReview = h.NeedsReview || other.NeedsReview
	h.MissingRates += other.MissingRates
	h.MissingQuotes += other.MissingQuotes
	h.StaleQuotes += other.StaleQuotes
	h.MissingPrices += other.MissingPrices
	h.ProjectionMismatch = h.ProjectionMismatch || other.ProjectionMismatch
}

// CashLine is one deposit account's balance as valuator input.
type CashLine struct {
	AccountID string
	Name      string
	Currency  string
	Available decimal.Decimal
}

// ValueCash sums available balances converted into the target currency.
// A missing rate marks the result needs_review and skips the amount rather
// than counting it as zero.
func ValueCash(lines []CashLine, target string, rates Rates) (decimal.Decimal, Health) {
	total := decimal.Zero
	var health Health
	for _, line := range lines {
		v, ok := ConvertMoney(line.Available, line.Currency, target, rates)
		if !ok {
			health.NeedsReview = true
			health.MissingRates++
			continue
		}
		total = total.Add(v)
	}
	return total, health
}

// PositionLine is one holding plus its instrument metadata.
type PositionLine struct {
	Symbol   string
	MIC      string
	Quantity decimal.Decimal
	AvgCost  decimal.Decimal
}

// PositionValue is a valued position for the tree payload.
type PositionValue struct {
	Symbol          string          `json:"symbol"`
	MIC             string          `json:"mic"`
	Value           decimal.Decimal `json:"value"`
	ValueDefaultCcy decimal.Decimal `json:"value_default_ccy"`
	PnLPct          decimal.Decimal `json:"pnl_pct"`
	Currency        string          `json:"currency"`
}

// BrokerageValuation splits a brokerage account into its cash lines and
// valued stock positions.
type BrokerageValuation struct {
	Cash      decimal.Decimal
	Stocks    decimal.Decimal
	Positions []PositionValue
	Health    Health
}

// ValueBrokerage values linked cash plus each holding with a live quote.
// Holdings without a quote are skipped and counted in missing_quotes.
// Per-position pnl_pct guards the zero-cost case by returning zero.
func ValueBrokerage(cash []CashLine, positions []PositionLine, quotes Quotes, target string, rates Rates) BrokerageValuation {
	out := BrokerageValuation{Positions: make([]PositionValue, 0, len(positions))}

	cashTotal, cashHealth := ValueCash(cash, target, rates)
	out.Cash = cashTotal
	out.Health.Merge(cashHealth)

	stocks := decimal.Zero
	for _, p := range positions {
		q, ok := QuoteFor(p.Symbol, quotes)
		if !ok {
			out.Health.MissingQuotes++
			continue
		}
		valueSource := p.Quantity.Mul(q.Price)
		value, ok := ConvertMoney(valueSource, q.Currency, target, rates)
		if !ok {
			out.Health.NeedsReview = true
			out.Health.MissingRates++
			continue
		}

		cost := p.Quantity.Mul(p.AvgCost)
		pnlPct := decimal.Zero
		if !cost.IsZero() {
			pnlPct = valueSource.Sub(cost).DivRound(cost, avgCostScale)
		}

		stocks = stocks.Add(value)
		out.Positions = append(out.Positions, PositionValue{
			Symbol:          p.Symbol,
			MIC:             p.MIC,
			Value:           valueSource.RoundBank(2),
			ValueDefaultCcy: value,
			PnLPct:          pnlPct,
			Currency:        q.Currency,
		})
	}
	out.Stocks = stocks
	return out
}

// MetalItem is a valued metal holding for the tree payload.
type MetalItem struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	QtyUnit  string          `json:"qty_unit"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"ccy"`
}

// MetalValuation is the metal section of one wallet.
type MetalValuation struct {
	Value  decimal.Decimal
	Items  []MetalItem
	Health Health
}

// ValueMetals values each holding at (grams / troy ounce) · quote price when
// a quote exists, falling back to cost basis otherwise.
func ValueMetals(holdings []models.MetalHolding, quotes Quotes, target string, rates Rates) MetalValuation {
	out := MetalValuation{Items: make([]MetalItem, 0, len(holdings))}
	total := decimal.Zero
	for _, h := range holdings {
		valueSource := h.CostBasis
		sourceCcy := h.CostCurrency
		if q, ok := QuoteFor(h.QuoteSymbol, quotes); ok && h.QuoteSymbol != "" {
			valueSource = h.Grams.Div(models.GramsPerTroyOunce).Mul(q.Price)
			sourceCcy = q.Currency
		} else {
			out.Health.MissingQuotes++
		}

		value, ok := ConvertMoney(valueSource, sourceCcy, target, rates)
		if !ok {
			out.Health.NeedsReview = true
			out.Health.MissingRates++
			continue
		}
		total = total.Add(value)
		out.Items = append(out.Items, MetalItem{
			Name:     h.Metal,
			Quantity: h.Grams,
			QtyUnit:  "g",
			Value:    value,
			Currency: target,
		})
	}
	out.Value = total
	return out
}

// RealEstateItem is a valued property for the tree payload.
type RealEstateItem struct {
	Name     string          `json:"name"`
	City     string          `json:"city"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"ccy"`
}

// RealEstateValuation is the real-estate section of one wallet.
type RealEstateValuation struct {
	Value  decimal.Decimal
	Items  []RealEstateItem
	Health Health
}

// LookupRealEstatePrice resolves the reference price per m² for a property
// through the fallback chain, newest-first within each step:
// (type,country,city,ccy) → (type,country,*,ccy) → (type,*,*,ccy) → (type,*,*,*).
func LookupRealEstatePrice(prices []models.RealEstatePrice, reType, country, city, currency string) (models.RealEstatePrice, bool) {
	sorted := make([]models.RealEstatePrice, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].AsOf.After(sorted[j].AsOf) })

	steps := []func(p models.RealEstatePrice) bool{
		func(p models.RealEstatePrice) bool {
			return p.Type == reType && p.Country == country && p.City == city && p.Currency == currency
		},
		func(p models.RealEstatePrice) bool {
			return p.Type == reType && p.Country == country && p.City == "" && p.Currency == currency
		},
		func(p models.RealEstatePrice) bool {
			return p.Type == reType && p.Country == "" && p.City == "" && p.Currency == currency
		},
		func(p models.RealEstatePrice) bool {
			return p.Type == reType
		},
	}
	for _, match := range steps {
		for _, p := range sorted {
			if match(p) {
				return p, true
			}
		}
	}
	return models.RealEstatePrice{}, false
}

// ValueRealEstates values each property at area · reference price per m²
// when the catalog has one; otherwise the purchase price is used and
// missing_prices is incremented.
func ValueRealEstates(estates []models.RealEstate, prices []models.RealEstatePrice, target string, rates Rates) RealEstateValuation {
	out := RealEstateValuation{Items: make([]RealEstateItem, 0, len(estates))}
	total := decimal.Zero
	for _, re := range estates {
		valueSource := re.PurchasePrice
		sourceCcy := re.PurchaseCurrency
		if price, ok := LookupRealEstatePrice(prices, re.Type, re.Country, re.City, re.PurchaseCurrency); ok && re.AreaM2.IsPositive() {
			valueSource = re.AreaM2.Mul(price.PricePerM2)
			sourceCcy = price.Currency
		} else {
			out.Health.MissingPrices++
		}

		value, ok := ConvertMoney(valueSource, sourceCcy, target, rates)
		if !ok {
			out.Health.NeedsReview = true
			out.Health.MissingRates++
			continue
		}
		total = total.Add(value)
		out.Items = append(out.Items, RealEstateItem{
			Name:     re.Name,
			City:     re.City,
			Value:    value,
			Currency: target,
		})
	}
	out.Value = total
	return out
}
