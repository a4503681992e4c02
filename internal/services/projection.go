package services

import (
	"sort"

	"github.com/shopspring/decimal"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/models"
)

// avgCostScale is the decimal scale of average cost and realized P&L.
const avgCostScale = 8

// Position is the projected (quantity, avg_cost) state of one
// (brokerage account, instrument) pair.
type Position struct {
	Quantity decimal.Decimal
	AvgCost  decimal.Decimal
}

// RealizedGain is the P&L surfaced by a SELL or the cash surfaced by a DIV.
type RealizedGain struct {
	EventID  string
	Kind     string // models.GainBrokerRealizedPnL or models.GainBrokerDividend
	Amount   decimal.Decimal
	Currency string
}

// SortEvents orders events chronologically by trade_at with ties broken by
// the insert sequence, which is stable under replays.
func SortEvents(events []models.BrokerageEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].TradeAt.Equal(events[j].TradeAt) {
			return events[i].Sequence < events[j].Sequence
		}
		return events[i].TradeAt.Before(events[j].TradeAt)
	})
}

// ApplyEvent transforms a position by one event:
//
//	BUY:   qty += Δ; avg_cost = (qty·avg + Δ·price) / new_qty
//	SELL:  qty -= Δ (never negative); avg unchanged; realized = Δ·(price−avg)
//	DIV:   no position change; surfaces a dividend gain
//	SPLIT: qty ·= r; avg /= r; total cost preserved
func ApplyEvent(pos Position, ev *models.BrokerageEvent) (Position, *RealizedGain, error) {
	switch ev.Type {
	case models.EventBuy:
		newQty := pos.Quantity.Add(ev.Quantity)
		cost := pos.Quantity.Mul(pos.AvgCost).Add(ev.Quantity.Mul(ev.Price))
		pos.AvgCost = cost.DivRound(newQty, avgCostScale)
		pos.Quantity = newQty
		return pos, nil, nil

	case models.EventSell:
		if ev.Quantity.GreaterThan(pos.Quantity) {
			return pos, nil, apperrors.Validationf("projector.sell",
				"insufficient quantity: have %s, sell %s", pos.Quantity.String(), ev.Quantity.String())
		}
		realized := ev.Quantity.Mul(ev.Price.Sub(pos.AvgCost)).Round(avgCostScale)
		pos.Quantity = pos.Quantity.Sub(ev.Quantity)
		if pos.Quantity.IsZero() {
			pos.AvgCost = decimal.Zero
		}
		return pos, &RealizedGain{
			EventID:  ev.ID,
			Kind:     models.GainBrokerRealizedPnL,
			Amount:   realized,
			Currency: ev.Currency,
		}, nil

	case models.EventDividend:
		return pos, &RealizedGain{
			EventID:  ev.ID,
			Kind:     models.GainBrokerDividend,
			Amount:   ev.Price,
			Currency: ev.Currency,
		}, nil

	case models.EventSplit:
		ratio := *ev.SplitRatio
		pos.Quantity = pos.Quantity.Mul(ratio)
		if !ratio.IsZero() {
			pos.AvgCost = pos.AvgCost.DivRound(ratio, avgCostScale)
		}
		return pos, nil, nil
	}

	return pos, nil, apperrors.Validationf("projector.apply", "unknown event type %q", ev.Type)
}

// Replay projects the full ordered event stream of one (account, instrument)
// pair into its position. Editing or deleting a historical event must go
// through a full replay; local inversion is not commutative under SPLIT.
func Replay(events []models.BrokerageEvent) (Position, []RealizedGain, error) {
	SortEvents(events)

	pos := Position{Quantity: decimal.Zero, AvgCost: decimal.Zero}
	var gains []RealizedGain
	for i := range events {
		next, gain, err := ApplyEvent(pos, &events[i])
		if err != nil {
			return pos, gains, err
		}
		pos = next
		if gain != nil {
			gains = append(gains, *gain)
		}
	}
	return pos, gains, nil
}
