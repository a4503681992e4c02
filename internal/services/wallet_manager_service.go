package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
)

// WalletTree is one wallet fully valued in its base currency: live sections
// per asset class, per-entity frozen history, activity counts and the FX
// tables the history was converted with.
type WalletTree struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BaseCurrency string          `json:"base_ccy"`
	Health       Health          `json:"health"`
	Total        decimal.Decimal `json:"total"`

	DepositAccounts   []DepositAccountNode   `json:"deposit_accounts"`
	BrokerageAccounts []BrokerageAccountNode `json:"brokerage_accounts"`
	Metals            MetalSection           `json:"metals"`
	RealEstates       RealEstateSection      `json:"real_estate"`

	Snapshots map[string]WalletMonthSnapshot `json:"snapshots"`
	FxByMonth map[string]Rates               `json:"fx_by_month"`
}

// WalletMonthSnapshot is one month of frozen history broken down by asset
// class, all in the wallet base currency. Total is the exact sum of the
// rounded components. MoMPct is nil whenever the directly preceding month is
// absent or zero.
type WalletMonthSnapshot struct {
	Currency    string           `json:"ccy"`
	CashDeposit decimal.Decimal  `json:"cash_deposit"`
	CashBroker  decimal.Decimal  `json:"cash_broker"`
	Stocks      decimal.Decimal  `json:"stocks"`
	Metals      decimal.Decimal  `json:"metals"`
	RealEstate  decimal.Decimal  `json:"real_estate"`
	Total       decimal.Decimal  `json:"total"`
	MoMPct      *decimal.Decimal `json:"mom_pct,omitempty"`
}

// DepositAccountNode is one cash account in the tree with its native-value
// frozen history and per-month transaction counts.
type DepositAccountNode struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	Currency        string          `json:"ccy"`
	Available       decimal.Decimal `json:"available"`
	Blocked         decimal.Decimal `json:"blocked"`
	ValueDefaultCcy decimal.Decimal `json:"value_default_ccy"`
	TxPerMonth      map[string]int  `json:"tx_per_month"`
	Health          Health          `json:"health"`

	Snapshots map[string]DepositMonthSnapshot `json:"snapshots"`
}

// DepositMonthSnapshot is one frozen month of a deposit account, in the
// account's own currency.
type DepositMonthSnapshot struct {
	Currency  string          `json:"ccy"`
	Available decimal.Decimal `json:"available"`
}

// BrokerageAccountNode is one brokerage account with its linked cash, valued
// positions, event counts and frozen history.
type BrokerageAccountNode struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Currency        string                 `json:"ccy"`
	CashAccounts    []BrokerageCashAccount `json:"cash_accounts"`
	SumCashAccounts decimal.Decimal        `json:"sum_cash_accounts"`
	Positions       []PositionValue        `json:"positions"`
	PositionsCount  int                    `json:"positions_count"`
	PositionsValue  decimal.Decimal        `json:"positions_value"`
	EventsPerMonth  map[string]int         `json:"events_per_month"`
	Health          Health                 `json:"health"`

	Snapshots map[string]BrokerageMonthSnapshot `json:"snapshots"`
}

// BrokerageCashAccount is one linked deposit account shown under the
// brokerage, in its native currency.
type BrokerageCashAccount struct {
	DepositAccountID string          `json:"deposit_account_id"`
	Name             string          `json:"name"`
	Currency         string          `json:"ccy"`
	Available        decimal.Decimal `json:"available"`
}

// BrokerageMonthSnapshot is one frozen month of a brokerage account in the
// currency it was frozen in.
type BrokerageMonthSnapshot struct {
	Currency string          `json:"ccy"`
	Cash     decimal.Decimal `json:"cash"`
	Stocks   decimal.Decimal `json:"stocks"`
}

// MetalSection is the metals part of the tree.
type MetalSection struct {
	Count    int             `json:"count"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"ccy"`
	Items    []MetalItem     `json:"items"`
	Health   Health          `json:"health"`
}

// RealEstateSection is the properties part of the tree.
type RealEstateSection struct {
	Count    int              `json:"count"`
	Value    decimal.Decimal  `json:"value"`
	Currency string           `json:"ccy"`
	Items    []RealEstateItem `json:"items"`
	Health   Health           `json:"health"`
}

type walletManagerService struct {
	db     *db.DB
	quotes QuoteSource
	logger *zap.Logger
	now    func() time.Time
}

// NewWalletManagerService creates a new wallet manager service.
func NewWalletManagerService(database *db.DB, quotes QuoteSource, logger *zap.Logger) WalletManagerService {
	return &walletManagerService{db: database, quotes: quotes, logger: logger, now: time.Now}
}

// Tree values every wallet of the user. All quotes are fetched in one batch
// before any valuation; a missing quote or rate degrades the affected section
// and flips a health flag instead of failing the request. History months
// whose FX snapshot is missing are omitted entirely.
func (s *walletManagerService) Tree(ctx context.Context, userID string, months int, currencyRates Rates) ([]*WalletTree, error) {
	var wallets []models.Wallet
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&wallets).Error; err != nil {
		return nil, apperrors.Internal("tree.load", err)
	}
	if len(wallets) == 0 {
		return []*WalletTree{}, nil
	}
	walletIDs := make([]string, len(wallets))
	for i, w := range wallets {
		walletIDs[i] = w.ID
	}

	var deposits []models.DepositAccount
	if err := s.db.WithContext(ctx).Preload("Balance").
		Where("wallet_id IN ?", walletIDs).Find(&deposits).Error; err != nil {
		return nil, apperrors.Internal("tree.load", err)
	}
	depositByID := make(map[string]models.DepositAccount, len(deposits))
	depositIDs := make([]string, 0, len(deposits))
	for _, d := range deposits {
		depositByID[d.ID] = d
		depositIDs = append(depositIDs, d.ID)
	}

	var brokerages []models.BrokerageAccount
	if err := s.db.WithContext(ctx).Preload("Links").Preload("Holdings").
		Where("wallet_id IN ?", walletIDs).Find(&brokerages).Error; err != nil {
		return nil, apperrors.Internal("tree.load", err)
	}
	brokerageIDs := make([]string, 0, len(brokerages))
	for _, b := range brokerages {
		brokerageIDs = append(brokerageIDs, b.ID)
	}

	var instruments []models.Instrument
	if err := s.db.WithContext(ctx).Find(&instruments).Error; err != nil {
		return nil, apperrors.Internal("tree.load", err)
	}
	instByID := make(map[string]models.Instrument, len(instruments))
	for _, inst := range instruments {
		instByID[inst.ID] = inst
	}

	var metals []models.MetalHolding
	if err := s.db.WithContext(ctx).Where("wallet_id IN ?", walletIDs).Find(&metals).Error; err != nil {
		return nil, apperrors.Internal("tree.load", err)
	}
	var estates []models.RealEstate
	if err := s.db.WithContext(ctx).Where("wallet_id IN ?", walletIDs).Find(&estates).Error; err != nil {
		return nil, apperrors.Internal("tree.load", err)
	}
	var prices []models.RealEstatePrice
	if err := s.db.WithContext(ctx).Find(&prices).Error; err != nil {
		return nil, apperrors.Internal("tree.load", err)
	}

	// One batched quote call for every symbol any wallet needs. A dead
	// market-data service degrades to missing quotes across the board.
	symbolSet := make(map[string]bool)
	for _, b := range brokerages {
		for _, h := range b.Holdings {
			if inst, ok := instByID[h.InstrumentID]; ok {
				symbolSet[inst.Symbol] = true
			}
		}
	}
	for _, m := range metals {
		if m.QuoteSymbol != "" {
			symbolSet[m.QuoteSymbol] = true
		}
	}
	symbols := make([]string, 0, len(symbolSet))
	for sym := range symbolSet {
		symbols = append(symbols, sym)
	}
	quotes, err := s.quotes.GetLatestQuotesForSymbols(ctx, symbols)
	if err != nil {
		s.logger.Warn("quote fetch failed, valuing without quotes", zap.Error(err))
		quotes = Quotes{}
	}

	history, err := s.loadHistory(ctx, walletIDs, months)
	if err != nil {
		return nil, err
	}
	txCounts, eventCounts, err := s.loadActivity(ctx, depositIDs, brokerageIDs, history.monthKeys)
	if err != nil {
		return nil, err
	}

	fxRendered := make(map[string]Rates, len(history.monthKeys))
	for _, k := range history.monthKeys {
		fxRendered[k] = history.fxByMonth[k]
	}

	out := make([]*WalletTree, 0, len(wallets))
	for _, w := range wallets {
		tree := s.buildWallet(&w, deposits, brokerages, instByID, depositByID, metals, estates, prices, quotes, currencyRates, history, txCounts, eventCounts)
		tree.FxByMonth = fxRendered
		out = append(out, tree)
	}
	return out, nil
}

func (s *walletManagerService) buildWallet(
	w *models.Wallet,
	deposits []models.DepositAccount,
	brokerages []models.BrokerageAccount,
	instByID map[string]models.Instrument,
	depositByID map[string]models.DepositAccount,
	metals []models.MetalHolding,
	estates []models.RealEstate,
	prices []models.RealEstatePrice,
	quotes Quotes,
	rates Rates,
	history *walletHistory,
	txCounts map[string]map[string]int,
	eventCounts map[string]map[string]int,
) *WalletTree {
	tree := &WalletTree{
		ID:                w.ID,
		Name:              w.Name,
		BaseCurrency:      w.BaseCurrency,
		DepositAccounts:   []DepositAccountNode{},
		BrokerageAccounts: []BrokerageAccountNode{},
	}
	total := decimal.Zero

	// Cash linked to a brokerage account shows under the brokerage section,
	// not double-counted in the flat account list.
	linked := make(map[string]bool)
	for _, b := range brokerages {
		if b.WalletID != w.ID {
			continue
		}
		for _, l := range b.Links {
			linked[l.DepositAccountID] = true
		}
	}

	for _, d := range deposits {
		if d.WalletID != w.ID {
			continue
		}
		available, blocked := decimal.Zero, decimal.Zero
		if d.Balance != nil {
			available = d.Balance.Available
			blocked = d.Balance.Blocked
		}
		node := DepositAccountNode{
			ID:         d.ID,
			Name:       d.Name,
			Type:       d.Type,
			Currency:   d.Currency,
			Available:  available,
			Blocked:    blocked,
			TxPerMonth: activityFor(txCounts, d.ID),
			Snapshots:  history.depositSnapshotsFor(d.ID),
		}
		if v, ok := ConvertMoney(available, d.Currency, w.BaseCurrency, rates); ok {
			node.ValueDefaultCcy = v
			if !linked[d.ID] {
				total = total.Add(v)
			}
		} else {
			node.Health.NeedsReview = true
			node.Health.MissingRates++
			tree.Health.Merge(node.Health)
		}
		tree.DepositAccounts = append(tree.DepositAccounts, node)
	}

	for _, b := range brokerages {
		if b.WalletID != w.ID {
			continue
		}
		cashAccounts := make([]BrokerageCashAccount, 0, len(b.Links))
		cash := make([]CashLine, 0, len(b.Links))
		for _, l := range b.Links {
			d, ok := depositByID[l.DepositAccountID]
			if !ok || d.Balance == nil {
				continue
			}
			cashAccounts = append(cashAccounts, BrokerageCashAccount{
				DepositAccountID: d.ID,
				Name:             d.Name,
				Currency:         d.Currency,
				Available:        d.Balance.Available,
			})
			cash = append(cash, CashLine{AccountID: d.ID, Name: d.Name, Currency: d.Currency, Available: d.Balance.Available})
		}
		positions := make([]PositionLine, 0, len(b.Holdings))
		for _, h := range b.Holdings {
			inst, ok := instByID[h.InstrumentID]
			if !ok {
				continue
			}
			positions = append(positions, PositionLine{
				Symbol:   inst.Symbol,
				MIC:      inst.MIC,
				Quantity: h.Quantity,
				AvgCost:  h.AvgCost,
			})
		}
		valuation := ValueBrokerage(cash, positions, quotes, w.BaseCurrency, rates)
		tree.Health.Merge(valuation.Health)
		total = total.Add(valuation.Cash).Add(valuation.Stocks)
		tree.BrokerageAccounts = append(tree.BrokerageAccounts, BrokerageAccountNode{
			ID:              b.ID,
			Name:            b.Name,
			Currency:        w.BaseCurrency,
			CashAccounts:    cashAccounts,
			SumCashAccounts: valuation.Cash,
			Positions:       valuation.Positions,
			PositionsCount:  len(valuation.Positions),
			PositionsValue:  valuation.Stocks,
			EventsPerMonth:  activityFor(eventCounts, b.ID),
			Health:          valuation.Health,
			Snapshots:       history.brokerageSnapshotsFor(b.ID),
		})
	}

	walletMetals := make([]models.MetalHolding, 0)
	for _, m := range metals {
		if m.WalletID == w.ID {
			walletMetals = append(walletMetals, m)
		}
	}
	metalVal := ValueMetals(walletMetals, quotes, w.BaseCurrency, rates)
	tree.Health.Merge(metalVal.Health)
	tree.Metals = MetalSection{
		Count:    len(metalVal.Items),
		Value:    metalVal.Value,
		Currency: w.BaseCurrency,
		Items:    metalVal.Items,
		Health:   metalVal.Health,
	}
	total = total.Add(metalVal.Value)

	walletEstates := make([]models.RealEstate, 0)
	for _, re := range estates {
		if re.WalletID == w.ID {
			walletEstates = append(walletEstates, re)
		}
	}
	reVal := ValueRealEstates(walletEstates, prices, w.BaseCurrency, rates)
	tree.Health.Merge(reVal.Health)
	tree.RealEstates = RealEstateSection{
		Count:    len(reVal.Items),
		Value:    reVal.Value,
		Currency: w.BaseCurrency,
		Items:    reVal.Items,
		Health:   reVal.Health,
	}
	total = total.Add(reVal.Value)

	tree.Total = total.RoundBank(2)
	tree.Snapshots = history.walletSnapshotsFor(w.ID, w.BaseCurrency)
	return tree
}

// activityFor returns the per-month count map of one entity, never nil.
func activityFor(counts map[string]map[string]int, id string) map[string]int {
	if m, ok := counts[id]; ok {
		return m
	}
	return map[string]int{}
}

// monthBreakdown accumulates one wallet-month of frozen rows by asset class,
// already converted to the wallet base currency.
type monthBreakdown struct {
	cashDeposit decimal.Decimal
	cashBroker  decimal.Decimal
	stocks      decimal.Decimal
	metals      decimal.Decimal
	realEstate  decimal.Decimal
}

// walletHistory carries the frozen snapshot rows of the requested window,
// bucketed per wallet-month by class and per entity in native values.
type walletHistory struct {
	monthKeys []string
	fxByMonth map[string]Rates
	byWallet  map[string]map[string]*monthBreakdown // wallet -> month -> breakdown

	depositRows   map[string]map[string]models.DepositAccountMonthlySnapshot   // account -> month
	brokerageRows map[string]map[string]models.BrokerageAccountMonthlySnapshot // account -> month
}

// loadHistory reads the snapshot tables for the last n months. Wallet-level
// breakdowns convert each frozen row via that month's frozen FX table;
// months without one are dropped. Per-entity rows stay in native values.
func (s *walletManagerService) loadHistory(ctx context.Context, walletIDs []string, months int) (*walletHistory, error) {
	h := &walletHistory{
		fxByMonth:     map[string]Rates{},
		byWallet:      map[string]map[string]*monthBreakdown{},
		depositRows:   map[string]map[string]models.DepositAccountMonthlySnapshot{},
		brokerageRows: map[string]map[string]models.BrokerageAccountMonthlySnapshot{},
	}
	if months <= 0 {
		return h, nil
	}
	keys := models.LastMonthKeys(s.now(), months)

	var fxRows []models.FxMonthlySnapshot
	if err := s.db.WithContext(ctx).Where("month_key IN ?", keys).Find(&fxRows).Error; err != nil {
		return nil, apperrors.Internal("tree.history", err)
	}
	for _, row := range fxRows {
		rates, err := row.Rates()
		if err != nil {
			s.logger.Warn("corrupt fx snapshot skipped", zap.String("month_key", row.MonthKey), zap.Error(err))
			continue
		}
		h.fxByMonth[row.MonthKey] = rates
	}
	// Only months with a frozen FX table are renderable.
	for _, k := range keys {
		if _, ok := h.fxByMonth[k]; ok {
			h.monthKeys = append(h.monthKeys, k)
		}
	}
	if len(h.monthKeys) == 0 {
		return h, nil
	}

	bucket := func(walletID, monthKey string) *monthBreakdown {
		if h.byWallet[walletID] == nil {
			h.byWallet[walletID] = map[string]*monthBreakdown{}
		}
		b := h.byWallet[walletID][monthKey]
		if b == nil {
			b = &monthBreakdown{}
			h.byWallet[walletID][monthKey] = b
		}
		return b
	}

	// The wallet base currency at render time applies to history too.
	baseCcy := make(map[string]string, len(walletIDs))
	var wallets []models.Wallet
	if err := s.db.WithContext(ctx).Where("id IN ?", walletIDs).Find(&wallets).Error; err != nil {
		return nil, apperrors.Internal("tree.history", err)
	}
	for _, w := range wallets {
		baseCcy[w.ID] = w.BaseCurrency
	}

	var depRows []models.DepositAccountMonthlySnapshot
	if err := s.db.WithContext(ctx).
		Where("wallet_id IN ? AND month_key IN ?", walletIDs, h.monthKeys).
		Find(&depRows).Error; err != nil {
		return nil, apperrors.Internal("tree.history", err)
	}
	for _, row := range depRows {
		if h.depositRows[row.DepositAccountID] == nil {
			h.depositRows[row.DepositAccountID] = map[string]models.DepositAccountMonthlySnapshot{}
		}
		h.depositRows[row.DepositAccountID][row.MonthKey] = row

		rates := h.fxByMonth[row.MonthKey]
		if v, ok := ConvertMoney(row.Available, row.Currency, baseCcy[row.WalletID], rates); ok {
			b := bucket(row.WalletID, row.MonthKey)
			b.cashDeposit = b.cashDeposit.Add(v)
		}
	}

	var brokRows []models.BrokerageAccountMonthlySnapshot
	if err := s.db.WithContext(ctx).
		Where("wallet_id IN ? AND month_key IN ?", walletIDs, h.monthKeys).
		Find(&brokRows).Error; err != nil {
		return nil, apperrors.Internal("tree.history", err)
	}
	for _, row := range brokRows {
		if h.brokerageRows[row.BrokerageAccountID] == nil {
			h.brokerageRows[row.BrokerageAccountID] = map[string]models.BrokerageAccountMonthlySnapshot{}
		}
		h.brokerageRows[row.BrokerageAccountID][row.MonthKey] = row

		rates := h.fxByMonth[row.MonthKey]
		target := baseCcy[row.WalletID]
		if v, ok := ConvertMoney(row.Cash, row.Currency, target, rates); ok {
			b := bucket(row.WalletID, row.MonthKey)
			b.cashBroker = b.cashBroker.Add(v)
		}
		if v, ok := ConvertMoney(row.Stocks, row.Currency, target, rates); ok {
			b := bucket(row.WalletID, row.MonthKey)
			b.stocks = b.stocks.Add(v)
		}
	}

	var metalRows []models.MetalHoldingMonthlySnapshot
	if err := s.db.WithContext(ctx).
		Where("wallet_id IN ? AND month_key IN ?", walletIDs, h.monthKeys).
		Find(&metalRows).Error; err != nil {
		return nil, apperrors.Internal("tree.history", err)
	}
	for _, row := range metalRows {
		rates := h.fxByMonth[row.MonthKey]
		if v, ok := ConvertMoney(row.Value, row.Currency, baseCcy[row.WalletID], rates); ok {
			b := bucket(row.WalletID, row.MonthKey)
			b.metals = b.metals.Add(v)
		}
	}

	var reRows []models.RealEstateMonthlySnapshot
	if err := s.db.WithContext(ctx).
		Where("wallet_id IN ? AND month_key IN ?", walletIDs, h.monthKeys).
		Find(&reRows).Error; err != nil {
		return nil, apperrors.Internal("tree.history", err)
	}
	for _, row := range reRows {
		rates := h.fxByMonth[row.MonthKey]
		if v, ok := ConvertMoney(row.Value, row.Currency, baseCcy[row.WalletID], rates); ok {
			b := bucket(row.WalletID, row.MonthKey)
			b.realEstate = b.realEstate.Add(v)
		}
	}

	return h, nil
}

// loadActivity counts transactions per deposit account and events per
// brokerage account, bucketed by month over the rendered window.
func (s *walletManagerService) loadActivity(ctx context.Context, depositIDs, brokerageIDs, monthKeys []string) (map[string]map[string]int, map[string]map[string]int, error) {
	txCounts := map[string]map[string]int{}
	eventCounts := map[string]map[string]int{}
	if len(monthKeys) == 0 {
		return txCounts, eventCounts, nil
	}
	start, err := models.MonthKeyTime(monthKeys[0])
	if err != nil {
		return nil, nil, apperrors.Internal("tree.activity", err)
	}
	end, err := models.MonthKeyTime(monthKeys[len(monthKeys)-1])
	if err != nil {
		return nil, nil, apperrors.Internal("tree.activity", err)
	}
	end = end.AddDate(0, 1, 0)
	rendered := make(map[string]bool, len(monthKeys))
	for _, k := range monthKeys {
		rendered[k] = true
	}

	if len(depositIDs) > 0 {
		var rows []struct {
			DepositAccountID string
			Date             time.Time
		}
		if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
			Select("deposit_account_id, date").
			Where("deposit_account_id IN ? AND date >= ? AND date < ?", depositIDs, start, end).
			Scan(&rows).Error; err != nil {
			return nil, nil, apperrors.Internal("tree.activity", err)
		}
		for _, row := range rows {
			key := models.MonthKeyOf(row.Date)
			if !rendered[key] {
				continue
			}
			if txCounts[row.DepositAccountID] == nil {
				txCounts[row.DepositAccountID] = map[string]int{}
			}
			txCounts[row.DepositAccountID][key]++
		}
	}

	if len(brokerageIDs) > 0 {
		var rows []struct {
			BrokerageAccountID string
			TradeAt            time.Time
		}
		if err := s.db.WithContext(ctx).Model(&models.BrokerageEvent{}).
			Select("brokerage_account_id, trade_at").
			Where("brokerage_account_id IN ? AND trade_at >= ? AND trade_at < ?", brokerageIDs, start, end).
			Scan(&rows).Error; err != nil {
			return nil, nil, apperrors.Internal("tree.activity", err)
		}
		for _, row := range rows {
			key := models.MonthKeyOf(row.TradeAt)
			if !rendered[key] {
				continue
			}
			if eventCounts[row.BrokerageAccountID] == nil {
				eventCounts[row.BrokerageAccountID] = map[string]int{}
			}
			eventCounts[row.BrokerageAccountID][key]++
		}
	}

	return txCounts, eventCounts, nil
}

// walletSnapshotsFor renders one wallet's frozen months. Every component is
// rounded first and the total is the sum of the rounded components, so the
// published breakdown always adds up exactly.
func (h *walletHistory) walletSnapshotsFor(walletID, baseCurrency string) map[string]WalletMonthSnapshot {
	out := make(map[string]WalletMonthSnapshot, len(h.monthKeys))
	byMonth := h.byWallet[walletID]
	totals := make(map[string]decimal.Decimal, len(h.monthKeys))

	for _, key := range h.monthKeys {
		b := &monthBreakdown{}
		if byMonth != nil && byMonth[key] != nil {
			b = byMonth[key]
		}
		snap := WalletMonthSnapshot{
			Currency:    baseCurrency,
			CashDeposit: b.cashDeposit.RoundBank(2),
			CashBroker:  b.cashBroker.RoundBank(2),
			Stocks:      b.stocks.RoundBank(2),
			Metals:      b.metals.RoundBank(2),
			RealEstate:  b.realEstate.RoundBank(2),
		}
		snap.Total = snap.CashDeposit.Add(snap.CashBroker).Add(snap.Stocks).Add(snap.Metals).Add(snap.RealEstate)
		totals[key] = snap.Total

		// Month-over-month change requires the directly preceding month.
		if prev, err := models.PrevMonthKey(key); err == nil {
			if prevTotal, ok := totals[prev]; ok && !prevTotal.IsZero() {
				mom := snap.Total.Sub(prevTotal).DivRound(prevTotal, 4)
				snap.MoMPct = &mom
			}
		}
		out[key] = snap
	}
	return out
}

// depositSnapshotsFor renders one account's frozen months in native values.
func (h *walletHistory) depositSnapshotsFor(accountID string) map[string]DepositMonthSnapshot {
	out := make(map[string]DepositMonthSnapshot)
	for key, row := range h.depositRows[accountID] {
		out[key] = DepositMonthSnapshot{Currency: row.Currency, Available: row.Available}
	}
	return out
}

// brokerageSnapshotsFor renders one brokerage account's frozen months.
func (h *walletHistory) brokerageSnapshotsFor(accountID string) map[string]BrokerageMonthSnapshot {
	out := make(map[string]BrokerageMonthSnapshot)
	for key, row := range h.brokerageRows[accountID] {
		out[key] = BrokerageMonthSnapshot{Currency: row.Currency, Cash: row.Cash, Stocks: row.Stocks}
	}
	return out
}
