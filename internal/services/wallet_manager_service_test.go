package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
)

func newTreeService(database *db.DB, quotes QuoteSource, now time.Time) *walletManagerService {
	return &walletManagerService{
		db:     database,
		quotes: quotes,
		logger: testLogger(),
		now:    func() time.Time { return now },
	}
}

func seedFxSnapshot(t *testing.T, database *db.DB, monthKey string) {
	t.Helper()
	snap := &models.FxMonthlySnapshot{MonthKey: monthKey}
	require.NoError(t, snap.SetRates(rates()))
	require.NoError(t, database.Create(snap).Error)
}

func seedDepositSnapshot(t *testing.T, database *db.DB, accountID, walletID, monthKey string, available int64) {
	t.Helper()
	require.NoError(t, database.Create(&models.DepositAccountMonthlySnapshot{
		DepositAccountID: accountID,
		MonthKey:         monthKey,
		WalletID:         walletID,
		Available:        decimal.NewFromInt(available),
		Currency:         "PLN",
	}).Error)
}

func seedBrokerageAccount(t *testing.T, database *db.DB, walletID string) *models.BrokerageAccount {
	t.Helper()
	bank := &models.Bank{Name: "Broker " + walletID, ShortCode: "BRK" + walletID[:4]}
	require.NoError(t, database.Create(bank).Error)
	account := &models.BrokerageAccount{WalletID: walletID, BankID: bank.ID, Name: "XTB"}
	require.NoError(t, database.Create(account).Error)
	return account
}

func TestTreeOmitsMonthsWithoutFxSnapshot(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)

	// Frozen FX for March and May only; April has deposit rows but no FX.
	seedFxSnapshot(t, database, "2025-03")
	seedFxSnapshot(t, database, "2025-05")
	seedDepositSnapshot(t, database, account.ID, wallet.ID, "2025-03", 100)
	seedDepositSnapshot(t, database, account.ID, wallet.ID, "2025-04", 200)
	seedDepositSnapshot(t, database, account.ID, wallet.ID, "2025-05", 300)

	svc := newTreeService(database, &fakeQuoteSource{}, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC))
	trees, err := svc.Tree(context.Background(), wallet.UserID, 3, rates())
	require.NoError(t, err)
	require.Len(t, trees, 1)

	snaps := trees[0].Snapshots
	require.Len(t, snaps, 2)
	require.Contains(t, snaps, "2025-03")
	require.Contains(t, snaps, "2025-05")
	assert.NotContains(t, snaps, "2025-04")
	assert.Equal(t, "100.00", snaps["2025-03"].Total.StringFixed(2))
	assert.Equal(t, "100.00", snaps["2025-03"].CashDeposit.StringFixed(2))
	assert.Equal(t, "300.00", snaps["2025-05"].Total.StringFixed(2))

	// May's predecessor (April) is absent, so no month-over-month figure.
	assert.Nil(t, snaps["2025-03"].MoMPct)
	assert.Nil(t, snaps["2025-05"].MoMPct)

	// The per-account history follows the same omission rule, native values.
	accSnaps := trees[0].DepositAccounts[0].Snapshots
	require.Len(t, accSnaps, 2)
	assert.Equal(t, "100", accSnaps["2025-03"].Available.String())
	assert.Equal(t, "PLN", accSnaps["2025-03"].Currency)

	assert.Len(t, trees[0].FxByMonth, 2)
	assert.Contains(t, trees[0].FxByMonth, "2025-03")
	assert.Contains(t, trees[0].FxByMonth, "2025-05")
}

func TestTreeMoMRequiresContiguousMonths(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)

	seedFxSnapshot(t, database, "2025-04")
	seedFxSnapshot(t, database, "2025-05")
	seedDepositSnapshot(t, database, account.ID, wallet.ID, "2025-04", 200)
	seedDepositSnapshot(t, database, account.ID, wallet.ID, "2025-05", 250)

	svc := newTreeService(database, &fakeQuoteSource{}, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC))
	trees, err := svc.Tree(context.Background(), wallet.UserID, 2, rates())
	require.NoError(t, err)

	snaps := trees[0].Snapshots
	require.Len(t, snaps, 2)
	assert.Nil(t, snaps["2025-04"].MoMPct)
	require.NotNil(t, snaps["2025-05"].MoMPct)
	assert.Equal(t, "0.25", snaps["2025-05"].MoMPct.String())
}

func TestTreeSnapshotBreakdownAddsUp(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)
	brokerage := seedBrokerageAccount(t, database, wallet.ID)

	seedFxSnapshot(t, database, "2025-05")
	seedDepositSnapshot(t, database, account.ID, wallet.ID, "2025-05", 100)
	require.NoError(t, database.Create(&models.BrokerageAccountMonthlySnapshot{
		BrokerageAccountID: brokerage.ID,
		MonthKey:           "2025-05",
		WalletID:           wallet.ID,
		Cash:               decimal.NewFromInt(50),
		Stocks:             decimal.NewFromInt(200),
		Currency:           "PLN",
	}).Error)
	require.NoError(t, database.Create(&models.MetalHoldingMonthlySnapshot{
		MetalHoldingID: "gold-1",
		MonthKey:       "2025-05",
		WalletID:       wallet.ID,
		Value:          decimal.NewFromInt(25),
		Currency:       "PLN",
	}).Error)
	require.NoError(t, database.Create(&models.RealEstateMonthlySnapshot{
		RealEstateID: "flat-1",
		MonthKey:     "2025-05",
		WalletID:     wallet.ID,
		Value:        decimal.NewFromInt(625),
		Currency:     "PLN",
	}).Error)

	svc := newTreeService(database, &fakeQuoteSource{}, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC))
	trees, err := svc.Tree(context.Background(), wallet.UserID, 1, rates())
	require.NoError(t, err)

	snap := trees[0].Snapshots["2025-05"]
	assert.Equal(t, "PLN", snap.Currency)
	assert.Equal(t, "100.00", snap.CashDeposit.StringFixed(2))
	assert.Equal(t, "50.00", snap.CashBroker.StringFixed(2))
	assert.Equal(t, "200.00", snap.Stocks.StringFixed(2))
	assert.Equal(t, "25.00", snap.Metals.StringFixed(2))
	assert.Equal(t, "625.00", snap.RealEstate.StringFixed(2))
	sum := snap.CashDeposit.Add(snap.CashBroker).Add(snap.Stocks).Add(snap.Metals).Add(snap.RealEstate)
	assert.True(t, snap.Total.Equal(sum))
	assert.Equal(t, "1000.00", snap.Total.StringFixed(2))

	// The brokerage node carries its own frozen months.
	brokSnaps := trees[0].BrokerageAccounts[0].Snapshots
	require.Contains(t, brokSnaps, "2025-05")
	assert.Equal(t, "50", brokSnaps["2025-05"].Cash.String())
	assert.Equal(t, "200", brokSnaps["2025-05"].Stocks.String())
}

func TestTreeCountsActivityPerMonth(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)
	brokerage := seedBrokerageAccount(t, database, wallet.ID)

	seedFxSnapshot(t, database, "2025-04")
	seedFxSnapshot(t, database, "2025-05")

	for _, day := range []time.Time{
		time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC),
		// Outside the window, must not be counted.
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
	} {
		require.NoError(t, database.Create(&models.Transaction{
			DepositAccountID: account.ID,
			Date:             day,
			Type:             "TRANSFER",
			Amount:           decimal.NewFromInt(10),
		}).Error)
	}
	require.NoError(t, database.Create(&models.BrokerageEvent{
		BrokerageAccountID: brokerage.ID,
		InstrumentID:       "inst-1",
		Type:               models.EventBuy,
		TradeAt:            time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC),
		Quantity:           decimal.NewFromInt(1),
		Price:              decimal.NewFromInt(100),
		Currency:           "PLN",
	}).Error)

	svc := newTreeService(database, &fakeQuoteSource{}, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC))
	trees, err := svc.Tree(context.Background(), wallet.UserID, 2, rates())
	require.NoError(t, err)

	txPerMonth := trees[0].DepositAccounts[0].TxPerMonth
	assert.Equal(t, 2, txPerMonth["2025-04"])
	assert.Equal(t, 1, txPerMonth["2025-05"])
	assert.NotContains(t, txPerMonth, "2025-02")

	eventsPerMonth := trees[0].BrokerageAccounts[0].EventsPerMonth
	assert.Equal(t, 1, eventsPerMonth["2025-05"])
}

func TestTreeLinkedDepositNotDoubleCounted(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "USD", models.AccountTypeCurrent)
	require.NoError(t, database.Model(&models.DepositAccountBalance{}).
		Where("deposit_account_id = ?", account.ID).
		Update("available", decimal.NewFromInt(100)).Error)

	bank := &models.Bank{Name: "Broker", ShortCode: "BRK"}
	require.NoError(t, database.Create(bank).Error)
	brokerage := &models.BrokerageAccount{WalletID: wallet.ID, BankID: bank.ID, Name: "XTB"}
	require.NoError(t, database.Create(brokerage).Error)
	require.NoError(t, database.Create(&models.BrokerageDepositLink{
		BrokerageAccountID: brokerage.ID,
		DepositAccountID:   account.ID,
		Currency:           "USD",
	}).Error)

	svc := newTreeService(database, &fakeQuoteSource{}, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC))
	trees, err := svc.Tree(context.Background(), wallet.UserID, 0, rates())
	require.NoError(t, err)

	tree := trees[0]
	// The cash line shows in both sections but only counts once.
	require.Len(t, tree.DepositAccounts, 1)
	assert.Equal(t, "400.00", tree.DepositAccounts[0].ValueDefaultCcy.StringFixed(2))
	require.Len(t, tree.BrokerageAccounts, 1)
	assert.Equal(t, "400.00", tree.BrokerageAccounts[0].SumCashAccounts.StringFixed(2))
	require.Len(t, tree.BrokerageAccounts[0].CashAccounts, 1)
	assert.Equal(t, account.ID, tree.BrokerageAccounts[0].CashAccounts[0].DepositAccountID)
	assert.Equal(t, "100", tree.BrokerageAccounts[0].CashAccounts[0].Available.String())
	assert.Equal(t, "400.00", tree.Total.StringFixed(2))
}

func TestTreeBatchesQuotesAndFlagsMissingRate(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "GBP", models.AccountTypeCurrent)
	require.NoError(t, database.Model(&models.DepositAccountBalance{}).
		Where("deposit_account_id = ?", account.ID).
		Update("available", decimal.NewFromInt(50)).Error)

	require.NoError(t, database.Create(&models.MetalHolding{
		WalletID:     wallet.ID,
		Metal:        "gold",
		QuoteSymbol:  "XAUUSD",
		Grams:        decimal.RequireFromString("31.1034768"),
		CostBasis:    decimal.NewFromInt(7000),
		CostCurrency: "PLN",
	}).Error)

	quotes := &fakeQuoteSource{quotes: Quotes{
		"XAUUSD": {Price: decimal.NewFromInt(2000), Currency: "USD"},
	}}
	svc := newTreeService(database, quotes, time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC))
	trees, err := svc.Tree(context.Background(), wallet.UserID, 0, rates())
	require.NoError(t, err)
	assert.Equal(t, 1, quotes.calls)

	tree := trees[0]
	// GBP has no rate: flagged on the account and the wallet, excluded from
	// the total. Gold still values.
	assert.True(t, tree.Health.NeedsReview)
	assert.Equal(t, 1, tree.Health.MissingRates)
	assert.True(t, tree.DepositAccounts[0].Health.NeedsReview)
	assert.Equal(t, "8000.00", tree.Metals.Value.StringFixed(2))
	assert.Equal(t, "8000.00", tree.Total.StringFixed(2))
}
