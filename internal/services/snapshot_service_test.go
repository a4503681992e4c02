package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/models"
)

func TestCreateMonthlyFreezesAndIsIdempotent(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "USD", models.AccountTypeCurrent)
	require.NoError(t, database.Model(&models.DepositAccountBalance{}).
		Where("deposit_account_id = ?", account.ID).
		Update("available", decimal.NewFromInt(250)).Error)

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
	svc := NewSnapshotService(database, quotes, testLogger())

	result, err := svc.CreateMonthly(context.Background(), "2025-03", rates())
	require.NoError(t, err)
	assert.Equal(t, 1, result.DepositAccounts)
	assert.Equal(t, 1, result.MetalHoldings)
	assert.Equal(t, 1, quotes.calls)

	var fx models.FxMonthlySnapshot
	require.NoError(t, database.First(&fx, "month_key = ?", "2025-03").Error)
	stored, err := fx.Rates()
	require.NoError(t, err)
	assert.True(t, stored["USD"].Equal(decimal.NewFromFloat(4.0)))

	var depRow models.DepositAccountMonthlySnapshot
	require.NoError(t, database.First(&depRow,
		"deposit_account_id = ? AND month_key = ?", account.ID, "2025-03").Error)
	assert.Equal(t, "250", depRow.Available.String())
	assert.Equal(t, "USD", depRow.Currency)

	var metalRow models.MetalHoldingMonthlySnapshot
	require.NoError(t, database.First(&metalRow, "month_key = ?", "2025-03").Error)
	assert.Equal(t, "8000.00", metalRow.Value.StringFixed(2))
	assert.Equal(t, "PLN", metalRow.Currency)

	// A re-run with identical inputs writes nothing, not even updated_at.
	firstWrite := depRow.UpdatedAt
	_, err = svc.CreateMonthly(context.Background(), "2025-03", rates())
	require.NoError(t, err)
	require.NoError(t, database.First(&depRow,
		"deposit_account_id = ? AND month_key = ?", account.ID, "2025-03").Error)
	assert.Equal(t, "250", depRow.Available.String())
	assert.True(t, depRow.UpdatedAt.Equal(firstWrite))

	// Re-running the same month converges to the same single row set.
	require.NoError(t, database.Model(&models.DepositAccountBalance{}).
		Where("deposit_account_id = ?", account.ID).
		Update("available", decimal.NewFromInt(300)).Error)
	_, err = svc.CreateMonthly(context.Background(), "2025-03", rates())
	require.NoError(t, err)

	var count int64
	require.NoError(t, database.Model(&models.DepositAccountMonthlySnapshot{}).
		Where("month_key = ?", "2025-03").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, database.First(&depRow,
		"deposit_account_id = ? AND month_key = ?", account.ID, "2025-03").Error)
	assert.Equal(t, "300", depRow.Available.String())
}

func TestCreateMonthlyValidatesInput(t *testing.T) {
	database := newTestDB(t)
	svc := NewSnapshotService(database, &fakeQuoteSource{}, testLogger())

	_, err := svc.CreateMonthly(context.Background(), "2025-13", rates())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	_, err = svc.CreateMonthly(context.Background(), "2025-03", Rates{})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCreateMonthlyCountsMissingQuotes(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	require.NoError(t, database.Create(&models.MetalHolding{
		WalletID:     wallet.ID,
		Metal:        "silver",
		QuoteSymbol:  "XAGUSD",
		Grams:        decimal.NewFromInt(100),
		CostBasis:    decimal.NewFromInt(400),
		CostCurrency: "PLN",
	}).Error)

	svc := NewSnapshotService(database, &fakeQuoteSource{quotes: Quotes{}}, testLogger())
	result, err := svc.CreateMonthly(context.Background(), "2025-04", rates())
	require.NoError(t, err)
	assert.Equal(t, 1, result.MissingQuotes)

	// Cost basis fallback still produces a frozen row.
	var row models.MetalHoldingMonthlySnapshot
	require.NoError(t, database.First(&row, "month_key = ?", "2025-04").Error)
	assert.Equal(t, "400.00", row.Value.StringFixed(2))
}

func TestCreateMonthlySurvivesQuoteSourceOutage(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	require.NoError(t, database.Create(&models.MetalHolding{
		WalletID:     wallet.ID,
		Metal:        "gold",
		QuoteSymbol:  "XAUUSD",
		Grams:        decimal.NewFromInt(10),
		CostBasis:    decimal.NewFromInt(2500),
		CostCurrency: "PLN",
	}).Error)

	quotes := &fakeQuoteSource{err: errors.New("market-data unreachable")}
	svc := NewSnapshotService(database, quotes, testLogger())

	result, err := svc.CreateMonthly(context.Background(), "2025-05", rates())
	require.NoError(t, err)
	assert.Equal(t, 1, result.MetalHoldings)
	assert.Equal(t, 1, result.MissingQuotes)

	var row models.MetalHoldingMonthlySnapshot
	require.NoError(t, database.First(&row, "month_key = ?", "2025-05").Error)
	assert.Equal(t, "2500.00", row.Value.StringFixed(2))
}
