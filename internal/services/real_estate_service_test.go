package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/models"
)

func warsawFlat(walletID string) *models.RealEstate {
	return &models.RealEstate{
		WalletID:         walletID,
		Name:             "Mokotow flat",
		Type:             "APARTMENT",
		Country:          "PL",
		City:             "Warszawa",
		AreaM2:           decimal.NewFromInt(54),
		PurchasePrice:    decimal.NewFromInt(400000),
		PurchaseCurrency: "PLN",
	}
}

func TestRealEstateCreateAndUpdate(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	svc := NewRealEstateService(database, testLogger())
	ctx := context.Background()

	re := warsawFlat(wallet.ID)
	require.NoError(t, svc.Create(ctx, re))

	require.NoError(t, svc.Update(ctx, &models.RealEstate{ID: re.ID, Name: "Mokotow 54m2"}))

	estates, err := svc.List(ctx, wallet.ID)
	require.NoError(t, err)
	require.Len(t, estates, 1)
	assert.Equal(t, "Mokotow 54m2", estates[0].Name)
	assert.Equal(t, "400000", estates[0].PurchasePrice.String())
}

func TestRealEstateCreateValidatesCurrency(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	svc := NewRealEstateService(database, testLogger())

	re := warsawFlat(wallet.ID)
	re.PurchaseCurrency = "ZLOTY"
	err := svc.Create(context.Background(), re)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestRealEstateSellBooksProceedsAndRealizedGain(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)
	svc := NewRealEstateService(database, testLogger())
	ctx := context.Background()

	re := warsawFlat(wallet.ID)
	require.NoError(t, svc.Create(ctx, re))

	require.NoError(t, svc.Sell(ctx, re.ID, &SellRequest{
		Price:            decimal.NewFromInt(450000),
		Currency:         "PLN",
		DepositAccountID: account.ID,
		Date:             day(12),
	}))

	var txRow models.Transaction
	require.NoError(t, database.Preload("CapitalGain").
		First(&txRow, "deposit_account_id = ?", account.ID).Error)
	assert.Equal(t, "REAL_ESTATE_SELL", txRow.Type)
	assert.Equal(t, "450000", txRow.Amount.String())
	assert.Equal(t, "450000", txRow.BalanceAfter.String())
	require.NotNil(t, txRow.CapitalGain)
	assert.Equal(t, models.GainRealEstateRealizedPnL, txRow.CapitalGain.Kind)
	assert.Equal(t, "50000.00", txRow.CapitalGain.Amount.StringFixed(2))

	estates, err := svc.List(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Empty(t, estates)
}

func TestRealEstateSellWithoutAccountOnlyRemoves(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	svc := NewRealEstateService(database, testLogger())
	ctx := context.Background()

	re := warsawFlat(wallet.ID)
	require.NoError(t, svc.Create(ctx, re))

	require.NoError(t, svc.Sell(ctx, re.ID, &SellRequest{
		Price: decimal.NewFromInt(380000), Currency: "PLN", Date: day(12),
	}))

	var txCount int64
	require.NoError(t, database.Model(&models.Transaction{}).Count(&txCount).Error)
	assert.Zero(t, txCount)

	estates, err := svc.List(ctx, wallet.ID)
	require.NoError(t, err)
	assert.Empty(t, estates)
}

func TestRealEstateSellErrors(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	svc := NewRealEstateService(database, testLogger())
	ctx := context.Background()

	err := svc.Sell(ctx, "missing", &SellRequest{Price: decimal.NewFromInt(1), Currency: "PLN", Date: day(12)})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))

	re := warsawFlat(wallet.ID)
	require.NoError(t, svc.Create(ctx, re))
	err = svc.Sell(ctx, re.ID, &SellRequest{Price: decimal.NewFromInt(-5), Currency: "PLN", Date: day(12)})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}
