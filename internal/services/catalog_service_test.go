package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/models"
)

func TestCreateBankRejectsDuplicates(t *testing.T) {
	database := newTestDB(t)
	svc := NewCatalogService(database, testLogger())
	ctx := context.Background()

	require.NoError(t, svc.CreateBank(ctx, &models.Bank{Name: "mBank", ShortCode: "MBK"}))

	err := svc.CreateBank(ctx, &models.Bank{Name: "mBank", ShortCode: "MB2"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	// Short codes collide too.
	err = svc.CreateBank(ctx, &models.Bank{Name: "Millennium", ShortCode: "MBK"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}

func TestDeleteBankBlockedWhileAccountsAttached(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	svc := NewCatalogService(database, testLogger())
	ctx := context.Background()

	attached := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)

	err := svc.DeleteBank(ctx, attached.BankID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))

	empty := &models.Bank{Name: "Empty Bank", ShortCode: "EMP"}
	require.NoError(t, svc.CreateBank(ctx, empty))
	require.NoError(t, svc.DeleteBank(ctx, empty.ID))

	err = svc.DeleteBank(ctx, empty.ID)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestUpsertInstrumentKeyedBySymbol(t *testing.T) {
	database := newTestDB(t)
	svc := NewCatalogService(database, testLogger())
	ctx := context.Background()

	require.NoError(t, svc.UpsertInstrument(ctx, &models.Instrument{
		Symbol: "AAPL", Name: "Apple", MIC: "XNAS", Type: models.InstrumentStock, Currency: "USD",
	}))
	require.NoError(t, svc.UpsertInstrument(ctx, &models.Instrument{
		Symbol: "AAPL", Name: "Apple Inc.", MIC: "XNAS", Type: models.InstrumentStock, Currency: "USD",
	}))

	inst, err := svc.GetInstrumentBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", inst.Name)

	all, err := svc.ListLocalInstruments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpsertInstrumentValidatesType(t *testing.T) {
	database := newTestDB(t)
	svc := NewCatalogService(database, testLogger())

	err := svc.UpsertInstrument(context.Background(), &models.Instrument{
		Symbol: "XYZ", Type: "OPTION", Currency: "USD",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestListLocalInstrumentsFiltersByMIC(t *testing.T) {
	database := newTestDB(t)
	svc := NewCatalogService(database, testLogger())
	ctx := context.Background()

	require.NoError(t, svc.UpsertInstrument(ctx, &models.Instrument{
		Symbol: "AAPL", Type: models.InstrumentStock, MIC: "XNAS", Currency: "USD",
	}))
	require.NoError(t, svc.UpsertInstrument(ctx, &models.Instrument{
		Symbol: "CDR", Type: models.InstrumentStock, MIC: "XWAR", Currency: "PLN",
	}))

	warsaw, err := svc.ListLocalInstruments(ctx, "XWAR")
	require.NoError(t, err)
	require.Len(t, warsaw, 1)
	assert.Equal(t, "CDR", warsaw[0].Symbol)
}

func TestRealEstatePriceHistoryKept(t *testing.T) {
	database := newTestDB(t)
	svc := NewCatalogService(database, testLogger())
	ctx := context.Background()

	older := &models.RealEstatePrice{
		Type: "APARTMENT", Country: "PL", City: "Warszawa", Currency: "PLN",
		PricePerM2: decimal.NewFromInt(15000),
		AsOf:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, svc.AddRealEstatePrice(ctx, older))
	require.NoError(t, svc.AddRealEstatePrice(ctx, &models.RealEstatePrice{
		Type: "APARTMENT", Country: "PL", City: "Warszawa", Currency: "PLN",
		PricePerM2: decimal.NewFromInt(16000),
		AsOf:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}))

	prices, err := svc.ListRealEstatePrices(ctx)
	require.NoError(t, err)
	require.Len(t, prices, 2)
	// Newest first within a lookup key.
	assert.Equal(t, "16000", prices[0].PricePerM2.String())

	require.NoError(t, svc.DeleteRealEstatePrice(ctx, older.ID))
	prices, err = svc.ListRealEstatePrices(ctx)
	require.NoError(t, err)
	assert.Len(t, prices, 1)
}
