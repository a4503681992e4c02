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

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func tx(d int, amount string) *models.Transaction {
	return &models.Transaction{
		Date:   day(d),
		Type:   "TRANSFER",
		Amount: decimal.RequireFromString(amount),
	}
}

func TestCreateBatchChainsBalances(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)
	require.NoError(t, database.Model(&models.DepositAccountBalance{}).
		Where("deposit_account_id = ?", account.ID).
		Update("available", decimal.NewFromInt(1000)).Error)

	svc := NewTransactionService(database, testLogger())
	result, err := svc.CreateBatch(context.Background(), account.ID,
		[]*models.Transaction{tx(1, "-200"), tx(2, "50")}, nil)
	require.NoError(t, err)
	require.Len(t, result.Created, 2)
	assert.Empty(t, result.Failed)

	first, second := result.Created[0], result.Created[1]
	assert.Equal(t, "1000", first.BalanceBefore.String())
	assert.Equal(t, "800", first.BalanceAfter.String())
	assert.Equal(t, "800", second.BalanceBefore.String())
	assert.Equal(t, "850", second.BalanceAfter.String())

	var balance models.DepositAccountBalance
	require.NoError(t, database.First(&balance, "deposit_account_id = ?", account.ID).Error)
	assert.Equal(t, "850", balance.Available.String())
}

func TestCreateBatchRejectsOverdraftPerRow(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)
	require.NoError(t, database.Model(&models.DepositAccountBalance{}).
		Where("deposit_account_id = ?", account.ID).
		Update("available", decimal.NewFromInt(100)).Error)

	svc := NewTransactionService(database, testLogger())
	result, err := svc.CreateBatch(context.Background(), account.ID,
		[]*models.Transaction{tx(1, "-150"), tx(2, "-50")}, nil)
	require.NoError(t, err)

	// The overdraft row is rejected; the chain continues with the rest.
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "0", result.Failed[0].ID)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "50", result.Created[0].BalanceAfter.String())
}

func TestCreateBatchCreditAccountGoesNegative(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCredit)

	svc := NewTransactionService(database, testLogger())
	result, err := svc.CreateBatch(context.Background(), account.ID,
		[]*models.Transaction{tx(1, "-300")}, nil)
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "-300", result.Created[0].BalanceAfter.String())
}

func TestCreateBatchAttachesCapitalGain(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)

	svc := NewTransactionService(database, testLogger())
	result, err := svc.CreateBatch(context.Background(), account.ID,
		[]*models.Transaction{tx(1, "42.50")},
		map[int]string{0: models.GainDepositInterest})
	require.NoError(t, err)
	require.Len(t, result.Created, 1)
	require.NotNil(t, result.Created[0].CapitalGain)
	assert.Equal(t, models.GainDepositInterest, result.Created[0].CapitalGain.Kind)

	var gain models.CapitalGain
	require.NoError(t, database.First(&gain, "transaction_id = ?", result.Created[0].ID).Error)
	assert.Equal(t, "PLN", gain.Currency)
}

func TestCreateBatchRejectsInvalidGainKindPerRow(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)

	svc := NewTransactionService(database, testLogger())
	result, err := svc.CreateBatch(context.Background(), account.ID,
		[]*models.Transaction{tx(1, "100"), tx(2, "200")},
		map[int]string{0: "NOT_A_KIND"})
	require.NoError(t, err)

	// The bad row is rejected before it enters the chain; the rest proceed.
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "0", result.Failed[0].ID)
	require.Len(t, result.Created, 1)
	assert.Equal(t, "0", result.Created[0].BalanceBefore.String())
	assert.Equal(t, "200", result.Created[0].BalanceAfter.String())

	var gains int64
	require.NoError(t, database.Model(&models.CapitalGain{}).Count(&gains).Error)
	assert.Zero(t, gains)
}

func TestUpdateBatchRecomputesChain(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)
	require.NoError(t, database.Model(&models.DepositAccountBalance{}).
		Where("deposit_account_id = ?", account.ID).
		Update("available", decimal.NewFromInt(1000)).Error)

	svc := NewTransactionService(database, testLogger())
	created, err := svc.CreateBatch(context.Background(), account.ID,
		[]*models.Transaction{tx(1, "-200"), tx(2, "50")}, nil)
	require.NoError(t, err)

	// Change the first amount; the whole chain shifts.
	patch := &models.Transaction{ID: created.Created[0].ID, Amount: decimal.RequireFromString("-100")}
	result, err := svc.UpdateBatch(context.Background(), []*models.Transaction{patch})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	second, err := svc.Get(context.Background(), created.Created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "900", second.BalanceBefore.String())
	assert.Equal(t, "950", second.BalanceAfter.String())

	var balance models.DepositAccountBalance
	require.NoError(t, database.First(&balance, "deposit_account_id = ?", account.ID).Error)
	assert.Equal(t, "950", balance.Available.String())
}

func TestUpdateBatchRedateAheadOfChainStart(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)
	require.NoError(t, database.Model(&models.DepositAccountBalance{}).
		Where("deposit_account_id = ?", account.ID).
		Update("available", decimal.NewFromInt(1000)).Error)

	svc := NewTransactionService(database, testLogger())
	created, err := svc.CreateBatch(context.Background(), account.ID,
		[]*models.Transaction{tx(5, "-200"), tx(6, "50")}, nil)
	require.NoError(t, err)

	// Re-date the second row ahead of the old opener. The chain must still
	// start from the 1000 opening balance, not the opener's stale 800.
	patch := &models.Transaction{ID: created.Created[1].ID, Date: day(1)}
	result, err := svc.UpdateBatch(context.Background(), []*models.Transaction{patch})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)

	moved, err := svc.Get(context.Background(), created.Created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", moved.BalanceBefore.String())
	assert.Equal(t, "1050", moved.BalanceAfter.String())

	opener, err := svc.Get(context.Background(), created.Created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "1050", opener.BalanceBefore.String())
	assert.Equal(t, "850", opener.BalanceAfter.String())

	var balance models.DepositAccountBalance
	require.NoError(t, database.First(&balance, "deposit_account_id = ?", account.ID).Error)
	assert.Equal(t, "850", balance.Available.String())
}

func TestUpdateBatchReportsUnknownID(t *testing.T) {
	database := newTestDB(t)
	svc := NewTransactionService(database, testLogger())

	result, err := svc.UpdateBatch(context.Background(),
		[]*models.Transaction{{ID: "nope", Amount: decimal.NewFromInt(1)}})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "nope", result.Failed[0].ID)
}

func TestDeleteRecomputesChain(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	account := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)
	require.NoError(t, database.Model(&models.DepositAccountBalance{}).
		Where("deposit_account_id = ?", account.ID).
		Update("available", decimal.NewFromInt(1000)).Error)

	svc := NewTransactionService(database, testLogger())
	created, err := svc.CreateBatch(context.Background(), account.ID,
		[]*models.Transaction{tx(1, "-200"), tx(2, "50")}, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.Created[0].ID))

	second, err := svc.Get(context.Background(), created.Created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "1000", second.BalanceBefore.String())
	assert.Equal(t, "1050", second.BalanceAfter.String())
}

func TestGetNotFound(t *testing.T) {
	database := newTestDB(t)
	svc := NewTransactionService(database, testLogger())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestPageFiltersAndTotals(t *testing.T) {
	database := newTestDB(t)
	wallet := seedUserWallet(t, database)
	plnAccount := seedDepositAccount(t, database, wallet.ID, "PLN", models.AccountTypeCurrent)
	usdAccount := seedDepositAccount(t, database, wallet.ID, "USD", models.AccountTypeSavings)
	for _, id := range []string{plnAccount.ID, usdAccount.ID} {
		require.NoError(t, database.Model(&models.DepositAccountBalance{}).
			Where("deposit_account_id = ?", id).
			Update("available", decimal.NewFromInt(10000)).Error)
	}

	svc := NewTransactionService(database, testLogger())
	_, err := svc.CreateBatch(context.Background(), plnAccount.ID,
		[]*models.Transaction{tx(1, "-200"), tx(2, "-300")}, nil)
	require.NoError(t, err)
	_, err = svc.CreateBatch(context.Background(), usdAccount.ID,
		[]*models.Transaction{tx(3, "-50")}, nil)
	require.NoError(t, err)

	page, err := svc.Page(context.Background(), []string{wallet.ID}, &models.TransactionFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "-500", page.TotalsByCcy["PLN"].String())
	assert.Equal(t, "-50", page.TotalsByCcy["USD"].String())

	// Account filter narrows both items and totals.
	page, err = svc.Page(context.Background(), []string{wallet.ID}, &models.TransactionFilter{
		AccountIDs: []string{usdAccount.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	_, hasPLN := page.TotalsByCcy["PLN"]
	assert.False(t, hasPLN)
}
