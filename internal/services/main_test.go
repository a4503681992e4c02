package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
)

// newTestDB opens a fresh in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	database := db.Wrap(gdb)
	require.NoError(t, db.Migrate(database))
	return database
}

func testLogger() *zap.Logger { return zap.NewNop() }

// seedUserWallet inserts a user and wallet and returns the wallet.
func seedUserWallet(t *testing.T, database *db.DB) *models.Wallet {
	t.Helper()
	user := &models.User{
		Email:        "owner@example.com",
		Username:     "owner",
		PasswordHash: "x",
		Active:       true,
	}
	require.NoError(t, database.Create(user).Error)
	wallet := &models.Wallet{UserID: user.ID, Name: "Main", BaseCurrency: "PLN"}
	require.NoError(t, database.Create(wallet).Error)
	return wallet
}

// seedDepositAccount inserts a bank, account and balance row.
func seedDepositAccount(t *testing.T, database *db.DB, walletID, currency, accountType string) *models.DepositAccount {
	t.Helper()
	bank := &models.Bank{Name: "Bank " + currency + accountType, ShortCode: "B" + currency + accountType}
	require.NoError(t, database.Create(bank).Error)
	account := &models.DepositAccount{
		WalletID:                 walletID,
		BankID:                   bank.ID,
		Name:                     "acct-" + currency + "-" + accountType,
		Type:                     accountType,
		Currency:                 currency,
		AccountNumberCiphertext:  "ct-" + currency + accountType,
		AccountNumberFingerprint: "fp-" + currency + accountType + walletID,
	}
	require.NoError(t, database.Create(account).Error)
	require.NoError(t, database.Create(&models.DepositAccountBalance{
		DepositAccountID: account.ID,
	}).Error)
	return account
}

// fakeQuoteSource serves a fixed quote table without network I/O.
type fakeQuoteSource struct {
	quotes Quotes
	err    error
	calls  int
}

func (f *fakeQuoteSource) GetLatestQuotesForSymbols(_ context.Context, _ []string) (Quotes, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quotes, nil
}

func (f *fakeQuoteSource) SyncDailyCandles(context.Context, string, *time.Time, *time.Time) error {
	return nil
}

func (f *fakeQuoteSource) ListInstruments(context.Context, string) ([]models.Instrument, error) {
	return nil, nil
}

func (f *fakeQuoteSource) SearchInstrumentByShortname(context.Context, string) ([]models.Instrument, error) {
	return nil, nil
}
