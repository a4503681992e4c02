package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/portfel-app/portfel/internal/models"
)

// QuoteSource is the narrow capability interface over the market-data
// service. The aggregator calls it exactly once per request, batched.
type QuoteSource interface {
	GetLatestQuotesForSymbols(ctx context.Context, symbols []string) (Quotes, error)
	SyncDailyCandles(ctx context.Context, symbol string, from, to *time.Time) error
	ListInstruments(ctx context.Context, mic string) ([]models.Instrument, error)
	SearchInstrumentByShortname(ctx context.Context, name string) ([]models.Instrument, error)
}

// FxSource supplies the live FX table. The core never scrapes FX itself;
// the UI or a scheduled job provides the NBP-pulled table.
type FxSource interface {
	LatestRates(ctx context.Context) (Rates, error)
}

// SessionGate validates a session token plus HMAC stamp and resolves it to a
// user id. The wallet surface trusts user ids only through this gate.
type SessionGate interface {
	Verify(ctx context.Context, sessionToken, stamp string) (userID string, err error)
}

// TransactionService handles cash movements and the balance chain.
type TransactionService interface {
	CreateBatch(ctx context.Context, accountID string, txs []*models.Transaction, gains map[int]string) (*TransactionBatchResult, error)
	UpdateBatch(ctx context.Context, patches []*models.Transaction) (*BatchResult, error)
	Get(ctx context.Context, id string) (*models.Transaction, error)
	Page(ctx context.Context, walletIDs []string, filter *models.TransactionFilter) (*models.TransactionPage, error)
	Delete(ctx context.Context, id string) error
}

// TransactionBatchResult reports a batch create: rows that entered the chain
// plus per-item rejections.
type TransactionBatchResult struct {
	Created []*models.Transaction `json:"created"`
	Failed  []BatchFailed         `json:"failed"`
}

// EventService handles brokerage events and holding recomputation.
type EventService interface {
	Create(ctx context.Context, ev *models.BrokerageEvent) error
	CreateBatch(ctx context.Context, evs []*models.BrokerageEvent) (*BatchResult, error)
	UpdateBatch(ctx context.Context, patches []*models.BrokerageEvent) (*BatchResult, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, accountID string) ([]*models.BrokerageEvent, error)
}

// SnapshotService materializes frozen monthly rows.
type SnapshotService interface {
	CreateMonthly(ctx context.Context, monthKey string, currencyRates Rates) (*SnapshotResult, error)
}

// WalletManagerService composes the aggregator tree: one fully valued
// object per wallet of the user.
type WalletManagerService interface {
	Tree(ctx context.Context, userID string, months int, currencyRates Rates) ([]*WalletTree, error)
}

// BatchResult reports per-item outcomes of a batch endpoint; one failed row
// never aborts the rest.
type BatchResult struct {
	Updated int           `json:"updated"`
	Failed  []BatchFailed `json:"failed"`
}

// BatchFailed is one rejected batch item.
type BatchFailed struct {
	ID     string `json:"id"`
	Detail string `json:"detail"`
}

// SnapshotResult summarizes one snapshot engine run.
type SnapshotResult struct {
	MonthKey          string `json:"month_key"`
	DepositAccounts   int    `json:"deposit_accounts"`
	BrokerageAccounts int    `json:"brokerage_accounts"`
	MetalHoldings     int    `json:"metal_holdings"`
	RealEstates       int    `json:"real_estates"`
	MissingQuotes     int    `json:"missing_quotes"`
}

// SellRequest asks to sell part of a metal holding or a property, optionally
// recording the proceeds as a transaction with a capital gain.
type SellRequest struct {
	Quantity         decimal.Decimal `json:"quantity"` // grams for metals, ignored for real estate
	Price            decimal.Decimal `json:"price"`    // total proceeds
	Currency         string          `json:"currency"`
	DepositAccountID string          `json:"deposit_account_id,omitempty"`
	Date             time.Time       `json:"date"`
}
