package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Deposit account types.
const (
	AccountTypeCurrent   = "CURRENT"
	AccountTypeSavings   = "SAVINGS"
	AccountTypeBrokerage = "BROKERAGE"
	AccountTypeCredit    = "CREDIT"
)

// Transaction statuses.
const (
	TransactionStatusBooked  = "BOOKED"
	TransactionStatusPending = "PENDING"
)

// Capital gain kinds.
const (
	GainDepositInterest       = "DEPOSIT_INTEREST"
	GainBrokerRealizedPnL     = "BROKER_REALIZED_PNL"
	GainBrokerDividend        = "BROKER_DIVIDEND"
	GainMetalRealizedPnL      = "METAL_REALIZED_PNL"
	GainRealEstateRealizedPnL = "REAL_ESTATE_REALIZED_PNL"
)

// DepositAccount is a cash account attached to a wallet and bank, with a
// fixed currency. The account number is stored encrypted; the fingerprint
// enables constant-time lookup and is globally unique.
type DepositAccount struct {
	ID       string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	WalletID string `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;uniqueIndex:uq_deposit_accounts_wallet_name"`
	BankID   string `json:"bank_id" gorm:"column:bank_id;type:varchar(36);not null;index"`
	Name     string `json:"name" gorm:"column:name;type:varchar(100);not null;uniqueIndex:uq_deposit_accounts_wallet_name"`
	Type     string `json:"type" gorm:"column:type;type:varchar(20);not null"`
	Currency string `json:"currency" gorm:"column:currency;type:varchar(3);not null"`

	AccountNumberCiphertext  string `json:"-" gorm:"column:account_number_ciphertext;type:text;not null"`
	AccountNumberFingerprint string `json:"-" gorm:"column:account_number_fingerprint;type:varchar(64);not null;uniqueIndex"`

	Balance      *DepositAccountBalance `json:"balance,omitempty" gorm:"foreignKey:DepositAccountID;constraint:OnDelete:CASCADE"`
	Transactions []Transaction          `json:"-" gorm:"foreignKey:DepositAccountID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (DepositAccount) TableName() string { return "deposit_accounts" }

func (a *DepositAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Validate validates deposit account input.
func (a *DepositAccount) Validate() error {
	if a.WalletID == "" {
		return errors.New("wallet_id is required")
	}
	if a.BankID == "" {
		return errors.New("bank_id is required")
	}
	if a.Name == "" {
		return errors.New("name is required")
	}
	switch a.Type {
	case AccountTypeCurrent, AccountTypeSavings, AccountTypeBrokerage, AccountTypeCredit:
	default:
		return errors.New("type must be one of CURRENT, SAVINGS, BROKERAGE, CREDIT")
	}
	if len(a.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	return nil
}

// DepositAccountBalance is the single balance row of a deposit account.
// Available may go negative only for CREDIT accounts; blocked never does.
type DepositAccountBalance struct {
	DepositAccountID string          `json:"deposit_account_id" gorm:"primaryKey;column:deposit_account_id;type:varchar(36)"`
	Available        decimal.Decimal `json:"available" gorm:"column:available;type:decimal(20,2);not null;default:0"`
	Blocked          decimal.Decimal `json:"blocked" gorm:"column:blocked;type:decimal(20,2);not null;default:0"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (DepositAccountBalance) TableName() string { return "deposit_account_balances" }

// Transaction is a cash movement on a deposit account. Creating one updates
// the linked balance atomically; balance_before/after form a monotone chain.
type Transaction struct {
	ID               string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	DepositAccountID string `json:"deposit_account_id" gorm:"column:deposit_account_id;type:varchar(36);not null;index:idx_transactions_account_date"`

	Date          time.Time       `json:"date" gorm:"column:date;not null;index:idx_transactions_account_date"`
	Type          string          `json:"type" gorm:"column:type;type:varchar(50);not null;index"`
	Amount        decimal.Decimal `json:"amount" gorm:"column:amount;type:decimal(20,2);not null"`
	BalanceBefore decimal.Decimal `json:"balance_before" gorm:"column:balance_before;type:decimal(20,2);not null"`
	BalanceAfter  decimal.Decimal `json:"balance_after" gorm:"column:balance_after;type:decimal(20,2);not null"`
	Description   string          `json:"description" gorm:"column:description;type:varchar(255)"`
	Category      *string         `json:"category" gorm:"column:category;type:varchar(100);index"`
	Status        string          `json:"status" gorm:"column:status;type:varchar(20);not null;default:BOOKED"`

	CapitalGain *CapitalGain `json:"capital_gain,omitempty" gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaction) TableName() string { return "transactions" }

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Validate validates transaction input. Balance fields are computed by the
// service and not validated here.
func (t *Transaction) Validate() error {
	if t.DepositAccountID == "" {
		return errors.New("deposit_account_id is required")
	}
	if t.Date.IsZero() {
		return errors.New("date is required")
	}
	if t.Amount.IsZero() {
		return errors.New("amount must be non-zero")
	}
	if t.Status != "" && t.Status != TransactionStatusBooked && t.Status != TransactionStatusPending {
		return errors.New("status must be BOOKED or PENDING")
	}
	return nil
}

// CapitalGain classifies a transaction as a realized gain of some kind.
// Attached to exactly one transaction.
type CapitalGain struct {
	ID               string          `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	TransactionID    string          `json:"transaction_id" gorm:"column:transaction_id;type:varchar(36);not null;uniqueIndex"`
	DepositAccountID string          `json:"deposit_account_id" gorm:"column:deposit_account_id;type:varchar(36);not null;index"`
	Kind             string          `json:"kind" gorm:"column:kind;type:varchar(40);not null"`
	Amount           decimal.Decimal `json:"amount" gorm:"column:amount;type:decimal(20,2);not null"`
	Currency         string          `json:"currency" gorm:"column:currency;type:varchar(3);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (CapitalGain) TableName() string { return "capital_gains" }

func (g *CapitalGain) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// ValidateGainKind checks a capital gain kind value.
func ValidateGainKind(kind string) error {
	switch kind {
	case GainDepositInterest, GainBrokerRealizedPnL, GainBrokerDividend,
		GainMetalRealizedPnL, GainRealEstateRealizedPnL:
		return nil
	}
	return errors.New("unknown capital_gain kind")
}

// TransactionFilter filters the paginated transaction listing.
type TransactionFilter struct {
	AccountIDs []string
	Categories []string
	Statuses   []string
	StartDate  *time.Time
	EndDate    *time.Time
	Query      string
	Limit      int
	Offset     int
}

// TransactionPage is a filtered page plus per-currency totals.
type TransactionPage struct {
	Items       []*Transaction             `json:"items"`
	Total       int64                      `json:"total"`
	TotalsByCcy map[string]decimal.Decimal `json:"totals_by_ccy"`
}
