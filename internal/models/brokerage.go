package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Instrument types.
const (
	InstrumentStock  = "STOCK"
	InstrumentETF    = "ETF"
	InstrumentBond   = "BOND"
	InstrumentFund   = "FUND"
	InstrumentCrypto = "CRYPTO"
)

// Brokerage event types.
const (
	EventBuy      = "BUY"
	EventSell     = "SELL"
	EventDividend = "DIV"
	EventSplit    = "SPLIT"
)

// BrokerageAccount is a broker-side account attached to a wallet and bank,
// uniquely named per (wallet, bank).
type BrokerageAccount struct {
	ID       string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	WalletID string `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;uniqueIndex:uq_brokerage_accounts_wallet_bank_name"`
	BankID   string `json:"bank_id" gorm:"column:bank_id;type:varchar(36);not null;uniqueIndex:uq_brokerage_accounts_wallet_bank_name"`
	Name     string `json:"name" gorm:"column:name;type:varchar(100);not null;uniqueIndex:uq_brokerage_accounts_wallet_bank_name"`

	Links    []BrokerageDepositLink `json:"-" gorm:"foreignKey:BrokerageAccountID;constraint:OnDelete:CASCADE"`
	Holdings []Holding              `json:"-" gorm:"foreignKey:BrokerageAccountID;constraint:OnDelete:CASCADE"`
	Events   []BrokerageEvent       `json:"-" gorm:"foreignKey:BrokerageAccountID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (BrokerageAccount) TableName() string { return "brokerage_accounts" }

func (a *BrokerageAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Validate validates brokerage account input.
func (a *BrokerageAccount) Validate() error {
	if a.WalletID == "" {
		return errors.New("wallet_id is required")
	}
	if a.BankID == "" {
		return errors.New("bank_id is required")
	}
	if a.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// BrokerageDepositLink pairs a brokerage account with its cash line. At most
// one link per (brokerage, currency).
type BrokerageDepositLink struct {
	ID                 string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	BrokerageAccountID string `json:"brokerage_account_id" gorm:"column:brokerage_account_id;type:varchar(36);not null;uniqueIndex:uq_brokerage_links_account_ccy"`
	DepositAccountID   string `json:"deposit_account_id" gorm:"column:deposit_account_id;type:varchar(36);not null;index"`
	Currency           string `json:"currency" gorm:"column:currency;type:varchar(3);not null;uniqueIndex:uq_brokerage_links_account_ccy"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (BrokerageDepositLink) TableName() string { return "brokerage_deposit_links" }

func (l *BrokerageDepositLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// Instrument is a catalog entry for a tradable symbol; symbol is unique.
type Instrument struct {
	ID       string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	Symbol   string `json:"symbol" gorm:"column:symbol;type:varchar(40);not null;uniqueIndex"`
	Name     string `json:"name" gorm:"column:name;type:varchar(255)"`
	MIC      string `json:"mic" gorm:"column:mic;type:varchar(10);index"`
	Type     string `json:"type" gorm:"column:type;type:varchar(20);not null"`
	Currency string `json:"currency" gorm:"column:currency;type:varchar(3);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Instrument) TableName() string { return "instruments" }

func (i *Instrument) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Validate validates instrument input.
func (i *Instrument) Validate() error {
	if i.Symbol == "" {
		return errors.New("symbol is required")
	}
	switch i.Type {
	case InstrumentStock, InstrumentETF, InstrumentBond, InstrumentFund, InstrumentCrypto:
	default:
		return errors.New("type must be one of STOCK, ETF, BOND, FUND, CRYPTO")
	}
	if len(i.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	return nil
}

// Holding is the (account, instrument) position derived solely from the
// event stream; quantity and avg_cost are both non-negative.
type Holding struct {
	ID                 string          `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	BrokerageAccountID string          `json:"brokerage_account_id" gorm:"column:brokerage_account_id;type:varchar(36);not null;uniqueIndex:uq_holdings_account_instrument"`
	InstrumentID       string          `json:"instrument_id" gorm:"column:instrument_id;type:varchar(36);not null;uniqueIndex:uq_holdings_account_instrument"`
	Quantity           decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(28,10);not null;default:0"`
	AvgCost            decimal.Decimal `json:"avg_cost" gorm:"column:avg_cost;type:decimal(28,8);not null;default:0"`

	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Holding) TableName() string { return "holdings" }

func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}

// BrokerageEvent is a BUY/SELL/DIV/SPLIT fact for (account, instrument).
// Events are totally ordered by trade_at, ties broken by sequence.
type BrokerageEvent struct {
	ID                 string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	BrokerageAccountID string `json:"brokerage_account_id" gorm:"column:brokerage_account_id;type:varchar(36);not null;index:idx_events_account_instrument"`
	InstrumentID       string `json:"instrument_id" gorm:"column:instrument_id;type:varchar(36);not null;index:idx_events_account_instrument"`

	Type     string          `json:"type" gorm:"column:type;type:varchar(10);not null"`
	TradeAt  time.Time       `json:"trade_at" gorm:"column:trade_at;not null;index"`
	Sequence int64           `json:"sequence" gorm:"column:sequence;autoIncrement;uniqueIndex"`
	Quantity decimal.Decimal `json:"quantity" gorm:"column:quantity;type:decimal(28,10);not null;default:0"`
	Price    decimal.Decimal `json:"price" gorm:"column:price;type:decimal(28,8);not null;default:0"`
	Currency string          `json:"currency" gorm:"column:currency;type:varchar(3)"`

	// SplitRatio applies to SPLIT events only.
	SplitRatio *decimal.Decimal `json:"split_ratio,omitempty" gorm:"column:split_ratio;type:decimal(18,8)"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (BrokerageEvent) TableName() string { return "brokerage_events" }

func (e *BrokerageEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Validate validates event input.
func (e *BrokerageEvent) Validate() error {
	if e.BrokerageAccountID == "" {
		return errors.New("brokerage_account_id is required")
	}
	if e.InstrumentID == "" {
		return errors.New("instrument_id is required")
	}
	if e.TradeAt.IsZero() {
		return errors.New("trade_at is required")
	}
	switch e.Type {
	case EventBuy, EventSell:
		if !e.Quantity.IsPositive() {
			return errors.New("quantity must be positive")
		}
		if e.Price.IsNegative() {
			return errors.New("price must be non-negative")
		}
		if len(e.Currency) != 3 {
			return errors.New("currency must be a 3-letter code")
		}
	case EventDividend:
		if !e.Price.IsPositive() {
			return errors.New("dividend amount must be positive")
		}
		if len(e.Currency) != 3 {
			return errors.New("currency must be a 3-letter code")
		}
	case EventSplit:
		if e.SplitRatio == nil || !e.SplitRatio.IsPositive() {
			return errors.New("split_ratio must be positive")
		}
	default:
		return errors.New("type must be one of BUY, SELL, DIV, SPLIT")
	}
	return nil
}
