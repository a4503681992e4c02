package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FxMonthlySnapshot is the singleton FX rate table captured for one month.
// Rates are keyed against the pivot currency (PLN) and stored as JSON so the
// row stays stable regardless of later rate movements.
type FxMonthlySnapshot struct {
	MonthKey  string    `json:"month_key" gorm:"primaryKey;column:month_key;type:varchar(7)"`
	RatesJSON string    `json:"-" gorm:"column:rates_json;type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (FxMonthlySnapshot) TableName() string { return "fx_monthly_snapshots" }

// Rates decodes the stored rate table.
func (s *FxMonthlySnapshot) Rates() (map[string]decimal.Decimal, error) {
	rates := make(map[string]decimal.Decimal)
	if err := json.Unmarshal([]byte(s.RatesJSON), &rates); err != nil {
		return nil, fmt.Errorf("failed to decode fx snapshot %s: %w", s.MonthKey, err)
	}
	return rates, nil
}

// SetRates encodes the rate table deterministically (encoding/json sorts map
// keys), so identical inputs produce byte-identical rows.
func (s *FxMonthlySnapshot) SetRates(rates map[string]decimal.Decimal) error {
	raw, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("failed to encode fx snapshot: %w", err)
	}
	s.RatesJSON = string(raw)
	return nil
}

// DepositAccountMonthlySnapshot freezes a deposit account's available
// balance for one month.
type DepositAccountMonthlySnapshot struct {
	DepositAccountID string          `json:"deposit_account_id" gorm:"primaryKey;column:deposit_account_id;type:varchar(36)"`
	MonthKey         string          `json:"month_key" gorm:"primaryKey;column:month_key;type:varchar(7)"`
	WalletID         string          `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;index"`
	Available        decimal.Decimal `json:"available" gorm:"column:available;type:decimal(20,2);not null"`
	Currency         string          `json:"currency" gorm:"column:currency;type:varchar(3);not null"`
	CreatedAt        time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (DepositAccountMonthlySnapshot) TableName() string {
	return "deposit_account_monthly_snapshots"
}

// BrokerageAccountMonthlySnapshot freezes a brokerage account's cash and
// stock values in the wallet base currency.
type BrokerageAccountMonthlySnapshot struct {
	BrokerageAccountID string          `json:"brokerage_account_id" gorm:"primaryKey;column:brokerage_account_id;type:varchar(36)"`
	MonthKey           string          `json:"month_key" gorm:"primaryKey;column:month_key;type:varchar(7)"`
	WalletID           string          `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;index"`
	Cash               decimal.Decimal `json:"cash" gorm:"column:cash;type:decimal(20,2);not null"`
	Stocks             decimal.Decimal `json:"stocks" gorm:"column:stocks;type:decimal(20,2);not null"`
	Currency           string          `json:"currency" gorm:"column:currency;type:varchar(3);not null"`
	CreatedAt          time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (BrokerageAccountMonthlySnapshot) TableName() string {
	return "brokerage_account_monthly_snapshots"
}

// MetalHoldingMonthlySnapshot freezes a metal holding's value.
type MetalHoldingMonthlySnapshot struct {
	MetalHoldingID string          `json:"metal_holding_id" gorm:"primaryKey;column:metal_holding_id;type:varchar(36)"`
	MonthKey       string          `json:"month_key" gorm:"primaryKey;column:month_key;type:varchar(7)"`
	WalletID       string          `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;index"`
	Value          decimal.Decimal `json:"value" gorm:"column:value;type:decimal(20,2);not null"`
	Currency       string          `json:"currency" gorm:"column:currency;type:varchar(3);not null"`
	CreatedAt      time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (MetalHoldingMonthlySnapshot) TableName() string {
	return "metal_holding_monthly_snapshots"
}

// RealEstateMonthlySnapshot freezes a property's value.
type RealEstateMonthlySnapshot struct {
	RealEstateID string          `json:"real_estate_id" gorm:"primaryKey;column:real_estate_id;type:varchar(36)"`
	MonthKey     string          `json:"month_key" gorm:"primaryKey;column:month_key;type:varchar(7)"`
	WalletID     string          `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;index"`
	Value        decimal.Decimal `json:"value" gorm:"column:value;type:decimal(20,2);not null"`
	Currency     string          `json:"currency" gorm:"column:currency;type:varchar(3);not null"`
	CreatedAt    time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (RealEstateMonthlySnapshot) TableName() string {
	return "real_estate_monthly_snapshots"
}
