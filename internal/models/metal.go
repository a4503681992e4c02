package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GramsPerTroyOunce converts between grams and the troy ounce quotes used by
// metal price feeds.
var GramsPerTroyOunce = decimal.NewFromFloat(31.1034768)

// MetalHolding is a (wallet, metal) position in grams with its cost basis.
// Selling reduces grams; a fully sold row is deleted.
type MetalHolding struct {
	ID       string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	WalletID string `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;uniqueIndex:uq_metal_holdings_wallet_metal"`
	Metal    string `json:"metal" gorm:"column:metal;type:varchar(20);not null;uniqueIndex:uq_metal_holdings_wallet_metal"`

	// QuoteSymbol is the market-data symbol quoting this metal per troy
	// ounce, e.g. XAUUSD.
	QuoteSymbol string `json:"quote_symbol" gorm:"column:quote_symbol;type:varchar(20)"`

	Grams        decimal.Decimal `json:"grams" gorm:"column:grams;type:decimal(20,6);not null"`
	CostBasis    decimal.Decimal `json:"cost_basis" gorm:"column:cost_basis;type:decimal(20,2);not null"`
	CostCurrency string          `json:"cost_currency" gorm:"column:cost_currency;type:varchar(3);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (MetalHolding) TableName() string { return "metal_holdings" }

func (m *MetalHolding) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Validate validates metal holding input.
func (m *MetalHolding) Validate() error {
	if m.WalletID == "" {
		return errors.New("wallet_id is required")
	}
	if m.Metal == "" {
		return errors.New("metal is required")
	}
	if !m.Grams.IsPositive() {
		return errors.New("grams must be positive")
	}
	if m.CostBasis.IsNegative() {
		return errors.New("cost_basis must be non-negative")
	}
	if len(m.CostCurrency) != 3 {
		return errors.New("cost_currency must be a 3-letter code")
	}
	return nil
}
