package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RealEstate is a property on a wallet. Valuation uses the reference price
// catalog; an absent price falls back to purchase_price and flags the item.
type RealEstate struct {
	ID       string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	WalletID string `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;index"`
	Name     string `json:"name" gorm:"column:name;type:varchar(100);not null"`

	Type    string `json:"type" gorm:"column:type;type:varchar(30);not null"`
	Country string `json:"country" gorm:"column:country;type:varchar(2);not null"`
	City    string `json:"city" gorm:"column:city;type:varchar(100);not null"`

	AreaM2           decimal.Decimal `json:"area_m2" gorm:"column:area_m2;type:decimal(12,2);not null"`
	PurchasePrice    decimal.Decimal `json:"purchase_price" gorm:"column:purchase_price;type:decimal(20,2);not null"`
	PurchaseCurrency string          `json:"purchase_currency" gorm:"column:purchase_currency;type:varchar(3);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (RealEstate) TableName() string { return "real_estates" }

func (r *RealEstate) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// Validate validates real estate input.
func (r *RealEstate) Validate() error {
	if r.WalletID == "" {
		return errors.New("wallet_id is required")
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.Type == "" {
		return errors.New("type is required")
	}
	if r.AreaM2.IsNegative() {
		return errors.New("area_m2 must be non-negative")
	}
	if r.PurchasePrice.IsNegative() {
		return errors.New("purchase_price must be non-negative")
	}
	if len(r.PurchaseCurrency) != 3 {
		return errors.New("purchase_currency must be a 3-letter code")
	}
	return nil
}

// RealEstatePrice is a reference price per m² for (type, country?, city?,
// currency). History is kept; the newest row wins within a fallback step.
type RealEstatePrice struct {
	ID       string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	Type     string `json:"type" gorm:"column:type;type:varchar(30);not null;index:idx_re_prices_lookup"`
	Country  string `json:"country" gorm:"column:country;type:varchar(2);index:idx_re_prices_lookup"` // empty means any
	City     string `json:"city" gorm:"column:city;type:varchar(100);index:idx_re_prices_lookup"`     // empty means any
	Currency string `json:"currency" gorm:"column:currency;type:varchar(3);not null"`

	PricePerM2 decimal.Decimal `json:"price_per_m2" gorm:"column:price_per_m2;type:decimal(20,2);not null"`
	AsOf       time.Time       `json:"as_of" gorm:"column:as_of;not null;index"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (RealEstatePrice) TableName() string { return "real_estate_prices" }

func (p *RealEstatePrice) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Validate validates reference price input.
func (p *RealEstatePrice) Validate() error {
	if p.Type == "" {
		return errors.New("type is required")
	}
	if len(p.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	if !p.PricePerM2.IsPositive() {
		return errors.New("price_per_m2 must be positive")
	}
	if p.AsOf.IsZero() {
		return errors.New("as_of is required")
	}
	return nil
}
