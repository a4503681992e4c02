package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultBaseCurrency is the wallet reporting currency when none is set.
const DefaultBaseCurrency = "PLN"

// Wallet is a named container of accounts and holdings belonging to a user.
// Display name is unique per user.
type Wallet struct {
	ID           string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	UserID       string `json:"user_id" gorm:"column:user_id;type:varchar(36);not null;uniqueIndex:uq_wallets_user_name"`
	Name         string `json:"name" gorm:"column:name;type:varchar(100);not null;uniqueIndex:uq_wallets_user_name"`
	BaseCurrency string `json:"base_ccy" gorm:"column:base_currency;type:varchar(3);not null;default:PLN"`

	DepositAccounts   []DepositAccount   `json:"-" gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE"`
	BrokerageAccounts []BrokerageAccount `json:"-" gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE"`
	MetalHoldings     []MetalHolding     `json:"-" gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE"`
	RealEstates       []RealEstate       `json:"-" gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE"`
	Debts             []Debt             `json:"-" gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE"`
	RecurringExpenses []RecurringExpense `json:"-" gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE"`
	YearGoals         []YearGoal         `json:"-" gorm:"foreignKey:WalletID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Wallet) TableName() string { return "wallets" }

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if w.BaseCurrency == "" {
		w.BaseCurrency = DefaultBaseCurrency
	}
	return nil
}

// Validate validates wallet input.
func (w *Wallet) Validate() error {
	if w.UserID == "" {
		return errors.New("user_id is required")
	}
	if w.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// Debt is an outstanding liability on a wallet.
type Debt struct {
	ID       string          `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	WalletID string          `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;index"`
	Name     string          `json:"name" gorm:"column:name;type:varchar(100);not null"`
	Amount   decimal.Decimal `json:"amount" gorm:"column:amount;type:decimal(20,2);not null"`
	Currency string          `json:"currency" gorm:"column:currency;type:varchar(3);not null"`
	DueDate  *time.Time      `json:"due_date" gorm:"column:due_date"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Debt) TableName() string { return "debts" }

func (d *Debt) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Validate validates debt input.
func (d *Debt) Validate() error {
	if d.Name == "" {
		return errors.New("name is required")
	}
	if d.Amount.IsNegative() {
		return errors.New("amount must be non-negative")
	}
	if d.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

// RecurringExpense is a repeating monthly outflow tracked per wallet.
type RecurringExpense struct {
	ID         string          `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	WalletID   string          `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;index"`
	Name       string          `json:"name" gorm:"column:name;type:varchar(100);not null"`
	Amount     decimal.Decimal `json:"amount" gorm:"column:amount;type:decimal(20,2);not null"`
	Currency   string          `json:"currency" gorm:"column:currency;type:varchar(3);not null"`
	DayOfMonth int             `json:"day_of_month" gorm:"column:day_of_month;not null;default:1"`
	Active     bool            `json:"active" gorm:"column:active;not null;default:true"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (RecurringExpense) TableName() string { return "recurring_expenses" }

func (e *RecurringExpense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// Validate validates recurring expense input.
func (e *RecurringExpense) Validate() error {
	if e.Name == "" {
		return errors.New("name is required")
	}
	if e.Amount.IsNegative() {
		return errors.New("amount must be non-negative")
	}
	if e.DayOfMonth < 1 || e.DayOfMonth > 31 {
		return errors.New("day_of_month must be between 1 and 31")
	}
	return nil
}

// YearGoal is a savings target for one calendar year.
type YearGoal struct {
	ID       string          `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	WalletID string          `json:"wallet_id" gorm:"column:wallet_id;type:varchar(36);not null;uniqueIndex:uq_year_goals_wallet_year"`
	Year     int             `json:"year" gorm:"column:year;not null;uniqueIndex:uq_year_goals_wallet_year"`
	Target   decimal.Decimal `json:"target" gorm:"column:target;type:decimal(20,2);not null"`
	Currency string          `json:"currency" gorm:"column:currency;type:varchar(3);not null"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (YearGoal) TableName() string { return "year_goals" }

func (g *YearGoal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// Validate validates year goal input.
func (g *YearGoal) Validate() error {
	if g.Year < 2000 || g.Year > 2200 {
		return errors.New("year is out of range")
	}
	if g.Target.IsNegative() {
		return errors.New("target must be non-negative")
	}
	return nil
}

// Bank is a catalog entry for an institution.
type Bank struct {
	ID        string    `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	Name      string    `json:"name" gorm:"column:name;type:varchar(100);not null;uniqueIndex"`
	ShortCode string    `json:"short_code" gorm:"column:short_code;type:varchar(20);not null;uniqueIndex"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (Bank) TableName() string { return "banks" }

func (b *Bank) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// Validate validates bank input.
func (b *Bank) Validate() error {
	if b.Name == "" {
		return errors.New("name is required")
	}
	if b.ShortCode == "" {
		return errors.New("short_code is required")
	}
	return nil
}
