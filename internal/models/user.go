package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an identity. Created inactive on registration, activated
// by tokenized link, deleted on admin action (cascades to wallets).
type User struct {
	ID           string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	Email        string `json:"email" gorm:"column:email;type:varchar(255);not null;uniqueIndex"`
	Username     string `json:"username" gorm:"column:username;type:varchar(100);not null;uniqueIndex"`
	PasswordHash string `json:"-" gorm:"column:password_hash;type:varchar(255);not null"`

	Active          bool    `json:"active" gorm:"column:active;not null;default:false"`
	ActivationToken *string `json:"-" gorm:"column:activation_token;type:varchar(64);index"`

	Wallets []Wallet   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Notes   []UserNote `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Validate validates registration input.
func (u *User) Validate() error {
	if !strings.Contains(u.Email, "@") {
		return errors.New("email is invalid")
	}
	if len(u.Username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	return nil
}

// UserNote is a free-form note attached to a user.
type UserNote struct {
	ID     string `json:"id" gorm:"primaryKey;column:id;type:varchar(36)"`
	UserID string `json:"user_id" gorm:"column:user_id;type:varchar(36);not null;index"`
	Title  string `json:"title" gorm:"column:title;type:varchar(255);not null"`
	Body   string `json:"body" gorm:"column:body;type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}

func (UserNote) TableName() string { return "user_notes" }

func (n *UserNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Session is an authenticated browser session for the session/auth surface.
type Session struct {
	Token     string    `json:"-" gorm:"primaryKey;column:token;type:varchar(64)"`
	UserID    string    `json:"user_id" gorm:"column:user_id;type:varchar(36);not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"column:expires_at;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (Session) TableName() string { return "sessions" }

// IPBlock records a temporary or permanent block created when rate limits
// escalate.
type IPBlock struct {
	ID        uint       `json:"id" gorm:"primaryKey;column:id"`
	IP        string     `json:"ip" gorm:"column:ip;type:varchar(64);not null;index"`
	Reason    string     `json:"reason" gorm:"column:reason;type:varchar(255)"`
	ExpiresAt *time.Time `json:"expires_at" gorm:"column:expires_at"` // nil means permanent
	CreatedAt time.Time  `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (IPBlock) TableName() string { return "ip_blocks" }
