package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/secure"
)

// AccountService manages deposit and brokerage accounts. Account numbers are
// stored encrypted; the fingerprint column catches duplicates across users.
type AccountService interface {
	CreateDepositAccount(ctx context.Context, account *models.DepositAccount, accountNumber string) error
	GetDepositAccount(ctx context.Context, id string) (*models.DepositAccount, error)
	ListDepositAccounts(ctx context.Context, walletID string) ([]*models.DepositAccount, error)
	RevealAccountNumber(ctx context.Context, id string) (string, error)
	UpdateDepositAccount(ctx context.Context, account *models.DepositAccount) error
	DeleteDepositAccount(ctx context.Context, id string) error

	CreateBrokerageAccount(ctx context.Context, account *models.BrokerageAccount) error
	ListBrokerageAccounts(ctx context.Context, walletID string) ([]*models.BrokerageAccount, error)
	DeleteBrokerageAccount(ctx context.Context, id string) error
	LinkDepositAccount(ctx context.Context, brokerageID, depositID string) (*models.BrokerageDepositLink, error)
	UnlinkDepositAccount(ctx context.Context, linkID string) error
}

type accountService struct {
	db     *db.DB
	cipher *secure.Cipher
	logger *zap.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(database *db.DB, cipher *secure.Cipher, logger *zap.Logger) AccountService {
	return &accountService{db: database, cipher: cipher, logger: logger}
}

// CreateDepositAccount stores the account with an encrypted number and an
// empty balance row. A reused account number conflicts on the fingerprint.
func (s *accountService) CreateDepositAccount(ctx context.Context, account *models.DepositAccount, accountNumber string) error {
	if accountNumber == "" {
		return apperrors.Validationf("accounts.create", "account_number is required")
	}
	ciphertext, err := s.cipher.Encrypt(accountNumber)
	if err != nil {
		return apperrors.Internal("accounts.create", err)
	}
	account.AccountNumberCiphertext = ciphertext
	account.AccountNumberFingerprint = s.cipher.Fingerprint(accountNumber)

	if err := account.Validate(); err != nil {
		return apperrors.Validationf("accounts.create", "%s", err.Error())
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DepositAccount{}).
			Where("account_number_fingerprint = ?", account.AccountNumberFingerprint).
			Count(&count).Error; err != nil {
			return apperrors.Internal("accounts.create", err)
		}
		if count > 0 {
			return apperrors.Conflictf("accounts.create", "account number already registered")
		}
		if err := tx.Create(account).Error; err != nil {
			return apperrors.Internal("accounts.create", err)
		}
		balance := models.DepositAccountBalance{
			DepositAccountID: account.ID,
			Available:        decimal.Zero,
			Blocked:          decimal.Zero,
		}
		if err := tx.Create(&balance).Error; err != nil {
			return apperrors.Internal("accounts.create", err)
		}
		account.Balance = &balance
		return nil
	})
}

// GetDepositAccount loads an account with its balance.
func (s *accountService) GetDepositAccount(ctx context.Context, id string) (*models.DepositAccount, error) {
	var account models.DepositAccount
	err := s.db.WithContext(ctx).Preload("Balance").First(&account, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("accounts.get", "deposit account %s not found", id)
		}
		return nil, apperrors.Internal("accounts.get", err)
	}
	return &account, nil
}

// ListDepositAccounts lists the accounts of one wallet with balances.
func (s *accountService) ListDepositAccounts(ctx context.Context, walletID string) ([]*models.DepositAccount, error) {
	var accounts []*models.DepositAccount
	err := s.db.WithContext(ctx).Preload("Balance").
		Where("wallet_id = ?", walletID).
		Order("name ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, apperrors.Internal("accounts.list", err)
	}
	return accounts, nil
}

// RevealAccountNumber decrypts and returns the stored account number.
func (s *accountService) RevealAccountNumber(ctx context.Context, id string) (string, error) {
	account, err := s.GetDepositAccount(ctx, id)
	if err != nil {
		return "", err
	}
	number, err := s.cipher.Decrypt(account.AccountNumberCiphertext)
	if err != nil {
		return "", apperrors.Internal("accounts.reveal", err)
	}
	return number, nil
}

// UpdateDepositAccount updates the mutable fields. Currency and the account
// number are immutable once transactions exist on the chain.
func (s *accountService) UpdateDepositAccount(ctx context.Context, account *models.DepositAccount) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.DepositAccount
		if err := tx.First(&existing, "id = ?", account.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundf("accounts.update", "deposit account %s not found", account.ID)
			}
			return apperrors.Internal("accounts.update", err)
		}
		updates := map[string]interface{}{}
		if account.Name != "" {
			updates["name"] = account.Name
		}
		if account.Type != "" {
			updates["type"] = account.Type
		}
		if account.Currency != "" && account.Currency != existing.Currency {
			var txCount int64
			if err := tx.Model(&models.Transaction{}).
				Where("deposit_account_id = ?", account.ID).Count(&txCount).Error; err != nil {
				return apperrors.Internal("accounts.update", err)
			}
			if txCount > 0 {
				return apperrors.Validationf("accounts.update", "currency cannot change once transactions exist")
			}
			updates["currency"] = account.Currency
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&models.DepositAccount{}).Where("id = ?", account.ID).Updates(updates).Error; err != nil {
			return apperrors.Internal("accounts.update", err)
		}
		return nil
	})
}

// DeleteDepositAccount removes the account; the balance, transactions and
// gains cascade.
func (s *accountService) DeleteDepositAccount(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var linkCount int64
		if err := tx.Model(&models.BrokerageDepositLink{}).
			Where("deposit_account_id = ?", id).Count(&linkCount).Error; err != nil {
			return apperrors.Internal("accounts.delete", err)
		}
		if linkCount > 0 {
			return apperrors.Conflictf("accounts.delete", "account is linked to a brokerage account")
		}
		res := tx.Select("Balance", "Transactions").Delete(&models.DepositAccount{ID: id})
		if res.Error != nil {
			return apperrors.Internal("accounts.delete", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFoundf("accounts.delete", "deposit account %s not found", id)
		}
		return nil
	})
}

// CreateBrokerageAccount registers a broker-side account.
func (s *accountService) CreateBrokerageAccount(ctx context.Context, account *models.BrokerageAccount) error {
	if err := account.Validate(); err != nil {
		return apperrors.Validationf("brokerage.create", "%s", err.Error())
	}
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return apperrors.Internal("brokerage.create", err)
	}
	return nil
}

// ListBrokerageAccounts lists brokerage accounts with links and holdings.
func (s *accountService) ListBrokerageAccounts(ctx context.Context, walletID string) ([]*models.BrokerageAccount, error) {
	var accounts []*models.BrokerageAccount
	err := s.db.WithContext(ctx).
		Preload("Links").Preload("Holdings").
		Where("wallet_id = ?", walletID).
		Order("name ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, apperrors.Internal("brokerage.list", err)
	}
	return accounts, nil
}

// DeleteBrokerageAccount removes the account; links, holdings and events
// cascade.
func (s *accountService) DeleteBrokerageAccount(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Select("Links", "Holdings", "Events").
		Delete(&models.BrokerageAccount{ID: id})
	if res.Error != nil {
		return apperrors.Internal("brokerage.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("brokerage.delete", "brokerage account %s not found", id)
	}
	return nil
}

// LinkDepositAccount attaches a cash line to a brokerage account. At most one
// link per currency; a second link in the same currency conflicts.
func (s *accountService) LinkDepositAccount(ctx context.Context, brokerageID, depositID string) (*models.BrokerageDepositLink, error) {
	var link *models.BrokerageDepositLink
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deposit models.DepositAccount
		if err := tx.First(&deposit, "id = ?", depositID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundf("brokerage.link", "deposit account %s not found", depositID)
			}
			return apperrors.Internal("brokerage.link", err)
		}
		var brokerage models.BrokerageAccount
		if err := tx.First(&brokerage, "id = ?", brokerageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundf("brokerage.link", "brokerage account %s not found", brokerageID)
			}
			return apperrors.Internal("brokerage.link", err)
		}
		if deposit.WalletID != brokerage.WalletID {
			return apperrors.Validationf("brokerage.link", "accounts belong to different wallets")
		}

		var count int64
		if err := tx.Model(&models.BrokerageDepositLink{}).
			Where("brokerage_account_id = ? AND currency = ?", brokerageID, deposit.Currency).
			Count(&count).Error; err != nil {
			return apperrors.Internal("brokerage.link", err)
		}
		if count > 0 {
			return apperrors.Conflictf("brokerage.link", "a %s cash line is already linked", deposit.Currency)
		}

		link = &models.BrokerageDepositLink{
			BrokerageAccountID: brokerageID,
			DepositAccountID:   depositID,
			Currency:           deposit.Currency,
		}
		if err := tx.Create(link).Error; err != nil {
			return apperrors.Internal("brokerage.link", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// UnlinkDepositAccount removes one link.
func (s *accountService) UnlinkDepositAccount(ctx context.Context, linkID string) error {
	res := s.db.WithContext(ctx).Delete(&models.BrokerageDepositLink{}, "id = ?", linkID)
	if res.Error != nil {
		return apperrors.Internal("brokerage.unlink", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("brokerage.unlink", "link %s not found", linkID)
	}
	return nil
}
