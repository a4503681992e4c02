package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
)

type transactionService struct {
	db     *db.DB
	logger *zap.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(database *db.DB, logger *zap.Logger) TransactionService {
	return &transactionService{db: database, logger: logger}
}

// CreateBatch applies incoming rows in order inside one database
// transaction. Each row reads the current available balance, extends the
// chain and moves the balance; rows that would drive a non-CREDIT account
// negative are rejected per-item without aborting the rest.
func (s *transactionService) CreateBatch(ctx context.Context, accountID string, txs []*models.Transaction, gains map[int]string) (*TransactionBatchResult, error) {
	result := &TransactionBatchResult{}
	if len(txs) == 0 {
		return result, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		account, balance, err := lockAccountBalance(tx, accountID)
		if err != nil {
			return err
		}

		current := balance.Available
		for i, t := range txs {
			t.DepositAccountID = accountID
			if t.Status == "" {
				t.Status = models.TransactionStatusBooked
			}
			if err := t.Validate(); err != nil {
				result.Failed = append(result.Failed, BatchFailed{ID: strconv.Itoa(i), Detail: err.Error()})
				continue
			}

			gainKind := gains[i]
			if gainKind != "" {
				if err := models.ValidateGainKind(gainKind); err != nil {
					result.Failed = append(result.Failed, BatchFailed{ID: strconv.Itoa(i), Detail: err.Error()})
					continue
				}
			}

			after := current.Add(t.Amount)
			if after.IsNegative() && account.Type != models.AccountTypeCredit {
				result.Failed = append(result.Failed, BatchFailed{
					ID:     strconv.Itoa(i),
					Detail: fmt.Sprintf("insufficient funds: balance %s, amount %s", current.String(), t.Amount.String()),
				})
				continue
			}

			t.BalanceBefore = current
			t.BalanceAfter = after
			if err := tx.Create(t).Error; err != nil {
				return apperrors.Internal("transactions.create", err)
			}

			if gainKind != "" {
				gain := &models.CapitalGain{
					TransactionID:    t.ID,
					DepositAccountID: accountID,
					Kind:             gainKind,
					Amount:           t.Amount,
					Currency:         account.Currency,
				}
				if err := tx.Create(gain).Error; err != nil {
					return apperrors.Internal("transactions.create_gain", err)
				}
				t.CapitalGain = gain
			}

			current = after
			result.Created = append(result.Created, t)
		}

		balance.Available = current
		if err := tx.Save(balance).Error; err != nil {
			return apperrors.Internal("transactions.save_balance", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateBatch applies patches per-item, then recomputes the balance chain of
// every affected account from its first row forward. Failures are reported
// per id and never abort the batch.
func (s *transactionService) UpdateBatch(ctx context.Context, patches []*models.Transaction) (*BatchResult, error) {
	result := &BatchResult{Failed: []BatchFailed{}}
	anchors := make(map[string]decimal.Decimal)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, patch := range patches {
			if patch.ID == "" {
				result.Failed = append(result.Failed, BatchFailed{ID: "", Detail: "id is required"})
				continue
			}
			var existing models.Transaction
			if err := tx.First(&existing, "id = ?", patch.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					result.Failed = append(result.Failed, BatchFailed{ID: patch.ID, Detail: "transaction not found"})
					continue
				}
				return apperrors.Internal("transactions.update", err)
			}

			// The opening balance must come from the chain as it stood
			// before the first patch touches this account.
			if _, ok := anchors[existing.DepositAccountID]; !ok {
				anchor, err := chainAnchor(tx, existing.DepositAccountID)
				if err != nil {
					return err
				}
				anchors[existing.DepositAccountID] = anchor
			}

			merged := mergeTransactionPatch(&existing, patch)
			if err := merged.Validate(); err != nil {
				result.Failed = append(result.Failed, BatchFailed{ID: patch.ID, Detail: err.Error()})
				continue
			}
			if err := tx.Model(&models.Transaction{}).Where("id = ?", merged.ID).
				Updates(map[string]interface{}{
					"date":        merged.Date,
					"type":        merged.Type,
					"amount":      merged.Amount,
					"description": merged.Description,
					"category":    merged.Category,
					"status":      merged.Status,
				}).Error; err != nil {
				return apperrors.Internal("transactions.update", err)
			}
			result.Updated++
		}

		for accountID, anchor := range anchors {
			if err := recomputeBalanceChain(tx, accountID, anchor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get retrieves a transaction with its capital gain, if any.
func (s *transactionService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	err := s.db.WithContext(ctx).Preload("CapitalGain").First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("transactions.get", "transaction %s not found", id)
		}
		return nil, apperrors.Internal("transactions.get", err)
	}
	return &t, nil
}

// Page returns a filtered page of transactions scoped to the given wallets,
// plus per-currency totals over the whole filtered set.
func (s *transactionService) Page(ctx context.Context, walletIDs []string, filter *models.TransactionFilter) (*models.TransactionPage, error) {
	page := &models.TransactionPage{
		Items:       []*models.Transaction{},
		TotalsByCcy: map[string]decimal.Decimal{},
	}

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Joins("JOIN deposit_accounts ON deposit_accounts.id = transactions.deposit_account_id").
		Where("deposit_accounts.wallet_id IN ?", walletIDs)
	base = applyTransactionFilter(base, filter)

	if err := base.Session(&gorm.Session{}).Count(&page.Total).Error; err != nil {
		return nil, apperrors.Internal("transactions.page", err)
	}

	// Totals per currency over the filtered set, not the page.
	type ccyTotal struct {
		Currency string
		Total    decimal.Decimal
	}
	var totals []ccyTotal
	if err := base.Session(&gorm.Session{}).
		Select("deposit_accounts.currency AS currency, SUM(transactions.amount) AS total").
		Group("deposit_accounts.currency").
		Scan(&totals).Error; err != nil {
		return nil, apperrors.Internal("transactions.page", err)
	}
	for _, t := range totals {
		page.TotalsByCcy[t.Currency] = t.Total
	}

	q := base.Session(&gorm.Session{}).Order("transactions.date DESC, transactions.created_at DESC")
	if filter != nil && filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter != nil && filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	if err := q.Preload("CapitalGain").Find(&page.Items).Error; err != nil {
		return nil, apperrors.Internal("transactions.page", err)
	}
	return page, nil
}

// Delete removes a transaction and recomputes its account chain.
func (s *transactionService) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Transaction
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundf("transactions.delete", "transaction %s not found", id)
			}
			return apperrors.Internal("transactions.delete", err)
		}
		anchor, err := chainAnchor(tx, existing.DepositAccountID)
		if err != nil {
			return err
		}
		if err := tx.Where("transaction_id = ?", id).Delete(&models.CapitalGain{}).Error; err != nil {
			return apperrors.Internal("transactions.delete", err)
		}
		if err := tx.Delete(&models.Transaction{}, "id = ?", id).Error; err != nil {
			return apperrors.Internal("transactions.delete", err)
		}
		return recomputeBalanceChain(tx, existing.DepositAccountID, anchor)
	})
}

// lockAccountBalance loads the account and takes the row lock on its balance
// so concurrent inserts serialize. Lock order is account then balance.
func lockAccountBalance(tx *gorm.DB, accountID string) (*models.DepositAccount, *models.DepositAccountBalance, error) {
	var account models.DepositAccount
	if err := tx.First(&account, "id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFoundf("accounts.get", "deposit account %s not found", accountID)
		}
		return nil, nil, apperrors.Internal("accounts.get", err)
	}

	var balance models.DepositAccountBalance
	if err := db.LockForUpdate(tx).First(&balance, "deposit_account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			balance = models.DepositAccountBalance{
				DepositAccountID: accountID,
				Available:        decimal.Zero,
				Blocked:          decimal.Zero,
			}
			if err := tx.Create(&balance).Error; err != nil {
				return nil, nil, apperrors.Internal("accounts.create_balance", err)
			}
		} else {
			return nil, nil, apperrors.Internal("accounts.get_balance", err)
		}
	}
	return &account, &balance, nil
}

// chainAnchor reads the opening balance of an account chain: the first row's
// balance_before in (date, created_at) order. Must be called before the
// mutation, while the stored chain is still intact. An empty chain anchors at
// the current available balance.
func chainAnchor(tx *gorm.DB, accountID string) (decimal.Decimal, error) {
	var first models.Transaction
	err := tx.Where("deposit_account_id = ?", accountID).
		Order("date ASC, created_at ASC").First(&first).Error
	if err == nil {
		return first.BalanceBefore, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, apperrors.Internal("transactions.anchor", err)
	}
	var balance models.DepositAccountBalance
	if err := tx.First(&balance, "deposit_account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, apperrors.Internal("transactions.anchor", err)
	}
	return balance.Available, nil
}

// recomputeBalanceChain rebuilds balance_before/after for every transaction
// of the account in (date, created_at) order and moves the balance to the
// final value. anchor is the opening balance captured via chainAnchor before
// the mutation; the surviving first row's stored balance_before is stale when
// the old opener was deleted or re-dated.
func recomputeBalanceChain(tx *gorm.DB, accountID string, anchor decimal.Decimal) error {
	account, balance, err := lockAccountBalance(tx, accountID)
	if err != nil {
		return err
	}

	var rows []models.Transaction
	if err := tx.Where("deposit_account_id = ?", accountID).
		Order("date ASC, created_at ASC").Find(&rows).Error; err != nil {
		return apperrors.Internal("transactions.recompute", err)
	}

	current := anchor
	for i := range rows {
		after := current.Add(rows[i].Amount)
		if after.IsNegative() && account.Type != models.AccountTypeCredit {
			return apperrors.Validationf("transactions.recompute",
				"update would drive balance negative at transaction %s", rows[i].ID)
		}
		if !rows[i].BalanceBefore.Equal(current) || !rows[i].BalanceAfter.Equal(after) {
			if err := tx.Model(&models.Transaction{}).Where("id = ?", rows[i].ID).
				Updates(map[string]interface{}{"balance_before": current, "balance_after": after}).Error; err != nil {
				return apperrors.Internal("transactions.recompute", err)
			}
		}
		current = after
	}

	balance.Available = current
	if err := tx.Save(balance).Error; err != nil {
		return apperrors.Internal("transactions.recompute", err)
	}
	return nil
}

// appendChainTransaction extends an account chain by one row under the
// balance lock, optionally tagging it with a capital gain. Used by the metal
// and real-estate sell flows to book proceeds.
func appendChainTransaction(tx *gorm.DB, accountID string, t *models.Transaction, gainKind string, gainAmount decimal.Decimal) error {
	account, balance, err := lockAccountBalance(tx, accountID)
	if err != nil {
		return err
	}
	t.DepositAccountID = accountID
	if t.Status == "" {
		t.Status = models.TransactionStatusBooked
	}
	if err := t.Validate(); err != nil {
		return apperrors.Validationf("transactions.create", "%s", err.Error())
	}

	after := balance.Available.Add(t.Amount)
	if after.IsNegative() && account.Type != models.AccountTypeCredit {
		return apperrors.Validationf("transactions.create",
			"insufficient funds: balance %s, amount %s", balance.Available.String(), t.Amount.String())
	}
	t.BalanceBefore = balance.Available
	t.BalanceAfter = after
	if err := tx.Create(t).Error; err != nil {
		return apperrors.Internal("transactions.create", err)
	}

	if gainKind != "" {
		if err := models.ValidateGainKind(gainKind); err != nil {
			return apperrors.Validationf("transactions.create", "%s", err.Error())
		}
		gain := &models.CapitalGain{
			TransactionID:    t.ID,
			DepositAccountID: accountID,
			Kind:             gainKind,
			Amount:           gainAmount,
			Currency:         account.Currency,
		}
		if err := tx.Create(gain).Error; err != nil {
			return apperrors.Internal("transactions.create_gain", err)
		}
		t.CapitalGain = gain
	}

	balance.Available = after
	if err := tx.Save(balance).Error; err != nil {
		return apperrors.Internal("transactions.save_balance", err)
	}
	return nil
}

// mergeTransactionPatch overlays non-zero patch fields onto the existing row.
func mergeTransactionPatch(existing, patch *models.Transaction) *models.Transaction {
	merged := *existing
	if !patch.Date.IsZero() {
		merged.Date = patch.Date
	}
	if patch.Type != "" {
		merged.Type = patch.Type
	}
	if !patch.Amount.IsZero() {
		merged.Amount = patch.Amount
	}
	if patch.Description != "" {
		merged.Description = patch.Description
	}
	if patch.Category != nil {
		merged.Category = patch.Category
	}
	if patch.Status != "" {
		merged.Status = patch.Status
	}
	return &merged
}

func applyTransactionFilter(q *gorm.DB, filter *models.TransactionFilter) *gorm.DB {
	if filter == nil {
		return q
	}
	if len(filter.AccountIDs) > 0 {
		q = q.Where("transactions.deposit_account_id IN ?", filter.AccountIDs)
	}
	if len(filter.Categories) > 0 {
		q = q.Where("transactions.category IN ?", filter.Categories)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("transactions.status IN ?", filter.Statuses)
	}
	if filter.StartDate != nil {
		q = q.Where("transactions.date >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		q = q.Where("transactions.date <= ?", *filter.EndDate)
	}
	if filter.Query != "" {
		q = q.Where("transactions.description LIKE ?", "%"+filter.Query+"%")
	}
	return q
}
