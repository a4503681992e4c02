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
)

// WalletService manages wallets and their planning satellites: debts,
// recurring expenses, year goals and user notes.
type WalletService interface {
	Create(ctx context.Context, wallet *models.Wallet) error
	Get(ctx context.Context, id string) (*models.Wallet, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Wallet, error)
	Update(ctx context.Context, wallet *models.Wallet) error
	Delete(ctx context.Context, id string) error

	CreateDebt(ctx context.Context, debt *models.Debt) error
	ListDebts(ctx context.Context, walletID string) ([]*models.Debt, error)
	UpdateDebt(ctx context.Context, debt *models.Debt) error
	DeleteDebt(ctx context.Context, id string) error

	CreateRecurringExpense(ctx context.Context, exp *models.RecurringExpense) error
	ListRecurringExpenses(ctx context.Context, walletID string) ([]*models.RecurringExpense, error)
	UpdateRecurringExpense(ctx context.Context, exp *models.RecurringExpense) error
	DeleteRecurringExpense(ctx context.Context, id string) error

	SetYearGoal(ctx context.Context, goal *models.YearGoal) error
	ListYearGoals(ctx context.Context, walletID string) ([]*models.YearGoal, error)
	DeleteYearGoal(ctx context.Context, id string) error

	CreateNote(ctx context.Context, note *models.UserNote) error
	ListNotes(ctx context.Context, userID string) ([]*models.UserNote, error)
	UpdateNote(ctx context.Context, note *models.UserNote) error
	DeleteNote(ctx context.Context, id string) error

	Dashboard(ctx context.Context, walletID string) (*Dashboard, error)
}

// Dashboard is the planning summary of one wallet: liabilities, the monthly
// recurring burn and the current year goal.
type Dashboard struct {
	WalletID          string                     `json:"wallet_id"`
	Debts             []*models.Debt             `json:"debts"`
	DebtTotalsByCcy   map[string]decimal.Decimal `json:"debt_totals_by_ccy"`
	RecurringExpenses []*models.RecurringExpense `json:"recurring_expenses"`
	MonthlyBurnByCcy  map[string]decimal.Decimal `json:"monthly_burn_by_ccy"`
	YearGoals         []*models.YearGoal         `json:"year_goals"`
}

type walletService struct {
	db     *db.DB
	logger *zap.Logger
}

// NewWalletService creates a new wallet service.
func NewWalletService(database *db.DB, logger *zap.Logger) WalletService {
	return &walletService{db: database, logger: logger}
}

func (s *walletService) Create(ctx context.Context, wallet *models.Wallet) error {
	if err := wallet.Validate(); err != nil {
		return apperrors.Validationf("wallets.create", "%s", err.Error())
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Wallet{}).
		Where("user_id = ? AND name = ?", wallet.UserID, wallet.Name).
		Count(&count).Error; err != nil {
		return apperrors.Internal("wallets.create", err)
	}
	if count > 0 {
		return apperrors.Conflictf("wallets.create", "wallet %q already exists", wallet.Name)
	}
	if err := s.db.WithContext(ctx).Create(wallet).Error; err != nil {
		return apperrors.Internal("wallets.create", err)
	}
	return nil
}

func (s *walletService) Get(ctx context.Context, id string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.WithContext(ctx).First(&wallet, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("wallets.get", "wallet %s not found", id)
		}
		return nil, apperrors.Internal("wallets.get", err)
	}
	return &wallet, nil
}

func (s *walletService) ListByUser(ctx context.Context, userID string) ([]*models.Wallet, error) {
	var wallets []*models.Wallet
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC").
		Find(&wallets).Error
	if err != nil {
		return nil, apperrors.Internal("wallets.list", err)
	}
	return wallets, nil
}

func (s *walletService) Update(ctx context.Context, wallet *models.Wallet) error {
	updates := map[string]interface{}{}
	if wallet.Name != "" {
		updates["name"] = wallet.Name
	}
	if wallet.BaseCurrency != "" {
		if len(wallet.BaseCurrency) != 3 {
			return apperrors.Validationf("wallets.update", "base_ccy must be a 3-letter code")
		}
		updates["base_currency"] = wallet.BaseCurrency
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Wallet{}).Where("id = ?", wallet.ID).Updates(updates)
	if res.Error != nil {
		return apperrors.Internal("wallets.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("wallets.update", "wallet %s not found", wallet.ID)
	}
	return nil
}

func (s *walletService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).
		Select("DepositAccounts", "BrokerageAccounts", "MetalHoldings", "RealEstates",
			"Debts", "RecurringExpenses", "YearGoals").
		Delete(&models.Wallet{ID: id})
	if res.Error != nil {
		return apperrors.Internal("wallets.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("wallets.delete", "wallet %s not found", id)
	}
	return nil
}

func (s *walletService) CreateDebt(ctx context.Context, debt *models.Debt) error {
	if err := debt.Validate(); err != nil {
		return apperrors.Validationf("debts.create", "%s", err.Error())
	}
	if err := s.db.WithContext(ctx).Create(debt).Error; err != nil {
		return apperrors.Internal("debts.create", err)
	}
	return nil
}

func (s *walletService) ListDebts(ctx context.Context, walletID string) ([]*models.Debt, error) {
	var debts []*models.Debt
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("name ASC").
		Find(&debts).Error
	if err != nil {
		return nil, apperrors.Internal("debts.list", err)
	}
	return debts, nil
}

func (s *walletService) UpdateDebt(ctx context.Context, debt *models.Debt) error {
	updates := map[string]interface{}{}
	if debt.Name != "" {
		updates["name"] = debt.Name
	}
	if !debt.Amount.IsZero() {
		updates["amount"] = debt.Amount
	}
	if debt.DueDate != nil {
		updates["due_date"] = debt.DueDate
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.Debt{}).Where("id = ?", debt.ID).Updates(updates)
	if res.Error != nil {
		return apperrors.Internal("debts.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("debts.update", "debt %s not found", debt.ID)
	}
	return nil
}

func (s *walletService) DeleteDebt(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.Debt{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Internal("debts.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("debts.delete", "debt %s not found", id)
	}
	return nil
}

func (s *walletService) CreateRecurringExpense(ctx context.Context, exp *models.RecurringExpense) error {
	if err := exp.Validate(); err != nil {
		return apperrors.Validationf("recurring.create", "%s", err.Error())
	}
	// Select every column: the active column carries a database default, and
	// gorm would otherwise drop a false value from the insert.
	if err := s.db.WithContext(ctx).Select("*").Create(exp).Error; err != nil {
		return apperrors.Internal("recurring.create", err)
	}
	return nil
}

func (s *walletService) ListRecurringExpenses(ctx context.Context, walletID string) ([]*models.RecurringExpense, error) {
	var exps []*models.RecurringExpense
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("day_of_month ASC, name ASC").
		Find(&exps).Error
	if err != nil {
		return nil, apperrors.Internal("recurring.list", err)
	}
	return exps, nil
}

func (s *walletService) UpdateRecurringExpense(ctx context.Context, exp *models.RecurringExpense) error {
	updates := map[string]interface{}{}
	if exp.Name != "" {
		updates["name"] = exp.Name
	}
	if !exp.Amount.IsZero() {
		updates["amount"] = exp.Amount
	}
	if exp.DayOfMonth > 0 {
		if exp.DayOfMonth > 31 {
			return apperrors.Validationf("recurring.update", "day_of_month must be between 1 and 31")
		}
		updates["day_of_month"] = exp.DayOfMonth
	}
	updates["active"] = exp.Active
	res := s.db.WithContext(ctx).Model(&models.RecurringExpense{}).Where("id = ?", exp.ID).Updates(updates)
	if res.Error != nil {
		return apperrors.Internal("recurring.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("recurring.update", "recurring expense %s not found", exp.ID)
	}
	return nil
}

func (s *walletService) DeleteRecurringExpense(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.RecurringExpense{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Internal("recurring.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("recurring.delete", "recurring expense %s not found", id)
	}
	return nil
}

// SetYearGoal upserts the goal for (wallet, year).
func (s *walletService) SetYearGoal(ctx context.Context, goal *models.YearGoal) error {
	if err := goal.Validate(); err != nil {
		return apperrors.Validationf("goals.set", "%s", err.Error())
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.YearGoal
		err := tx.Where("wallet_id = ? AND year = ?", goal.WalletID, goal.Year).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(goal).Error; err != nil {
				return apperrors.Internal("goals.set", err)
			}
			return nil
		}
		if err != nil {
			return apperrors.Internal("goals.set", err)
		}
		existing.Target = goal.Target
		existing.Currency = goal.Currency
		if err := tx.Save(&existing).Error; err != nil {
			return apperrors.Internal("goals.set", err)
		}
		*goal = existing
		return nil
	})
}

func (s *walletService) ListYearGoals(ctx context.Context, walletID string) ([]*models.YearGoal, error) {
	var goals []*models.YearGoal
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("year DESC").
		Find(&goals).Error
	if err != nil {
		return nil, apperrors.Internal("goals.list", err)
	}
	return goals, nil
}

func (s *walletService) DeleteYearGoal(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.YearGoal{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Internal("goals.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("goals.delete", "year goal %s not found", id)
	}
	return nil
}

func (s *walletService) CreateNote(ctx context.Context, note *models.UserNote) error {
	if note.Title == "" {
		return apperrors.Validationf("notes.create", "title is required")
	}
	if err := s.db.WithContext(ctx).Create(note).Error; err != nil {
		return apperrors.Internal("notes.create", err)
	}
	return nil
}

func (s *walletService) ListNotes(ctx context.Context, userID string) ([]*models.UserNote, error) {
	var notes []*models.UserNote
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&notes).Error
	if err != nil {
		return nil, apperrors.Internal("notes.list", err)
	}
	return notes, nil
}

func (s *walletService) UpdateNote(ctx context.Context, note *models.UserNote) error {
	updates := map[string]interface{}{}
	if note.Title != "" {
		updates["title"] = note.Title
	}
	updates["body"] = note.Body
	res := s.db.WithContext(ctx).Model(&models.UserNote{}).Where("id = ?", note.ID).Updates(updates)
	if res.Error != nil {
		return apperrors.Internal("notes.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("notes.update", "note %s not found", note.ID)
	}
	return nil
}

func (s *walletService) DeleteNote(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.UserNote{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Internal("notes.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("notes.delete", "note %s not found", id)
	}
	return nil
}

// Dashboard aggregates the planning view of one wallet. Totals stay in their
// native currencies; the UI converts with the live FX table.
func (s *walletService) Dashboard(ctx context.Context, walletID string) (*Dashboard, error) {
	if _, err := s.Get(ctx, walletID); err != nil {
		return nil, err
	}
	debts, err := s.ListDebts(ctx, walletID)
	if err != nil {
		return nil, err
	}
	exps, err := s.ListRecurringExpenses(ctx, walletID)
	if err != nil {
		return nil, err
	}
	goals, err := s.ListYearGoals(ctx, walletID)
	if err != nil {
		return nil, err
	}

	out := &Dashboard{
		WalletID:          walletID,
		Debts:             debts,
		DebtTotalsByCcy:   map[string]decimal.Decimal{},
		RecurringExpenses: exps,
		MonthlyBurnByCcy:  map[string]decimal.Decimal{},
		YearGoals:         goals,
	}
	for _, d := range debts {
		out.DebtTotalsByCcy[d.Currency] = out.DebtTotalsByCcy[d.Currency].Add(d.Amount)
	}
	for _, e := range exps {
		if !e.Active {
			continue
		}
		out.MonthlyBurnByCcy[e.Currency] = out.MonthlyBurnByCcy[e.Currency].Add(e.Amount)
	}
	return out, nil
}
