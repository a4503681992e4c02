package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
)

// MetalService manages precious-metal holdings. A buy merges into the
// (wallet, metal) row; a sell reduces grams with a proportional cost basis
// and deletes the row when fully sold.
type MetalService interface {
	Buy(ctx context.Context, holding *models.MetalHolding) (*models.MetalHolding, error)
	Sell(ctx context.Context, id string, req *SellRequest) (*models.MetalHolding, error)
	List(ctx context.Context, walletID string) ([]*models.MetalHolding, error)
	Update(ctx context.Context, holding *models.MetalHolding) error
	Delete(ctx context.Context, id string) error
}

type metalService struct {
	db     *db.DB
	logger *zap.Logger
}

// NewMetalService creates a new metal service.
func NewMetalService(database *db.DB, logger *zap.Logger) MetalService {
	return &metalService{db: database, logger: logger}
}

// Buy adds grams to the wallet's holding of the metal, creating the row when
// none exists and accumulating cost basis otherwise.
func (s *metalService) Buy(ctx context.Context, holding *models.MetalHolding) (*models.MetalHolding, error) {
	if err := holding.Validate(); err != nil {
		return nil, apperrors.Validationf("metals.buy", "%s", err.Error())
	}
	var out *models.MetalHolding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.MetalHolding
		err := db.LockForUpdate(tx).
			Where("wallet_id = ? AND metal = ?", holding.WalletID, holding.Metal).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(holding).Error; err != nil {
				return apperrors.Internal("metals.buy", err)
			}
			out = holding
			return nil
		}
		if err != nil {
			return apperrors.Internal("metals.buy", err)
		}
		if existing.CostCurrency != holding.CostCurrency {
			return apperrors.Validationf("metals.buy", "cost currency %s does not match holding currency %s",
				holding.CostCurrency, existing.CostCurrency)
		}
		existing.Grams = existing.Grams.Add(holding.Grams)
		existing.CostBasis = existing.CostBasis.Add(holding.CostBasis)
		if holding.QuoteSymbol != "" {
			existing.QuoteSymbol = holding.QuoteSymbol
		}
		if err := tx.Save(&existing).Error; err != nil {
			return apperrors.Internal("metals.buy", err)
		}
		out = &existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Sell reduces grams and removes a proportional slice of the cost basis.
// When a deposit account is given, the proceeds enter its balance chain with
// a METAL_REALIZED_PNL gain of proceeds minus the removed cost slice. Selling
// everything deletes the holding.
func (s *metalService) Sell(ctx context.Context, id string, req *SellRequest) (*models.MetalHolding, error) {
	if !req.Quantity.IsPositive() {
		return nil, apperrors.Validationf("metals.sell", "quantity must be positive")
	}
	if req.Price.IsNegative() {
		return nil, apperrors.Validationf("metals.sell", "price must be non-negative")
	}

	var out *models.MetalHolding
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var holding models.MetalHolding
		err := db.LockForUpdate(tx).First(&holding, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("metals.sell", "metal holding %s not found", id)
		}
		if err != nil {
			return apperrors.Internal("metals.sell", err)
		}
		if req.Quantity.GreaterThan(holding.Grams) {
			return apperrors.Validationf("metals.sell",
				"insufficient quantity: have %s g, sell %s g", holding.Grams.String(), req.Quantity.String())
		}

		costSlice := holding.CostBasis.Mul(req.Quantity).DivRound(holding.Grams, 2)
		holding.Grams = holding.Grams.Sub(req.Quantity)
		holding.CostBasis = holding.CostBasis.Sub(costSlice)

		if req.DepositAccountID != "" {
			realized := req.Price.Sub(costSlice).RoundBank(2)
			t := &models.Transaction{
				Date:        req.Date,
				Type:        "METAL_SELL",
				Amount:      req.Price,
				Description: "sale of " + holding.Metal,
			}
			if err := appendChainTransaction(tx, req.DepositAccountID, t, models.GainMetalRealizedPnL, realized); err != nil {
				return err
			}
		}

		if holding.Grams.IsZero() {
			if err := tx.Delete(&models.MetalHolding{}, "id = ?", id).Error; err != nil {
				return apperrors.Internal("metals.sell", err)
			}
			out = nil
			return nil
		}
		if err := tx.Save(&holding).Error; err != nil {
			return apperrors.Internal("metals.sell", err)
		}
		out = &holding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns the metal holdings of one wallet.
func (s *metalService) List(ctx context.Context, walletID string) ([]*models.MetalHolding, error) {
	var holdings []*models.MetalHolding
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("metal ASC").
		Find(&holdings).Error
	if err != nil {
		return nil, apperrors.Internal("metals.list", err)
	}
	return holdings, nil
}

// Update patches mutable fields of a holding.
func (s *metalService) Update(ctx context.Context, holding *models.MetalHolding) error {
	updates := map[string]interface{}{}
	if holding.QuoteSymbol != "" {
		updates["quote_symbol"] = holding.QuoteSymbol
	}
	if !holding.CostBasis.IsZero() {
		if holding.CostBasis.IsNegative() {
			return apperrors.Validationf("metals.update", "cost_basis must be non-negative")
		}
		updates["cost_basis"] = holding.CostBasis
	}
	if !holding.Grams.IsZero() {
		if holding.Grams.IsNegative() {
			return apperrors.Validationf("metals.update", "grams must be positive")
		}
		updates["grams"] = holding.Grams
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.MetalHolding{}).Where("id = ?", holding.ID).Updates(updates)
	if res.Error != nil {
		return apperrors.Internal("metals.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("metals.update", "metal holding %s not found", holding.ID)
	}
	return nil
}

// Delete removes a holding without booking a sale.
func (s *metalService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.MetalHolding{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Internal("metals.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("metals.delete", "metal holding %s not found", id)
	}
	return nil
}
