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

// RealEstateService manages properties. A sale removes the property and can
// book the proceeds on a deposit account with the realized gain against the
// purchase price.
type RealEstateService interface {
	Create(ctx context.Context, re *models.RealEstate) error
	List(ctx context.Context, walletID string) ([]*models.RealEstate, error)
	Update(ctx context.Context, re *models.RealEstate) error
	Sell(ctx context.Context, id string, req *SellRequest) error
	Delete(ctx context.Context, id string) error
}

type realEstateService struct {
	db     *db.DB
	logger *zap.Logger
}

// NewRealEstateService creates a new real estate service.
func NewRealEstateService(database *db.DB, logger *zap.Logger) RealEstateService {
	return &realEstateService{db: database, logger: logger}
}

// Create registers a property.
func (s *realEstateService) Create(ctx context.Context, re *models.RealEstate) error {
	if err := re.Validate(); err != nil {
		return apperrors.Validationf("real_estate.create", "%s", err.Error())
	}
	if err := s.db.WithContext(ctx).Create(re).Error; err != nil {
		return apperrors.Internal("real_estate.create", err)
	}
	return nil
}

// List returns the properties of one wallet.
func (s *realEstateService) List(ctx context.Context, walletID string) ([]*models.RealEstate, error) {
	var estates []*models.RealEstate
	err := s.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("name ASC").
		Find(&estates).Error
	if err != nil {
		return nil, apperrors.Internal("real_estate.list", err)
	}
	return estates, nil
}

// Update patches mutable fields of a property.
func (s *realEstateService) Update(ctx context.Context, re *models.RealEstate) error {
	updates := map[string]interface{}{}
	if re.Name != "" {
		updates["name"] = re.Name
	}
	if re.Type != "" {
		updates["type"] = re.Type
	}
	if re.Country != "" {
		updates["country"] = re.Country
	}
	if re.City != "" {
		updates["city"] = re.City
	}
	if re.AreaM2.IsPositive() {
		updates["area_m2"] = re.AreaM2
	}
	if re.PurchasePrice.IsPositive() {
		updates["purchase_price"] = re.PurchasePrice
	}
	if len(updates) == 0 {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&models.RealEstate{}).Where("id = ?", re.ID).Updates(updates)
	if res.Error != nil {
		return apperrors.Internal("real_estate.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("real_estate.update", "real estate %s not found", re.ID)
	}
	return nil
}

// Sell removes the property. When a deposit account is given, the proceeds
// enter its chain with a REAL_ESTATE_REALIZED_PNL gain of proceeds minus
// purchase price.
func (s *realEstateService) Sell(ctx context.Context, id string, req *SellRequest) error {
	if req.Price.IsNegative() {
		return apperrors.Validationf("real_estate.sell", "price must be non-negative")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var re models.RealEstate
		if err := tx.First(&re, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundf("real_estate.sell", "real estate %s not found", id)
			}
			return apperrors.Internal("real_estate.sell", err)
		}

		if req.DepositAccountID != "" {
			realized := req.Price.Sub(re.PurchasePrice).RoundBank(2)
			t := &models.Transaction{
				Date:        req.Date,
				Type:        "REAL_ESTATE_SELL",
				Amount:      req.Price,
				Description: "sale of " + re.Name,
			}
			if err := appendChainTransaction(tx, req.DepositAccountID, t, models.GainRealEstateRealizedPnL, realized); err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.RealEstate{}, "id = ?", id).Error; err != nil {
			return apperrors.Internal("real_estate.sell", err)
		}
		return nil
	})
}

// Delete removes a property without booking a sale.
func (s *realEstateService) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.RealEstate{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Internal("real_estate.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("real_estate.delete", "real estate %s not found", id)
	}
	return nil
}
