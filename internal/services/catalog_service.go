package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
)

// CatalogService maintains the shared reference data: banks, the instrument
// catalog and real-estate reference prices.
type CatalogService interface {
	CreateBank(ctx context.Context, bank *models.Bank) error
	ListBanks(ctx context.Context) ([]*models.Bank, error)
	DeleteBank(ctx context.Context, id string) error

	UpsertInstrument(ctx context.Context, inst *models.Instrument) error
	ListLocalInstruments(ctx context.Context, mic string) ([]*models.Instrument, error)
	GetInstrumentBySymbol(ctx context.Context, symbol string) (*models.Instrument, error)

	AddRealEstatePrice(ctx context.Context, price *models.RealEstatePrice) error
	ListRealEstatePrices(ctx context.Context) ([]*models.RealEstatePrice, error)
	DeleteRealEstatePrice(ctx context.Context, id string) error
}

type catalogService struct {
	db     *db.DB
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(database *db.DB, logger *zap.Logger) CatalogService {
	return &catalogService{db: database, logger: logger}
}

func (s *catalogService) CreateBank(ctx context.Context, bank *models.Bank) error {
	if err := bank.Validate(); err != nil {
		return apperrors.Validationf("banks.create", "%s", err.Error())
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Bank{}).
		Where("name = ? OR short_code = ?", bank.Name, bank.ShortCode).
		Count(&count).Error; err != nil {
		return apperrors.Internal("banks.create", err)
	}
	if count > 0 {
		return apperrors.Conflictf("banks.create", "bank %q already exists", bank.Name)
	}
	if err := s.db.WithContext(ctx).Create(bank).Error; err != nil {
		return apperrors.Internal("banks.create", err)
	}
	return nil
}

func (s *catalogService) ListBanks(ctx context.Context) ([]*models.Bank, error) {
	var banks []*models.Bank
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&banks).Error; err != nil {
		return nil, apperrors.Internal("banks.list", err)
	}
	return banks, nil
}

func (s *catalogService) DeleteBank(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.DepositAccount{}).Where("bank_id = ?", id).Count(&count).Error; err != nil {
			return apperrors.Internal("banks.delete", err)
		}
		if count == 0 {
			if err := tx.Model(&models.BrokerageAccount{}).Where("bank_id = ?", id).Count(&count).Error; err != nil {
				return apperrors.Internal("banks.delete", err)
			}
		}
		if count > 0 {
			return apperrors.Conflictf("banks.delete", "bank has accounts attached")
		}
		res := tx.Delete(&models.Bank{}, "id = ?", id)
		if res.Error != nil {
			return apperrors.Internal("banks.delete", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFoundf("banks.delete", "bank %s not found", id)
		}
		return nil
	})
}

// UpsertInstrument caches a catalog entry locally, keyed by symbol. The
// market-data service remains the source of truth.
func (s *catalogService) UpsertInstrument(ctx context.Context, inst *models.Instrument) error {
	if err := inst.Validate(); err != nil {
		return apperrors.Validationf("instruments.upsert", "%s", err.Error())
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "mic", "type", "currency", "updated_at"}),
	}).Create(inst).Error
	if err != nil {
		return apperrors.Internal("instruments.upsert", err)
	}
	return nil
}

func (s *catalogService) ListLocalInstruments(ctx context.Context, mic string) ([]*models.Instrument, error) {
	q := s.db.WithContext(ctx).Model(&models.Instrument{})
	if mic != "" {
		q = q.Where("mic = ?", mic)
	}
	var instruments []*models.Instrument
	if err := q.Order("symbol ASC").Find(&instruments).Error; err != nil {
		return nil, apperrors.Internal("instruments.list", err)
	}
	return instruments, nil
}

func (s *catalogService) GetInstrumentBySymbol(ctx context.Context, symbol string) (*models.Instrument, error) {
	var inst models.Instrument
	err := s.db.WithContext(ctx).First(&inst, "symbol = ?", symbol).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("instruments.get", "instrument %s not found", symbol)
		}
		return nil, apperrors.Internal("instruments.get", err)
	}
	return &inst, nil
}

// AddRealEstatePrice appends a reference price row. History is kept; lookups
// take the newest row within each fallback step.
func (s *catalogService) AddRealEstatePrice(ctx context.Context, price *models.RealEstatePrice) error {
	if err := price.Validate(); err != nil {
		return apperrors.Validationf("re_prices.add", "%s", err.Error())
	}
	if err := s.db.WithContext(ctx).Create(price).Error; err != nil {
		return apperrors.Internal("re_prices.add", err)
	}
	return nil
}

func (s *catalogService) ListRealEstatePrices(ctx context.Context) ([]*models.RealEstatePrice, error) {
	var prices []*models.RealEstatePrice
	err := s.db.WithContext(ctx).
		Order("type ASC, country ASC, city ASC, as_of DESC").
		Find(&prices).Error
	if err != nil {
		return nil, apperrors.Internal("re_prices.list", err)
	}
	return prices, nil
}

func (s *catalogService) DeleteRealEstatePrice(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&models.RealEstatePrice{}, "id = ?", id)
	if res.Error != nil {
		return apperrors.Internal("re_prices.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFoundf("re_prices.delete", "price %s not found", id)
	}
	return nil
}
