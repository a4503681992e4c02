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

type snapshotService struct {
	db     *db.DB
	quotes QuoteSource
	logger *zap.Logger
}

// NewSnapshotService creates a new snapshot service.
func NewSnapshotService(database *db.DB, quotes QuoteSource, logger *zap.Logger) SnapshotService {
	return &snapshotService{db: database, quotes: quotes, logger: logger}
}

// CreateMonthly freezes every entity's value for the month. Quotes are
// fetched before the database transaction opens so a slow market-data call
// never holds locks. The write phase is one transaction keyed on
// (entity, month): rows whose values did not change are left alone, so a
// re-run with identical inputs touches nothing.
func (s *snapshotService) CreateMonthly(ctx context.Context, monthKey string, currencyRates Rates) (*SnapshotResult, error) {
	if err := models.ValidateMonthKey(monthKey); err != nil {
		return nil, apperrors.Validationf("snapshots.create", "%s", err.Error())
	}
	if len(currencyRates) == 0 {
		return nil, apperrors.Validationf("snapshots.create", "currency rates are required")
	}

	// Load phase. Read everything and collect the symbols to quote.
	var wallets []models.Wallet
	if err := s.db.WithContext(ctx).Find(&wallets).Error; err != nil {
		return nil, apperrors.Internal("snapshots.create", err)
	}
	baseCcy := make(map[string]string, len(wallets))
	for _, w := range wallets {
		baseCcy[w.ID] = w.BaseCurrency
	}

	var deposits []models.DepositAccount
	if err := s.db.WithContext(ctx).Preload("Balance").Find(&deposits).Error; err != nil {
		return nil, apperrors.Internal("snapshots.create", err)
	}

	var brokerages []models.BrokerageAccount
	if err := s.db.WithContext(ctx).Preload("Links").Preload("Holdings").Find(&brokerages).Error; err != nil {
		return nil, apperrors.Internal("snapshots.create", err)
	}

	var instruments []models.Instrument
	if err := s.db.WithContext(ctx).Find(&instruments).Error; err != nil {
		return nil, apperrors.Internal("snapshots.create", err)
	}
	instByID := make(map[string]models.Instrument, len(instruments))
	for _, inst := range instruments {
		instByID[inst.ID] = inst
	}

	var metals []models.MetalHolding
	if err := s.db.WithContext(ctx).Find(&metals).Error; err != nil {
		return nil, apperrors.Internal("snapshots.create", err)
	}

	var estates []models.RealEstate
	if err := s.db.WithContext(ctx).Find(&estates).Error; err != nil {
		return nil, apperrors.Internal("snapshots.create", err)
	}
	var prices []models.RealEstatePrice
	if err := s.db.WithContext(ctx).Find(&prices).Error; err != nil {
		return nil, apperrors.Internal("snapshots.create", err)
	}

	symbolSet := make(map[string]bool)
	for _, b := range brokerages {
		for _, h := range b.Holdings {
			if inst, ok := instByID[h.InstrumentID]; ok {
				symbolSet[inst.Symbol] = true
			}
		}
	}
	for _, m := range metals {
		if m.QuoteSymbol != "" {
			symbolSet[m.QuoteSymbol] = true
		}
	}
	symbols := make([]string, 0, len(symbolSet))
	for sym := range symbolSet {
		symbols = append(symbols, sym)
	}

	// External I/O happens here, before any lock is taken. A dead
	// market-data service degrades the run to cost-basis fallbacks with the
	// misses counted, same as a partial quote set.
	quotes, err := s.quotes.GetLatestQuotesForSymbols(ctx, symbols)
	if err != nil {
		s.logger.Warn("quote fetch failed, snapshotting with fallbacks", zap.Error(err))
		quotes = Quotes{}
	}

	depositByID := make(map[string]models.DepositAccount, len(deposits))
	for _, d := range deposits {
		depositByID[d.ID] = d
	}

	result := &SnapshotResult{MonthKey: monthKey}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fxRow := models.FxMonthlySnapshot{MonthKey: monthKey}
		if err := fxRow.SetRates(currencyRates); err != nil {
			return apperrors.Internal("snapshots.create", err)
		}
		var storedFx models.FxMonthlySnapshot
		err := tx.First(&storedFx, "month_key = ?", monthKey).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&fxRow).Error; err != nil {
				return apperrors.Internal("snapshots.create", err)
			}
		case err != nil:
			return apperrors.Internal("snapshots.create", err)
		case storedFx.RatesJSON != fxRow.RatesJSON:
			if err := tx.Model(&storedFx).Update("rates_json", fxRow.RatesJSON).Error; err != nil {
				return apperrors.Internal("snapshots.create", err)
			}
		}

		for _, d := range deposits {
			available := decimal.Zero
			if d.Balance != nil {
				available = d.Balance.Available
			}
			row := models.DepositAccountMonthlySnapshot{
				DepositAccountID: d.ID,
				MonthKey:         monthKey,
				WalletID:         d.WalletID,
				Available:        available,
				Currency:         d.Currency,
			}
			var stored models.DepositAccountMonthlySnapshot
			err := tx.First(&stored, "deposit_account_id = ? AND month_key = ?", d.ID, monthKey).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&row).Error; err != nil {
					return apperrors.Internal("snapshots.create", err)
				}
			case err != nil:
				return apperrors.Internal("snapshots.create", err)
			case !stored.Available.Equal(row.Available) || stored.Currency != row.Currency || stored.WalletID != row.WalletID:
				if err := tx.Model(&stored).Updates(map[string]interface{}{
					"available": row.Available,
					"currency":  row.Currency,
					"wallet_id": row.WalletID,
				}).Error; err != nil {
					return apperrors.Internal("snapshots.create", err)
				}
			}
			result.DepositAccounts++
		}

		for _, b := range brokerages {
			target := baseCcy[b.WalletID]
			if target == "" {
				target = models.DefaultBaseCurrency
			}

			cash := make([]CashLine, 0, len(b.Links))
			for _, link := range b.Links {
				d, ok := depositByID[link.DepositAccountID]
				if !ok || d.Balance == nil {
					continue
				}
				cash = append(cash, CashLine{
					AccountID: d.ID,
					Currency:  d.Currency,
					Available: d.Balance.Available,
				})
			}
			positions := make([]PositionLine, 0, len(b.Holdings))
			for _, h := range b.Holdings {
				inst, ok := instByID[h.InstrumentID]
				if !ok {
					continue
				}
				positions = append(positions, PositionLine{
					Symbol:   inst.Symbol,
					MIC:      inst.MIC,
					Quantity: h.Quantity,
					AvgCost:  h.AvgCost,
				})
			}

			valuation := ValueBrokerage(cash, positions, quotes, target, currencyRates)
			result.MissingQuotes += valuation.Health.MissingQuotes

			row := models.BrokerageAccountMonthlySnapshot{
				BrokerageAccountID: b.ID,
				MonthKey:           monthKey,
				WalletID:           b.WalletID,
				Cash:               valuation.Cash,
				Stocks:             valuation.Stocks,
				Currency:           target,
			}
			var stored models.BrokerageAccountMonthlySnapshot
			err := tx.First(&stored, "brokerage_account_id = ? AND month_key = ?", b.ID, monthKey).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&row).Error; err != nil {
					return apperrors.Internal("snapshots.create", err)
				}
			case err != nil:
				return apperrors.Internal("snapshots.create", err)
			case !stored.Cash.Equal(row.Cash) || !stored.Stocks.Equal(row.Stocks) || stored.Currency != row.Currency:
				if err := tx.Model(&stored).Updates(map[string]interface{}{
					"cash":     row.Cash,
					"stocks":   row.Stocks,
					"currency": row.Currency,
				}).Error; err != nil {
					return apperrors.Internal("snapshots.create", err)
				}
			}
			result.BrokerageAccounts++
		}

		for _, m := range metals {
			target := baseCcy[m.WalletID]
			if target == "" {
				target = models.DefaultBaseCurrency
			}
			valuation := ValueMetals([]models.MetalHolding{m}, quotes, target, currencyRates)
			result.MissingQuotes += valuation.Health.MissingQuotes

			row := models.MetalHoldingMonthlySnapshot{
				MetalHoldingID: m.ID,
				MonthKey:       monthKey,
				WalletID:       m.WalletID,
				Value:          valuation.Value,
				Currency:       target,
			}
			var stored models.MetalHoldingMonthlySnapshot
			err := tx.First(&stored, "metal_holding_id = ? AND month_key = ?", m.ID, monthKey).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&row).Error; err != nil {
					return apperrors.Internal("snapshots.create", err)
				}
			case err != nil:
				return apperrors.Internal("snapshots.create", err)
			case !stored.Value.Equal(row.Value) || stored.Currency != row.Currency:
				if err := tx.Model(&stored).Updates(map[string]interface{}{
					"value":    row.Value,
					"currency": row.Currency,
				}).Error; err != nil {
					return apperrors.Internal("snapshots.create", err)
				}
			}
			result.MetalHoldings++
		}

		for _, re := range estates {
			target := baseCcy[re.WalletID]
			if target == "" {
				target = models.DefaultBaseCurrency
			}
			valuation := ValueRealEstates([]models.RealEstate{re}, prices, target, currencyRates)

			row := models.RealEstateMonthlySnapshot{
				RealEstateID: re.ID,
				MonthKey:     monthKey,
				WalletID:     re.WalletID,
				Value:        valuation.Value,
				Currency:     target,
			}
			var stored models.RealEstateMonthlySnapshot
			err := tx.First(&stored, "real_estate_id = ? AND month_key = ?", re.ID, monthKey).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&row).Error; err != nil {
					return apperrors.Internal("snapshots.create", err)
				}
			case err != nil:
				return apperrors.Internal("snapshots.create", err)
			case !stored.Value.Equal(row.Value) || stored.Currency != row.Currency:
				if err := tx.Model(&stored).Updates(map[string]interface{}{
					"value":    row.Value,
					"currency": row.Currency,
				}).Error; err != nil {
					return apperrors.Internal("snapshots.create", err)
				}
			}
			result.RealEstates++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("monthly snapshot created",
		zap.String("month_key", monthKey),
		zap.Int("deposit_accounts", result.DepositAccounts),
		zap.Int("brokerage_accounts", result.BrokerageAccounts),
		zap.Int("metal_holdings", result.MetalHoldings),
		zap.Int("real_estates", result.RealEstates),
		zap.Int("missing_quotes", result.MissingQuotes))
	return result, nil
}
