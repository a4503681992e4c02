package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/db"
	"github.com/portfel-app/portfel/internal/models"
)

type eventService struct {
	db     *db.DB
	logger *zap.Logger
}

// NewEventService creates a new brokerage event service.
func NewEventService(database *db.DB, logger *zap.Logger) EventService {
	return &eventService{db: database, logger: logger}
}

// Create records one event and replays the affected holding. An append-only
// SELL that would oversell is rejected before anything is written.
func (s *eventService) Create(ctx context.Context, ev *models.BrokerageEvent) error {
	if err := ev.Validate(); err != nil {
		return apperrors.Validationf("events.create", "%s", err.Error())
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ev).Error; err != nil {
			return apperrors.Internal("events.create", err)
		}
		return replayHolding(tx, ev.BrokerageAccountID, ev.InstrumentID)
	})
}

// CreateBatch records events with per-item outcomes. Each event is tried in
// its own savepointed transaction so one rejected SELL never aborts the rest.
func (s *eventService) CreateBatch(ctx context.Context, evs []*models.BrokerageEvent) (*BatchResult, error) {
	result := &BatchResult{Failed: []BatchFailed{}}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, ev := range evs {
			if err := ev.Validate(); err != nil {
				result.Failed = append(result.Failed, BatchFailed{ID: ev.ID, Detail: err.Error()})
				continue
			}
			err := tx.Transaction(func(inner *gorm.DB) error {
				if err := inner.Create(ev).Error; err != nil {
					return apperrors.Internal("events.create", err)
				}
				return replayHolding(inner, ev.BrokerageAccountID, ev.InstrumentID)
			})
			if err != nil {
				result.Failed = append(result.Failed, BatchFailed{ID: ev.ID, Detail: apperrors.UserMessage(err)})
				s.logger.Warn("event rejected in batch",
					zap.Int("index", i),
					zap.String("type", ev.Type),
					zap.Error(err))
				continue
			}
			result.Updated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateBatch patches events per-item and replays every affected
// (account, instrument) stream from scratch. A historical edit never adjusts
// the holding in place.
func (s *eventService) UpdateBatch(ctx context.Context, patches []*models.BrokerageEvent) (*BatchResult, error) {
	type pair struct{ account, instrument string }
	result := &BatchResult{Failed: []BatchFailed{}}
	affected := make(map[pair]bool)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, patch := range patches {
			if patch.ID == "" {
				result.Failed = append(result.Failed, BatchFailed{ID: "", Detail: "id is required"})
				continue
			}
			var existing models.BrokerageEvent
			if err := tx.First(&existing, "id = ?", patch.ID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					result.Failed = append(result.Failed, BatchFailed{ID: patch.ID, Detail: "event not found"})
					continue
				}
				return apperrors.Internal("events.update", err)
			}

			merged := mergeEventPatch(&existing, patch)
			if err := merged.Validate(); err != nil {
				result.Failed = append(result.Failed, BatchFailed{ID: patch.ID, Detail: err.Error()})
				continue
			}
			if err := tx.Model(&models.BrokerageEvent{}).Where("id = ?", merged.ID).
				Updates(map[string]interface{}{
					"type":        merged.Type,
					"trade_at":    merged.TradeAt,
					"quantity":    merged.Quantity,
					"price":       merged.Price,
					"currency":    merged.Currency,
					"split_ratio": merged.SplitRatio,
				}).Error; err != nil {
				return apperrors.Internal("events.update", err)
			}
			affected[pair{existing.BrokerageAccountID, existing.InstrumentID}] = true
			result.Updated++
		}

		for p := range affected {
			if err := replayHolding(tx, p.account, p.instrument); err != nil {
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

// Delete removes one event and replays its stream. Deleting a BUY that later
// SELLs depend on fails the replay and rolls everything back.
func (s *eventService) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.BrokerageEvent
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFoundf("events.delete", "event %s not found", id)
			}
			return apperrors.Internal("events.delete", err)
		}
		if err := tx.Delete(&models.BrokerageEvent{}, "id = ?", id).Error; err != nil {
			return apperrors.Internal("events.delete", err)
		}
		return replayHolding(tx, existing.BrokerageAccountID, existing.InstrumentID)
	})
}

// List returns the events of one brokerage account in replay order.
func (s *eventService) List(ctx context.Context, accountID string) ([]*models.BrokerageEvent, error) {
	var events []*models.BrokerageEvent
	err := s.db.WithContext(ctx).
		Where("brokerage_account_id = ?", accountID).
		Order("trade_at ASC, sequence ASC").
		Find(&events).Error
	if err != nil {
		return nil, apperrors.Internal("events.list", err)
	}
	return events, nil
}

// replayHolding rebuilds the (account, instrument) holding from its full
// event stream and upserts the result. A stream that nets to zero events
// drops the holding row.
func replayHolding(tx *gorm.DB, accountID, instrumentID string) error {
	var events []models.BrokerageEvent
	err := db.LockForUpdate(tx).
		Where("brokerage_account_id = ? AND instrument_id = ?", accountID, instrumentID).
		Find(&events).Error
	if err != nil {
		return apperrors.Internal("events.replay", err)
	}

	if len(events) == 0 {
		if err := tx.Where("brokerage_account_id = ? AND instrument_id = ?", accountID, instrumentID).
			Delete(&models.Holding{}).Error; err != nil {
			return apperrors.Internal("events.replay", err)
		}
		return nil
	}

	pos, _, err := Replay(events)
	if err != nil {
		return err
	}

	holding := models.Holding{
		BrokerageAccountID: accountID,
		InstrumentID:       instrumentID,
		Quantity:           pos.Quantity,
		AvgCost:            pos.AvgCost,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "brokerage_account_id"}, {Name: "instrument_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "avg_cost", "updated_at"}),
	}).Create(&holding).Error
}

// mergeEventPatch overlays non-zero patch fields onto the existing event.
// The event type itself is also patchable; trade_at and sequence keep the
// stream order stable across edits.
func mergeEventPatch(existing, patch *models.BrokerageEvent) *models.BrokerageEvent {
	merged := *existing
	if patch.Type != "" {
		merged.Type = patch.Type
	}
	if !patch.TradeAt.IsZero() {
		merged.TradeAt = patch.TradeAt
	}
	if !patch.Quantity.IsZero() {
		merged.Quantity = patch.Quantity
	}
	if !patch.Price.IsZero() {
		merged.Price = patch.Price
	}
	if patch.Currency != "" {
		merged.Currency = patch.Currency
	}
	if patch.SplitRatio != nil && !patch.SplitRatio.Equal(decimal.Zero) {
		merged.SplitRatio = patch.SplitRatio
	}
	return &merged
}
