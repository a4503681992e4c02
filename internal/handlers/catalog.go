package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/services"
)

// CatalogHandler exposes shared reference data: banks, instruments and
// real-estate prices.
type CatalogHandler struct {
	service services.CatalogService
	quotes  services.QuoteSource
	logger  *zap.Logger
}

func NewCatalogHandler(service services.CatalogService, quotes services.QuoteSource, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, quotes: quotes, logger: logger}
}

func (h *CatalogHandler) CreateBank(w http.ResponseWriter, r *http.Request) {
	var bank models.Bank
	if err := decodeJSON(r, &bank); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.CreateBank(r.Context(), &bank); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, bank)
}

func (h *CatalogHandler) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := h.service.ListBanks(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, banks)
}

func (h *CatalogHandler) DeleteBank(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBank(r.Context(), mux.Vars(r)["bankID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// ListInstruments proxies the market-data catalog, falling back to the local
// cache when the upstream is down.
func (h *CatalogHandler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	mic := r.URL.Query().Get("mic")
	if q := r.URL.Query().Get("q"); q != "" {
		instruments, err := h.quotes.SearchInstrumentByShortname(r.Context(), q)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, instruments)
		return
	}
	instruments, err := h.quotes.ListInstruments(r.Context(), mic)
	if err != nil {
		local, lerr := h.service.ListLocalInstruments(r.Context(), mic)
		if lerr != nil {
			writeError(w, h.logger, err)
			return
		}
		h.logger.Warn("market-data unavailable, serving cached instruments", zap.Error(err))
		writeJSON(w, http.StatusOK, local)
		return
	}
	for _, inst := range instruments {
		cached := inst
		if err := h.service.UpsertInstrument(r.Context(), &cached); err != nil {
			h.logger.Warn("instrument cache upsert failed", zap.String("symbol", inst.Symbol), zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, instruments)
}

// SyncCandles asks the market-data service to backfill daily candles for one
// symbol. Optional from/to query parameters bound the range as YYYY-MM-DD.
func (h *CatalogHandler) SyncCandles(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		at, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, h.logger, apperrors.Validationf("catalog.sync", "from must be YYYY-MM-DD"))
			return
		}
		from = &at
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		at, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, h.logger, apperrors.Validationf("catalog.sync", "to must be YYYY-MM-DD"))
			return
		}
		to = &at
	}

	if err := h.quotes.SyncDailyCandles(r.Context(), symbol, from, to); err != nil {
		writeError(w, h.logger, err)
		return
	}
	h.logger.Info("candle sync requested", zap.String("symbol", symbol))
	writeJSON(w, http.StatusAccepted, map[string]string{"symbol": symbol, "status": "synced"})
}

func (h *CatalogHandler) AddRealEstatePrice(w http.ResponseWriter, r *http.Request) {
	var price models.RealEstatePrice
	if err := decodeJSON(r, &price); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.AddRealEstatePrice(r.Context(), &price); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, price)
}

func (h *CatalogHandler) ListRealEstatePrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.service.ListRealEstatePrices(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

func (h *CatalogHandler) DeleteRealEstatePrice(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRealEstatePrice(r.Context(), mux.Vars(r)["priceID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
