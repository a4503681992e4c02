package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/services"
)

// AssetHandler exposes metal holdings and real estate.
type AssetHandler struct {
	metals  services.MetalService
	estates services.RealEstateService
	wallets services.WalletService
	logger  *zap.Logger
}

func NewAssetHandler(metals services.MetalService, estates services.RealEstateService, wallets services.WalletService, logger *zap.Logger) *AssetHandler {
	return &AssetHandler{metals: metals, estates: estates, wallets: wallets, logger: logger}
}

func (h *AssetHandler) BuyMetal(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var holding models.MetalHolding
	if err := decodeJSON(r, &holding); err != nil {
		writeError(w, h.logger, err)
		return
	}
	holding.WalletID = mux.Vars(r)["id"]
	out, err := h.metals.Buy(r.Context(), &holding)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *AssetHandler) ListMetals(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	holdings, err := h.metals.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, holdings)
}

// SellMetal sells grams from a holding; proceeds optionally book on a
// deposit account with the realized gain.
func (h *AssetHandler) SellMetal(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req services.SellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	out, err := h.metals.Sell(r.Context(), mux.Vars(r)["holdingID"], &req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if out == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "sold_out"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AssetHandler) UpdateMetal(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var holding models.MetalHolding
	if err := decodeJSON(r, &holding); err != nil {
		writeError(w, h.logger, err)
		return
	}
	holding.ID = mux.Vars(r)["holdingID"]
	if err := h.metals.Update(r.Context(), &holding); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AssetHandler) DeleteMetal(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.metals.Delete(r.Context(), mux.Vars(r)["holdingID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *AssetHandler) CreateRealEstate(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var re models.RealEstate
	if err := decodeJSON(r, &re); err != nil {
		writeError(w, h.logger, err)
		return
	}
	re.WalletID = mux.Vars(r)["id"]
	if err := h.estates.Create(r.Context(), &re); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, re)
}

func (h *AssetHandler) ListRealEstates(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	estates, err := h.estates.List(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, estates)
}

func (h *AssetHandler) UpdateRealEstate(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var re models.RealEstate
	if err := decodeJSON(r, &re); err != nil {
		writeError(w, h.logger, err)
		return
	}
	re.ID = mux.Vars(r)["estateID"]
	if err := h.estates.Update(r.Context(), &re); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AssetHandler) SellRealEstate(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req services.SellRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.estates.Sell(r.Context(), mux.Vars(r)["estateID"], &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sold"})
}

func (h *AssetHandler) DeleteRealEstate(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.estates.Delete(r.Context(), mux.Vars(r)["estateID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
