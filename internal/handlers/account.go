package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/services"
)

// AccountHandler exposes deposit and brokerage accounts.
type AccountHandler struct {
	service services.AccountService
	wallets services.WalletService
	logger  *zap.Logger
}

func NewAccountHandler(service services.AccountService, wallets services.WalletService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{service: service, wallets: wallets, logger: logger}
}

func (h *AccountHandler) CreateDepositAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req struct {
		models.DepositAccount
		AccountNumber string `json:"account_number"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	req.DepositAccount.WalletID = mux.Vars(r)["id"]
	if err := h.service.CreateDepositAccount(r.Context(), &req.DepositAccount, req.AccountNumber); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, req.DepositAccount)
}

func (h *AccountHandler) ListDepositAccounts(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	accounts, err := h.service.ListDepositAccounts(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// authorizeDepositAccount walks account -> wallet -> user.
func (h *AccountHandler) authorizeDepositAccount(r *http.Request, accountID string) (*models.DepositAccount, error) {
	account, err := h.service.GetDepositAccount(r.Context(), accountID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeWallet(r, h.wallets, account.WalletID); err != nil {
		return nil, err
	}
	return account, nil
}

func (h *AccountHandler) GetDepositAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.authorizeDepositAccount(r, mux.Vars(r)["accountID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// RevealAccountNumber decrypts the stored number for display.
func (h *AccountHandler) RevealAccountNumber(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeDepositAccount(r, mux.Vars(r)["accountID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	number, err := h.service.RevealAccountNumber(r.Context(), mux.Vars(r)["accountID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"account_number": number})
}

func (h *AccountHandler) UpdateDepositAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeDepositAccount(r, mux.Vars(r)["accountID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var account models.DepositAccount
	if err := decodeJSON(r, &account); err != nil {
		writeError(w, h.logger, err)
		return
	}
	account.ID = mux.Vars(r)["accountID"]
	if err := h.service.UpdateDepositAccount(r.Context(), &account); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AccountHandler) DeleteDepositAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeDepositAccount(r, mux.Vars(r)["accountID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.DeleteDepositAccount(r.Context(), mux.Vars(r)["accountID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *AccountHandler) CreateBrokerageAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var account models.BrokerageAccount
	if err := decodeJSON(r, &account); err != nil {
		writeError(w, h.logger, err)
		return
	}
	account.WalletID = mux.Vars(r)["id"]
	if err := h.service.CreateBrokerageAccount(r.Context(), &account); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) ListBrokerageAccounts(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	accounts, err := h.service.ListBrokerageAccounts(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *AccountHandler) DeleteBrokerageAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.DeleteBrokerageAccount(r.Context(), mux.Vars(r)["accountID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// LinkDepositAccount attaches a cash line to a brokerage account.
func (h *AccountHandler) LinkDepositAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req struct {
		DepositAccountID string `json:"deposit_account_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	link, err := h.service.LinkDepositAccount(r.Context(), mux.Vars(r)["accountID"], req.DepositAccountID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *AccountHandler) UnlinkDepositAccount(w http.ResponseWriter, r *http.Request) {
	if _, err := authorizeWallet(r, h.wallets, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.UnlinkDepositAccount(r.Context(), mux.Vars(r)["linkID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
