package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/services"
)

// TransactionHandler exposes the balance chain surface.
type TransactionHandler struct {
	service  services.TransactionService
	accounts services.AccountService
	wallets  services.WalletService
	logger   *zap.Logger
}

func NewTransactionHandler(service services.TransactionService, accounts services.AccountService, wallets services.WalletService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{service: service, accounts: accounts, wallets: wallets, logger: logger}
}

func (h *TransactionHandler) authorizeAccount(r *http.Request, accountID string) error {
	account, err := h.accounts.GetDepositAccount(r.Context(), accountID)
	if err != nil {
		return err
	}
	_, err = authorizeWallet(r, h.wallets, account.WalletID)
	return err
}

// CreateBatch appends rows to one account's chain in request order.
func (h *TransactionHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	accountID := mux.Vars(r)["accountID"]
	if err := h.authorizeAccount(r, accountID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req struct {
		Transactions []*models.Transaction `json:"transactions"`
		Gains        map[int]string        `json:"gains,omitempty"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	result, err := h.service.CreateBatch(r.Context(), accountID, req.Transactions, req.Gains)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// UpdateBatch patches rows across accounts; affected chains are recomputed.
func (h *TransactionHandler) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req struct {
		Transactions []*models.Transaction `json:"transactions"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	for _, patch := range req.Transactions {
		existing, err := h.service.Get(r.Context(), patch.ID)
		if err != nil {
			continue // reported per-item by the service
		}
		if err := h.authorizeAccount(r, existing.DepositAccountID); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	result, err := h.service.UpdateBatch(r.Context(), req.Transactions)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), mux.Vars(r)["txID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.authorizeAccount(r, t.DepositAccountID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Page lists transactions across all wallets of the user, filtered.
func (h *TransactionHandler) Page(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	wallets, err := h.wallets.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	walletIDs := make([]string, len(wallets))
	for i, wlt := range wallets {
		walletIDs[i] = wlt.ID
	}

	filter := parseTransactionFilter(r)
	page, err := h.service.Page(r.Context(), walletIDs, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Get(r.Context(), mux.Vars(r)["txID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.authorizeAccount(r, t.DepositAccountID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), mux.Vars(r)["txID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func parseTransactionFilter(r *http.Request) *models.TransactionFilter {
	filter := &models.TransactionFilter{Limit: 50}

	if accounts := r.URL.Query().Get("accounts"); accounts != "" {
		filter.AccountIDs = strings.Split(accounts, ",")
	}
	if categories := r.URL.Query().Get("categories"); categories != "" {
		filter.Categories = strings.Split(categories, ",")
	}
	if statuses := r.URL.Query().Get("statuses"); statuses != "" {
		filter.Statuses = strings.Split(statuses, ",")
	}
	if startDate := r.URL.Query().Get("start_date"); startDate != "" {
		if date, err := time.Parse("2006-01-02", startDate); err == nil {
			filter.StartDate = &date
		}
	}
	if endDate := r.URL.Query().Get("end_date"); endDate != "" {
		if date, err := time.Parse("2006-01-02", endDate); err == nil {
			filter.EndDate = &date
		}
	}
	filter.Query = r.URL.Query().Get("q")
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	return filter
}
