package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/services"
)

// WalletHandler exposes wallets and their planning satellites.
type WalletHandler struct {
	service services.WalletService
	logger  *zap.Logger
}

func NewWalletHandler(service services.WalletService, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{service: service, logger: logger}
}

func (h *WalletHandler) authorizeWallet(r *http.Request, walletID string) (*models.Wallet, error) {
	return authorizeWallet(r, h.service, walletID)
}

func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	wallets, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var wallet models.Wallet
	if err := decodeJSON(r, &wallet); err != nil {
		writeError(w, h.logger, err)
		return
	}
	wallet.UserID = userID
	if err := h.service.Create(r.Context(), &wallet); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, wallet)
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.authorizeWallet(r, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

func (h *WalletHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var wallet models.Wallet
	if err := decodeJSON(r, &wallet); err != nil {
		writeError(w, h.logger, err)
		return
	}
	wallet.ID = mux.Vars(r)["id"]
	if err := h.service.Update(r.Context(), &wallet); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *WalletHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	dashboard, err := h.service.Dashboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (h *WalletHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var debt models.Debt
	if err := decodeJSON(r, &debt); err != nil {
		writeError(w, h.logger, err)
		return
	}
	debt.WalletID = mux.Vars(r)["id"]
	if err := h.service.CreateDebt(r.Context(), &debt); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, debt)
}

func (h *WalletHandler) ListDebts(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	debts, err := h.service.ListDebts(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}

func (h *WalletHandler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var debt models.Debt
	if err := decodeJSON(r, &debt); err != nil {
		writeError(w, h.logger, err)
		return
	}
	debt.ID = mux.Vars(r)["debtID"]
	if err := h.service.UpdateDebt(r.Context(), &debt); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *WalletHandler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.DeleteDebt(r.Context(), mux.Vars(r)["debtID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *WalletHandler) CreateRecurringExpense(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var exp models.RecurringExpense
	if err := decodeJSON(r, &exp); err != nil {
		writeError(w, h.logger, err)
		return
	}
	exp.WalletID = mux.Vars(r)["id"]
	if err := h.service.CreateRecurringExpense(r.Context(), &exp); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

func (h *WalletHandler) ListRecurringExpenses(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	exps, err := h.service.ListRecurringExpenses(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, exps)
}

func (h *WalletHandler) UpdateRecurringExpense(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var exp models.RecurringExpense
	if err := decodeJSON(r, &exp); err != nil {
		writeError(w, h.logger, err)
		return
	}
	exp.ID = mux.Vars(r)["expenseID"]
	if err := h.service.UpdateRecurringExpense(r.Context(), &exp); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *WalletHandler) DeleteRecurringExpense(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.DeleteRecurringExpense(r.Context(), mux.Vars(r)["expenseID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *WalletHandler) SetYearGoal(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var goal models.YearGoal
	if err := decodeJSON(r, &goal); err != nil {
		writeError(w, h.logger, err)
		return
	}
	goal.WalletID = mux.Vars(r)["id"]
	if err := h.service.SetYearGoal(r.Context(), &goal); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (h *WalletHandler) ListYearGoals(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authorizeWallet(r, mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	goals, err := h.service.ListYearGoals(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *WalletHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	var note models.UserNote
	if err := decodeJSON(r, &note); err != nil {
		writeError(w, h.logger, err)
		return
	}
	note.UserID = userID
	if err := h.service.CreateNote(r.Context(), &note); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *WalletHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	notes, err := h.service.ListNotes(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (h *WalletHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var note models.UserNote
	if err := decodeJSON(r, &note); err != nil {
		writeError(w, h.logger, err)
		return
	}
	note.ID = mux.Vars(r)["noteID"]
	if err := h.service.UpdateNote(r.Context(), &note); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *WalletHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.service.DeleteNote(r.Context(), mux.Vars(r)["noteID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
