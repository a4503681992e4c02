package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/services"
)

const defaultHistoryMonths = 12

// TreeHandler exposes the aggregator tree and the snapshot trigger.
type TreeHandler struct {
	manager   services.WalletManagerService
	snapshots services.SnapshotService
	fx        services.FxSource
	logger    *zap.Logger
}

func NewTreeHandler(manager services.WalletManagerService, snapshots services.SnapshotService, fx services.FxSource, logger *zap.Logger) *TreeHandler {
	return &TreeHandler{manager: manager, snapshots: snapshots, fx: fx, logger: logger}
}

// Tree values every wallet of the user with the live FX table.
func (h *TreeHandler) Tree(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	months := defaultHistoryMonths
	if s := r.URL.Query().Get("months"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			months = n
		}
	}
	rates, err := h.fx.LatestRates(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	result, err := h.manager.Tree(r.Context(), userID, months, rates)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateSnapshot freezes one month, defaulting to the current one. The same
// month can be re-run safely.
func (h *TreeHandler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r.Context()); err != nil {
		writeError(w, h.logger, err)
		return
	}
	var req struct {
		MonthKey string `json:"month_key"`
	}
	if r.Body != nil && r.ContentLength > 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err)
			return
		}
	}
	if req.MonthKey == "" {
		req.MonthKey = models.MonthKeyOf(time.Now())
	}
	rates, err := h.fx.LatestRates(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	result, err := h.snapshots.CreateMonthly(r.Context(), req.MonthKey, rates)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// FxLatest passes the live FX table through for clients.
func (h *TreeHandler) FxLatest(w http.ResponseWriter, r *http.Request) {
	rates, err := h.fx.LatestRates(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}
