package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/portfel-app/portfel/internal/models"
	"github.com/portfel-app/portfel/internal/services"
)

// EventHandler exposes brokerage events and their derived holdings.
type EventHandler struct {
	service services.EventService
	logger  *zap.Logger
}

func NewEventHandler(service services.EventService, logger *zap.Logger) *EventHandler {
	return &EventHandler{service: service, logger: logger}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var ev models.BrokerageEvent
	if err := decodeJSON(r, &ev); err != nil {
		writeError(w, h.logger, err)
		return
	}
	ev.BrokerageAccountID = mux.Vars(r)["accountID"]
	if err := h.service.Create(r.Context(), &ev); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EventHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Events []*models.BrokerageEvent `json:"events"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	for _, ev := range req.Events {
		ev.BrokerageAccountID = mux.Vars(r)["accountID"]
	}
	result, err := h.service.CreateBatch(r.Context(), req.Events)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *EventHandler) UpdateBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Events []*models.BrokerageEvent `json:"events"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	result, err := h.service.UpdateBatch(r.Context(), req.Events)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), mux.Vars(r)["eventID"]); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.List(r.Context(), mux.Vars(r)["accountID"])
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}
