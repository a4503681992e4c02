package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/portfel-app/portfel/internal/services"
)

// AuthHandler exposes registration, activation and the session lifecycle.
type AuthHandler struct {
	service services.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(service services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	user, err := h.service.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if err := h.service.Activate(r.Context(), token); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "activated"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	result, err := h.service.Login(r.Context(), req.Login, req.Password, clientIP(r))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Session-Token")
	if err := h.service.Logout(r.Context(), token); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// Session reports the authenticated user of the current session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Session-Token")
	stamp := r.Header.Get("X-Session-Stamp")
	userID, err := h.service.Verify(r.Context(), token, stamp)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID})
}
