package handlers

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
	"github.com/portfel-app/portfel/internal/services"
)

type contextKey string

const userIDKey contextKey = "user_id"

// UserID extracts the authenticated user id set by SessionMiddleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// CORS allows browser clients on any origin. OPTIONS preflights short-circuit.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-Token, X-Session-Stamp")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionMiddleware gates a subtree behind the session token plus stamp
// headers and stores the resolved user id on the request context.
func SessionMiddleware(gate services.SessionGate, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get("X-Session-Token")
			stamp := r.Header.Get("X-Session-Stamp")
			userID, err := gate.Verify(r.Context(), token, stamp)
			if err != nil {
				writeError(w, logger, err)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientIP extracts the peer address, preferring X-Forwarded-For when the
// reverse proxy sets it.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireUser is a guard for handlers that must run authenticated even if
// wired outside the session subtree.
func requireUser(ctx context.Context) (string, error) {
	id := UserID(ctx)
	if id == "" {
		return "", apperrors.Authf("request.auth", "authentication required")
	}
	return id, nil
}
