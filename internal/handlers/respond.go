package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/portfel-app/portfel/internal/apperrors"
)

// writeJSON writes a JSON body with status. Encoding errors at this point are
// unrecoverable and only logged by the caller's middleware.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the error taxonomy onto HTTP. Transient errors carry a
// Retry-After hint; internal details never leave the process.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)
	if kind == apperrors.KindTransient {
		w.Header().Set("Retry-After", "30")
	}
	if kind == apperrors.KindInternal {
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": apperrors.UserMessage(err)})
}

// decodeJSON decodes a request body into v with unknown fields rejected.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperrors.Validationf("request.decode", "invalid JSON body")
	}
	return nil
}
