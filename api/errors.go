package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jmcleod/keywarden/storage"
)

// invalidCredentials is the single message for every authentication
// failure. Distinguishing wrong username from wrong tag would create a
// credential-guessing oracle.
const invalidCredentials = "invalid credentials"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// mapError translates storage errors into responses. Backend error
// strings go to the audit log only; clients get fixed messages.
func (a *API) mapError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrAccountExists):
		writeError(w, http.StatusConflict, "username unavailable")
	default:
		a.audit.logFailure(AuditStorageFailure, r, err.Error())
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON parses a bounded JSON request body.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request, maxBytes int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return v, false
	}
	return v, true
}
