package api

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const usernameKey contextKey = "keywarden.username"

// AuthMiddleware validates the bearer token and injects the subject
// username into the request context.
func (a *API) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			writeError(w, http.StatusUnauthorized, invalidCredentials)
			return
		}
		username, err := a.tokens.verify(tokenString)
		if err != nil {
			a.audit.logFailure(AuditTokenRejected, r, "token verification failed")
			writeError(w, http.StatusUnauthorized, invalidCredentials)
			return
		}
		ctx := context.WithValue(r.Context(), usernameKey, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestUsername returns the authenticated username from the context.
func requestUsername(r *http.Request) (string, bool) {
	username, ok := r.Context().Value(usernameKey).(string)
	return username, ok && username != ""
}
