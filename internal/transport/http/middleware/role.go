package middleware

import (
	"log/slog"
	"net/http"
	"slices"
)

// RequireRole admits only callers whose token role is one of allowed. It must
// run after Auth. Denials are logged since they usually mean a non-admin
// account is probing the back office.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !slices.Contains(allowed, claims.Role) {
				slog.Warn("role check denied", "user_id", claims.UserID, "role", claims.Role, "path", r.URL.Path)
				writeJSONError(w, http.StatusForbidden, "access denied: administrator account required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
