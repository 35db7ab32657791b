package middleware

import (
	"net/http"
	"slices"
	"strings"
)

// RequireRole lets through operators whose token role is one of roles
// (jwtinfra.RoleAdmin, jwtinfra.RoleScheduler). It must run after Auth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	denied := "This operation requires the " + strings.Join(roles, " or ") + " role"
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "Operator authentication required")
				return
			}
			if !slices.Contains(roles, claims.Role) {
				writeJSONError(w, http.StatusForbidden, denied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
