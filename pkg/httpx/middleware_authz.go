package httpx

import (
	"net/http"
)

// RequireAdmin rejects callers whose verified claims lack is_admin. It must
// run after AuthnMiddleware.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, "Authentication credentials were not provided.")
				return
			}
			if !claims.IsAdmin {
				WriteDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
