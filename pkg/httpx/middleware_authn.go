package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

// AuthnMiddleware requires a valid access token in the Authorization header.
// Failures answer 401 with a {"detail"} body, which is what API clients
// key their refresh logic on.
func AuthnMiddleware(v jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "Authentication credentials were not provided.")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				log.Debug("jwt verify failed", "err", err)
				writeBearerError(w, "Given token not valid for any token type")
				return
			}
			if claims.TokenType != "" && claims.TokenType != jwtx.TokenTypeAccess {
				writeBearerError(w, "Given token not valid for any token type")
				return
			}

			ctx = contextWithAuth(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return raw, raw != ""
}

func contextWithAuth(ctx context.Context, c *jwtx.Claims) context.Context {
	ctx = WithUserID(ctx, string(c.UserID))
	return context.WithValue(ctx, CtxKeyClaims, c)
}

// RFC 6750 header plus the API's JSON error body.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	WriteDetail(w, http.StatusUnauthorized, desc)
}
