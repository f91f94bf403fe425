package http

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/aussiebroadwan/quill/pkg/cryptox"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

const (
	csrfCookieName = "quill_csrf"
	csrfFieldName  = "csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

type csrfKey struct{}

func csrfToken(ctx context.Context) string {
	v, _ := ctx.Value(csrfKey{}).(string)
	return v
}

// csrfMiddleware implements the double-submit cookie pattern: every browser
// gets a random cookie, and unsafe requests must echo it in the csrf_token
// form field or the X-CSRF-Token header.
func csrfMiddleware(secure bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(csrfCookieName); err == nil {
				token = c.Value
			}

			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
			default:
				sent := r.Header.Get(csrfHeaderName)
				if sent == "" {
					sent = r.PostFormValue(csrfFieldName)
				}
				if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(sent)) != 1 {
					slogx.FromContext(r.Context()).Warn("csrf rejected", "path", r.URL.Path)
					http.Error(w, "Forbidden: invalid or missing CSRF token", http.StatusForbidden)
					return
				}
			}

			if token == "" {
				var err error
				if token, err = cryptox.GenerateToken(cryptox.TokenSize128); err != nil {
					http.Error(w, "internal error", http.StatusInternalServerError)
					return
				}
				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfKey{}, token)))
		})
	}
}
