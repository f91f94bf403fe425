// Package guard gates routes on the request's auth state. Decisions are made
// fresh on every request.
package guard

import (
	"net/http"

	"github.com/aussiebroadwan/quill/internal/web/authstate"
	"github.com/aussiebroadwan/quill/pkg/httpx"
)

const (
	HomePath  = "/"
	LoginPath = "/login"
)

// Kind names a guard policy.
type Kind int

const (
	KindPublicOnly Kind = iota
	KindAuthenticatedOnly
	KindAdminOnly
)

func (k Kind) String() string {
	switch k {
	case KindPublicOnly:
		return "public_only"
	case KindAuthenticatedOnly:
		return "authenticated_only"
	case KindAdminOnly:
		return "admin_only"
	default:
		return "unknown"
	}
}

// Policy is a guard kind plus where to send rejected requests. For AdminOnly,
// RedirectTo is the fallback for logged-in non-admins; logged-out users
// always go to LoginPath.
type Policy struct {
	Kind       Kind
	RedirectTo string
}

func PublicOnlyPolicy(redirectTo string) Policy {
	return Policy{Kind: KindPublicOnly, RedirectTo: orDefault(redirectTo, HomePath)}
}

func AuthenticatedOnlyPolicy(redirectTo string) Policy {
	return Policy{Kind: KindAuthenticatedOnly, RedirectTo: orDefault(redirectTo, LoginPath)}
}

func AdminOnlyPolicy(fallback string) Policy {
	return Policy{Kind: KindAdminOnly, RedirectTo: orDefault(fallback, HomePath)}
}

// Decide reports whether the guarded page renders, or where to redirect.
func Decide(p Policy, s authstate.State) (render bool, location string) {
	switch p.Kind {
	case KindPublicOnly:
		if s.IsAuthenticated {
			return false, p.RedirectTo
		}
		return true, ""

	case KindAuthenticatedOnly:
		if !s.IsAuthenticated {
			return false, p.RedirectTo
		}
		return true, ""

	case KindAdminOnly:
		if !s.IsAuthenticated {
			return false, LoginPath
		}
		if !s.IsAdmin {
			return false, p.RedirectTo
		}
		return true, ""
	}

	return false, HomePath
}

// PublicOnly sends logged-in users to redirectTo (home by default).
func PublicOnly(redirectTo string) httpx.Middleware {
	return Require(PublicOnlyPolicy(redirectTo))
}

// AuthenticatedOnly sends logged-out users to redirectTo (login by default).
func AuthenticatedOnly(redirectTo string) httpx.Middleware {
	return Require(AuthenticatedOnlyPolicy(redirectTo))
}

// AdminOnly sends logged-out users to login and non-admins to fallback.
func AdminOnly(fallback string) httpx.Middleware {
	return Require(AdminOnlyPolicy(fallback))
}

// Require applies p using the State that authstate.Middleware stored.
func Require(p Policy) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			render, location := Decide(p, authstate.FromContext(r.Context()))
			if render {
				next.ServeHTTP(w, r)
				return
			}
			Redirect(w, r, location)
		})
	}
}

// Redirect answers GET/HEAD with 302 and everything else with 303 so a
// rejected form POST lands on a GET.
func Redirect(w http.ResponseWriter, r *http.Request, location string) {
	code := http.StatusSeeOther
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		code = http.StatusFound
	}
	httpx.NoCache(w)
	http.Redirect(w, r, location, code)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
