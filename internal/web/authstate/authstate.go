// Package authstate derives "who is logged in" from the session's access
// token. The result is computed per request and never cached.
package authstate

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

// User is the decoded identity of the current access token.
type User struct {
	ID        string
	Username  string
	IsAdmin   bool
	ExpiresAt time.Time
}

// State is the auth view handed to guards and pages. The zero value is
// logged out.
type State struct {
	IsAuthenticated bool
	IsAdmin         bool
	User            *User
}

// Derive computes State from the stored tokens. A missing or undecodable
// access token yields the logged-out State.
func Derive(tokens blogsdk.Tokens) State {
	id, err := jwtx.DecodeIdentity(tokens.Access)
	if err != nil {
		return State{}
	}

	u := &User{
		ID:        id.UserID,
		Username:  id.Username,
		IsAdmin:   id.IsAdmin,
		ExpiresAt: id.ExpiresAt,
	}
	return State{
		IsAuthenticated: true,
		IsAdmin:         u.IsAdmin,
		User:            u,
	}
}

type ctxKey struct{}

// WithState stores s in ctx.
func WithState(ctx context.Context, s State) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the State for the request, logged out if none was set.
func FromContext(ctx context.Context) State {
	s, _ := ctx.Value(ctxKey{}).(State)
	return s
}

// Loader reads the tokens for the browser session behind r.
type Loader func(r *http.Request) (blogsdk.Tokens, error)

// Middleware derives State on every request and stores it in the request
// context. A load failure is logged and treated as logged out.
func Middleware(load Loader) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			tokens, err := load(r)
			if err != nil {
				slogx.FromContext(ctx).Warn("failed to load session tokens", "err", err)
				tokens = blogsdk.Tokens{}
			}

			state := Derive(tokens)
			ctx = WithState(ctx, state)
			if state.User != nil {
				ctx = httpx.WithUserID(ctx, state.User.ID)
				ctx = slogx.With(ctx, "user_id", state.User.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
