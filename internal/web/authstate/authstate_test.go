package authstate_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/authstate"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, isAdmin bool) string {
	t.Helper()
	s, err := jwtx.NewHS256([]byte("k"))
	require.NoError(t, err)
	tok, err := s.Sign(jwtx.NewAccessClaims("42", "ada", isAdmin, time.Minute, time.Now()))
	require.NoError(t, err)
	return tok
}

func TestDerive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		access   string
		wantAuth bool
		wantAdm  bool
	}{
		{name: "no token", access: "", wantAuth: false},
		{name: "garbage", access: "garbage", wantAuth: false},
		{name: "two segments", access: "a.b", wantAuth: false},
		{name: "user", access: signed(t, false), wantAuth: true},
		{name: "admin", access: signed(t, true), wantAuth: true, wantAdm: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var st authstate.State
			require.NotPanics(t, func() {
				st = authstate.Derive(blogsdk.Tokens{Access: tt.access, Refresh: "r"})
			})

			require.Equal(t, tt.wantAuth, st.IsAuthenticated)
			require.Equal(t, tt.wantAdm, st.IsAdmin)
			if !tt.wantAuth {
				require.Nil(t, st.User)
				return
			}
			require.Equal(t, "42", st.User.ID)
			require.Equal(t, "ada", st.User.Username)
			require.Equal(t, st.IsAdmin, st.User.IsAdmin)
		})
	}
}

func TestFromContextDefaultsToLoggedOut(t *testing.T) {
	t.Parallel()

	st := authstate.FromContext(context.Background())
	require.False(t, st.IsAuthenticated)
	require.False(t, st.IsAdmin)
	require.Nil(t, st.User)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got authstate.State
	var userID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = authstate.FromContext(r.Context())
		userID = httpx.UserIDFromContext(r.Context())
	})

	t.Run("derives from loaded tokens", func(t *testing.T) {
		access := signed(t, true)
		h := authstate.Middleware(func(*http.Request) (blogsdk.Tokens, error) {
			return blogsdk.Tokens{Access: access}, nil
		})(next)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.True(t, got.IsAuthenticated)
		require.True(t, got.IsAdmin)
		require.Equal(t, "42", userID)
	})

	t.Run("load failure is logged out", func(t *testing.T) {
		h := authstate.Middleware(func(*http.Request) (blogsdk.Tokens, error) {
			return blogsdk.Tokens{}, errors.New("db down")
		})(next)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.False(t, got.IsAuthenticated)
		require.Empty(t, userID)
	})
}
