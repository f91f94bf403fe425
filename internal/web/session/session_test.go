package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/session"
	"github.com/aussiebroadwan/quill/internal/web/store/drivers/sqlite"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/cryptox"
	"github.com/aussiebroadwan/quill/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*session.Manager, *sqlite.Store) {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	sealer, err := cryptox.NewEphemeralSealer()
	require.NoError(t, err)

	return session.NewManager(st, sealer, time.Hour, false), st
}

// serve runs fn inside the session middleware and returns the response.
func serve(t *testing.T, m *session.Manager, cookie *http.Cookie, fn func(ctx context.Context, h *session.Handle)) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()

	m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := session.FromContext(r.Context())
		require.NotNil(t, h)
		fn(r.Context(), h)
	})).ServeHTTP(rec, req)

	return rec.Result()
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	return nil
}

func TestHandleIsATokenStore(t *testing.T) {
	m, _ := newManager(t)

	// No cookie: empty session, no row created by reading.
	resp := serve(t, m, nil, func(ctx context.Context, h *session.Handle) {
		tokens, err := h.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, blogsdk.Tokens{}, tokens)
		require.Empty(t, h.ID())
		require.NoError(t, h.Clear(ctx))
	})
	require.Nil(t, sessionCookie(resp))

	// Save creates the row and sets the cookie.
	resp = serve(t, m, nil, func(ctx context.Context, h *session.Handle) {
		require.NoError(t, h.Save(ctx, blogsdk.Tokens{Access: "a1", Refresh: "r1"}))
	})
	cookie := sessionCookie(resp)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)

	// A later request sees the same tokens.
	serve(t, m, cookie, func(ctx context.Context, h *session.Handle) {
		tokens, err := h.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, blogsdk.Tokens{Access: "a1", Refresh: "r1"}, tokens)

		require.NoError(t, h.Clear(ctx))
	})

	serve(t, m, cookie, func(ctx context.Context, h *session.Handle) {
		tokens, err := h.Load(ctx)
		require.NoError(t, err)
		require.False(t, tokens.HasAccess())
		require.NotEmpty(t, h.ID(), "clearing tokens keeps the row")
	})
}

func TestTokensAreSealedAtRest(t *testing.T) {
	m, st := newManager(t)

	var id string
	resp := serve(t, m, nil, func(ctx context.Context, h *session.Handle) {
		require.NoError(t, h.Save(ctx, blogsdk.Tokens{Access: "plain-access", Refresh: "plain-refresh"}))
		id = h.ID()
	})
	cookie := sessionCookie(resp)

	row, err := st.Sessions().GetSessionByHash(context.Background(), cryptox.FingerprintToken(cookie.Value), time.Now())
	require.NoError(t, err)
	require.Equal(t, id, row.ID)
	require.NotContains(t, row.AccessSealed, "plain")
	require.NotContains(t, row.RefreshSealed, "plain")
	require.NotEqual(t, cookie.Value, row.TokenHash)
}

func TestUnknownCookieIsDropped(t *testing.T) {
	m, _ := newManager(t)

	resp := serve(t, m, &http.Cookie{Name: session.CookieName, Value: "forged"}, func(ctx context.Context, h *session.Handle) {
		require.Empty(t, h.ID())
	})

	c := sessionCookie(resp)
	require.NotNil(t, c)
	require.Equal(t, -1, c.MaxAge)
}

func TestKeyIsStableAndDestroyRemoves(t *testing.T) {
	m, _ := newManager(t)

	var key string
	resp := serve(t, m, nil, func(ctx context.Context, h *session.Handle) {
		var err error
		key, err = h.Key(ctx)
		require.NoError(t, err)
		again, err := h.Key(ctx)
		require.NoError(t, err)
		require.Equal(t, key, again)
	})
	cookie := sessionCookie(resp)

	serve(t, m, cookie, func(ctx context.Context, h *session.Handle) {
		require.Equal(t, key, h.ID())
		require.NoError(t, h.Destroy(ctx))
	})

	serve(t, m, cookie, func(ctx context.Context, h *session.Handle) {
		require.Empty(t, h.ID())
	})
}

type countingSweeper struct{ n int }

func (c *countingSweeper) Sweep() int { c.n++; return 1 }

func TestHousekeeperCleanup(t *testing.T) {
	_, st := newManager(t)
	sw := &countingSweeper{}

	hk := session.NewHousekeeper(st, slogx.Discard(), 0, sw)
	require.Equal(t, 10*time.Minute, hk.Interval)

	hk.Cleanup(context.Background())
	require.Equal(t, 1, sw.n)

	hk.Start()
	hk.Stop()
	require.GreaterOrEqual(t, sw.n, 2)
}
