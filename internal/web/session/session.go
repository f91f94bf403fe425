// Package session keeps each browser's bearer tokens server-side. The browser
// only holds an opaque cookie; the tokens live sealed in the session store.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/quill/internal/web/domain"
	"github.com/aussiebroadwan/quill/internal/web/store"
	"github.com/aussiebroadwan/quill/pkg/blogsdk"
	"github.com/aussiebroadwan/quill/pkg/cryptox"
	"github.com/aussiebroadwan/quill/pkg/httpx"
	"github.com/aussiebroadwan/quill/pkg/idx"
	"github.com/aussiebroadwan/quill/pkg/slogx"
)

// CookieName carries the opaque session token.
const CookieName = "quill_session"

// Manager creates and resolves browser sessions.
type Manager struct {
	Store  store.Store
	Sealer *cryptox.Sealer
	TTL    time.Duration

	// Secure marks the cookie HTTPS-only.
	Secure bool

	now func() time.Time
}

func NewManager(st store.Store, sealer *cryptox.Sealer, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = domain.DefaultSessionTTL
	}
	return &Manager{
		Store:  st,
		Sealer: sealer,
		TTL:    ttl,
		Secure: secure,
		now:    time.Now,
	}
}

// Middleware resolves the session cookie into a Handle for the request. An
// unknown or expired cookie is dropped. Rows are created lazily, the first
// time a request needs one.
func (m *Manager) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			h := &Handle{m: m, w: w, secure: m.Secure}

			if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
				row, err := m.Store.Sessions().GetSessionByHash(ctx, cryptox.FingerprintToken(c.Value), m.now())
				switch {
				case err == nil:
					h.row = &row
				case errors.Is(err, store.ErrNotFound):
					h.dropCookie()
				default:
					slogx.FromContext(ctx).Error("failed to load session", "err", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithHandle(ctx, h)))
		})
	}
}

// Handle is one request's view of its browser session. It implements
// blogsdk.TokenStore so an SDK client can read and refresh tokens through it.
type Handle struct {
	m      *Manager
	w      http.ResponseWriter
	secure bool

	mu  sync.Mutex
	row *domain.Session
}

var _ blogsdk.TokenStore = (*Handle)(nil)

// Load returns the stored tokens, empty when there is no session.
func (h *Handle) Load(_ context.Context) (blogsdk.Tokens, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.row == nil {
		return blogsdk.Tokens{}, nil
	}

	// Rows sealed under a previous key read as logged out.
	access, err := h.m.Sealer.Open(h.row.AccessSealed)
	if err != nil {
		return blogsdk.Tokens{}, nil
	}
	refresh, err := h.m.Sealer.Open(h.row.RefreshSealed)
	if err != nil {
		return blogsdk.Tokens{}, nil
	}

	return blogsdk.Tokens{Access: access, Refresh: refresh}, nil
}

// Save overwrites both tokens, creating the session if needed.
func (h *Handle) Save(ctx context.Context, t blogsdk.Tokens) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.ensureLocked(ctx); err != nil {
		return err
	}

	access, err := h.m.Sealer.Seal(t.Access)
	if err != nil {
		return fmt.Errorf("failed to seal access token: %w", err)
	}
	refresh, err := h.m.Sealer.Seal(t.Refresh)
	if err != nil {
		return fmt.Errorf("failed to seal refresh token: %w", err)
	}

	expires := h.m.now().Add(h.m.TTL)
	if err := h.m.Store.Sessions().UpdateSessionTokens(ctx, h.row.ID, access, refresh, expires); err != nil {
		return fmt.Errorf("failed to save session tokens: %w", err)
	}

	h.row.AccessSealed = access
	h.row.RefreshSealed = refresh
	h.row.ExpiresAt = expires
	return nil
}

// Clear drops both tokens. The row survives so in-flight flows keep their key.
func (h *Handle) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.row == nil {
		return nil
	}

	err := h.m.Store.Sessions().ClearSessionTokens(ctx, h.row.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to clear session tokens: %w", err)
	}

	h.row.AccessSealed = ""
	h.row.RefreshSealed = ""
	return nil
}

// Key returns a stable identifier for this browser, creating the session if
// needed. It keys per-browser state such as pending OTP challenges.
func (h *Handle) Key(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.ensureLocked(ctx); err != nil {
		return "", err
	}
	return h.row.ID, nil
}

// ID returns the session id, or "" when the browser has none yet.
func (h *Handle) ID() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.row == nil {
		return ""
	}
	return h.row.ID
}

// Destroy deletes the session row and expires the cookie.
func (h *Handle) Destroy(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.row == nil {
		return nil
	}
	if err := h.m.Store.Sessions().DeleteSession(ctx, h.row.ID); err != nil {
		return err
	}
	h.row = nil
	h.dropCookie()
	return nil
}

func (h *Handle) ensureLocked(ctx context.Context) error {
	if h.row != nil {
		return nil
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return err
	}

	now := h.m.now().UTC()
	row := domain.Session{
		ID:        idx.NewAt(now),
		TokenHash: cryptox.FingerprintToken(token),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(h.m.TTL),
	}
	if err := h.m.Store.Sessions().CreateSession(ctx, row); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	h.row = &row
	http.SetCookie(h.w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  row.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	slogx.FromContext(ctx).Debug("session created", "session_id", row.ID)
	return nil
}

func (h *Handle) dropCookie() {
	http.SetCookie(h.w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type ctxKey struct{}

func WithHandle(ctx context.Context, h *Handle) context.Context {
	return context.WithValue(ctx, ctxKey{}, h)
}

// FromContext returns the request's Handle, or nil outside Manager.Middleware.
func FromContext(ctx context.Context) *Handle {
	if h, ok := ctx.Value(ctxKey{}).(*Handle); ok {
		return h
	}
	return nil
}

// Tokens is an authstate.Loader over the request's session.
func Tokens(r *http.Request) (blogsdk.Tokens, error) {
	h := FromContext(r.Context())
	if h == nil {
		return blogsdk.Tokens{}, nil
	}
	return h.Load(r.Context())
}
